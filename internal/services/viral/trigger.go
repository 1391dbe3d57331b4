package viral

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Dispatcher reacts to counter crossings with idempotent side effects:
// auto-featuring windows per site and one-time milestone rewards per user.
// It derives everything from durable counters, so it is safe to invoke it
// again for the same notification, for a redelivered one, or from the
// reconciliation sweep.
type Dispatcher struct {
	db  *gorm.DB
	cfg config.ViralConfig
}

// NewDispatcher creates a new trigger dispatcher
func NewDispatcher(db *gorm.DB, cfg config.ViralConfig) *Dispatcher {
	return &Dispatcher{db: db, cfg: cfg}
}

// HandleShareRecorded evaluates the featuring trigger for one site. The
// share counter crossing a non-zero multiple of the threshold fires one
// featuring window; LastTriggeredMultiple records the highest multiple
// already fired so redelivery after the counter advanced is a no-op.
func (d *Dispatcher) HandleShareRecorded(siteID uuid.UUID, now time.Time) error {
	return d.db.Transaction(func(tx *gorm.DB) error {
		var site models.Site
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Owner").
			First(&site, "id = ?", siteID).Error; err != nil {
			return fmt.Errorf("failed to get site: %w", err)
		}

		multiple, fire := crossedMultiple(site.TotalShares, d.cfg.ShareThreshold, site.LastTriggeredMultiple)
		if !fire {
			return nil
		}

		duration := d.cfg.FeatureDurationFree
		if site.Tier == models.TierPro || site.Owner.EffectiveTier(now) == models.TierPro {
			duration = d.cfg.FeatureDurationPro
		}

		site.AutoFeaturedUntil = featureWindow(site.AutoFeaturedUntil, now, duration)
		site.LastTriggeredMultiple = multiple

		if err := tx.Save(&site).Error; err != nil {
			return fmt.Errorf("failed to apply featuring window: %w", err)
		}

		log.Printf("Auto-featured site %s until %s (share multiple %d)", site.ID, site.AutoFeaturedUntil.Format(time.RFC3339), multiple)
		return nil
	})
}

// featureWindow computes the new featuring expiry. Forward-only: a fresh
// firing may extend the current window, never pull it back, so overlapping
// windows of different durations always keep the later expiry.
func featureWindow(current *time.Time, now time.Time, duration time.Duration) *time.Time {
	until := now.Add(duration)
	if current != nil && current.After(until) {
		return current
	}
	return &until
}

// crossedMultiple reports the highest threshold multiple a share counter
// has reached and whether it is above the last one already fired. Lost
// notifications collapse into a single catch-up firing rather than one
// per missed crossing.
func crossedMultiple(totalShares, threshold, lastTriggered int64) (int64, bool) {
	multiple := totalShares - totalShares%threshold
	if multiple == 0 || multiple <= lastTriggered {
		return multiple, false
	}
	return multiple, true
}

// HandleReferralConverted evaluates the referral milestone for one
// referrer. The MilestoneRecord unique index is the sole idempotency
// mechanism: under concurrent deliveries only one insert succeeds and only
// that caller applies the reward.
func (d *Dispatcher) HandleReferralConverted(referrerID uuid.UUID, now time.Time) error {
	var activeCount int64
	err := d.db.Model(&models.ReferralEdge{}).
		Where("referrer_id = ? AND status = ?", referrerID, models.ReferralActive).
		Count(&activeCount).Error
	if err != nil {
		return fmt.Errorf("failed to count active referrals: %w", err)
	}

	if activeCount < d.cfg.MilestoneReferrals {
		return nil
	}

	return d.db.Transaction(func(tx *gorm.DB) error {
		record := models.MilestoneRecord{
			UserID:  referrerID,
			Type:    models.MilestoneTenReferralsFreePro,
			FiredAt: now,
		}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// Already rewarded; silent no-op, not a failure.
				return nil
			}
			return fmt.Errorf("failed to insert milestone record: %w", err)
		}

		return d.applyProReward(tx, referrerID, now)
	})
}

// applyProReward grants the milestone's time-bounded pro upgrade. The
// expiry extends forward from whichever is later, now or the current
// grant, so stacked rewards accumulate.
func (d *Dispatcher) applyProReward(tx *gorm.DB, userID uuid.UUID, now time.Time) error {
	var user models.User
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&user, "id = ?", userID).Error; err != nil {
		return fmt.Errorf("failed to get user for reward: %w", err)
	}

	start := now
	if user.ProUntil != nil && user.ProUntil.After(start) {
		start = *user.ProUntil
	}
	until := start.AddDate(0, d.cfg.MilestoneRewardMonths, 0)
	user.ProUntil = &until

	if err := tx.Save(&user).Error; err != nil {
		return fmt.Errorf("failed to apply pro reward: %w", err)
	}

	// Owned sites pick up eligibility so the next ranker run sees them.
	if err := tx.Model(&models.Site{}).
		Where("owner_id = ? AND retired_at IS NULL", userID).
		Update("showcase_eligible", true).Error; err != nil {
		return fmt.Errorf("failed to update site eligibility: %w", err)
	}

	log.Printf("Granted milestone pro reward to user %s until %s", userID, until.Format(time.RFC3339))
	return nil
}

// GetMilestoneStatus lists the one-time rewards a user has earned.
func (d *Dispatcher) GetMilestoneStatus(userID uuid.UUID) ([]models.MilestoneRecord, error) {
	var records []models.MilestoneRecord
	err := d.db.
		Where("user_id = ?", userID).
		Order("fired_at asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load milestone records: %w", err)
	}
	return records, nil
}

// Reconcile re-derives every trigger from the durable counters. It backs
// the periodic sweep that heals lost notifications: featuring windows come
// from share counters, milestones from edge counts, neither from the
// notifications themselves.
func (d *Dispatcher) Reconcile(now time.Time) error {
	var siteIDs []uuid.UUID
	err := d.db.Model(&models.Site{}).
		Where("retired_at IS NULL AND total_shares >= ? AND total_shares - MOD(total_shares, ?) > last_triggered_multiple",
			d.cfg.ShareThreshold, d.cfg.ShareThreshold).
		Pluck("id", &siteIDs).Error
	if err != nil {
		return fmt.Errorf("failed to scan sites for reconciliation: %w", err)
	}
	for _, id := range siteIDs {
		if err := d.HandleShareRecorded(id, now); err != nil {
			log.Printf("Reconciliation failed for site %s: %v", id, err)
		}
	}

	var referrerIDs []uuid.UUID
	err = d.db.Model(&models.ReferralEdge{}).
		Select("referrer_id").
		Where("status = ?", models.ReferralActive).
		Group("referrer_id").
		Having("COUNT(*) >= ?", d.cfg.MilestoneReferrals).
		Pluck("referrer_id", &referrerIDs).Error
	if err != nil {
		return fmt.Errorf("failed to scan referrers for reconciliation: %w", err)
	}
	for _, id := range referrerIDs {
		if err := d.HandleReferralConverted(id, now); err != nil {
			log.Printf("Milestone reconciliation failed for user %s: %v", id, err)
		}
	}

	// Eligibility granted alongside a milestone pro reward outlives the
	// reward unless someone clears it. Showcase eligibility means the pro
	// standing is current, so drop the flag once the grant has lapsed.
	result := d.db.Exec(`UPDATE sites SET showcase_eligible = false
		WHERE showcase_eligible = true AND tier <> 'pro'
		AND owner_id IN (
			SELECT id FROM users
			WHERE tier <> 'pro' AND (pro_until IS NULL OR pro_until <= ?)
		)`, now)
	if result.Error != nil {
		return fmt.Errorf("failed to clear lapsed showcase eligibility: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("Cleared showcase eligibility for %d site(s) with lapsed pro standing", result.RowsAffected)
	}

	return nil
}
