package viral

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/models"
	"github.com/sitespark/backend/internal/queue"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrDuplicateEvent signals an idempotency-key replay. It never
	// reaches callers as a failure: RecordShare converts it into an
	// accepted=false result carrying the current count.
	ErrDuplicateEvent = errors.New("share event already recorded")

	// ErrDuplicateConversion means a non-churned edge already exists for
	// the (referrer, referee) pair.
	ErrDuplicateConversion = errors.New("referral conversion already recorded")

	// ErrUnknownPlatform rejects shares for platforms outside the weight table.
	ErrUnknownPlatform = errors.New("unknown share platform")

	// ErrSiteRetired rejects events for soft-retired sites.
	ErrSiteRetired = errors.New("site is retired")
)

const (
	transientRetries = 3
	transientBackoff = 50 * time.Millisecond
)

// ShareResult is the outcome of one RecordShare call
type ShareResult struct {
	// Accepted is false when the idempotency key was seen before; the
	// counters are untouched in that case.
	Accepted bool `json:"accepted"`
	// ShareCount is the site's total share count after the call.
	ShareCount int64 `json:"share_count"`
}

// SharePayload is the notification body published after an accepted share
type SharePayload struct {
	SiteID     uuid.UUID `json:"site_id"`
	ShareCount int64     `json:"share_count"`
}

// ConversionPayload is the notification body published after a conversion
type ConversionPayload struct {
	ReferrerID uuid.UUID `json:"referrer_id"`
	EdgeID     uuid.UUID `json:"edge_id"`
}

// Ingestor applies share, pageview and referral-conversion events to the
// ledger. All counter mutations happen inside a single transaction per
// event; the ledger is the only shared mutable state.
type Ingestor struct {
	db    *gorm.DB
	cfg   config.ViralConfig
	queue queue.QueueInterface
}

// NewIngestor creates a new event ingestor
func NewIngestor(db *gorm.DB, cfg config.ViralConfig, q queue.QueueInterface) *Ingestor {
	return &Ingestor{db: db, cfg: cfg, queue: q}
}

// RegisterSite is the content pipeline's entry point: it hands over a new
// site's identity and owner tier and the engine tracks it from then on.
func (s *Ingestor) RegisterSite(ownerID uuid.UUID, name string, tier models.Tier) (*models.Site, error) {
	if name == "" {
		return nil, fmt.Errorf("site name is required")
	}

	siteSlug := slug.Make(name)
	// Slugs collide across users; a short random suffix keeps them unique
	// without a second round trip.
	suffix := strings.Split(uuid.New().String(), "-")[0]
	siteSlug = fmt.Sprintf("%s-%s", siteSlug, suffix)

	site := models.Site{
		OwnerID:          ownerID,
		Name:             name,
		Slug:             siteSlug,
		Tier:             tier,
		ShareCounts:      models.JSON{},
		ShowcaseEligible: tier == models.TierPro,
	}

	if err := s.db.Create(&site).Error; err != nil {
		return nil, fmt.Errorf("failed to create site: %w", err)
	}

	return &site, nil
}

// RetireSite soft-retires a site: it drops out of ranking but its event
// history and counters are preserved.
func (s *Ingestor) RetireSite(siteID uuid.UUID, now time.Time) error {
	result := s.db.Model(&models.Site{}).
		Where("id = ? AND retired_at IS NULL", siteID).
		Updates(map[string]interface{}{
			"retired_at":        now,
			"showcase_eligible": false,
			"updated_at":        now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to retire site: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordShare applies one external-share event. The event append and the
// counter increment are one atomic unit; a replayed idempotency key leaves
// the counters untouched and returns the current count. On acceptance a
// best-effort notification is published for the trigger dispatcher --
// losing it does not roll back the share, the reconciliation sweep heals
// it from the durable counters.
func (s *Ingestor) RecordShare(siteID uuid.UUID, platform models.SharePlatform, idempotencyKey string, occurredAt time.Time) (*ShareResult, error) {
	if !platform.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlatform, platform)
	}
	if idempotencyKey == "" {
		return nil, fmt.Errorf("idempotency key is required")
	}

	var newCount int64
	err := s.withTransientRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			// Lock the site row first: the event insert, the counter
			// increment and the threshold bookkeeping must be one atomic
			// unit under concurrent callers.
			var site models.Site
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&site, "id = ?", siteID).Error; err != nil {
				return fmt.Errorf("failed to get site: %w", err)
			}
			if site.RetiredAt != nil {
				return ErrSiteRetired
			}

			event := models.ShareEvent{
				SiteID:         site.ID,
				Platform:       platform,
				IdempotencyKey: idempotencyKey,
				OccurredAt:     occurredAt,
			}
			if err := tx.Create(&event).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					newCount = site.TotalShares
					return ErrDuplicateEvent
				}
				return fmt.Errorf("failed to append share event: %w", err)
			}

			site.TotalShares++
			if site.ShareCounts == nil {
				site.ShareCounts = models.JSON{}
			}
			site.ShareCounts[string(platform)] = site.PlatformShares(platform) + 1

			if err := tx.Save(&site).Error; err != nil {
				return fmt.Errorf("failed to update share counters: %w", err)
			}

			newCount = site.TotalShares
			return nil
		})
	})

	if err != nil {
		if errors.Is(err, ErrDuplicateEvent) {
			return &ShareResult{Accepted: false, ShareCount: newCount}, nil
		}
		return nil, err
	}

	s.publish(queue.JobTypeShareRecorded, SharePayload{SiteID: siteID, ShareCount: newCount})

	return &ShareResult{Accepted: true, ShareCount: newCount}, nil
}

// RecordPageview adds to a site's raw view counter. Views feed the score
// baseline only, so a plain atomic add is enough.
func (s *Ingestor) RecordPageview(siteID uuid.UUID, delta int64) error {
	if delta <= 0 {
		return fmt.Errorf("pageview delta must be positive, got %d", delta)
	}

	result := s.db.Model(&models.Site{}).
		Where("id = ? AND retired_at IS NULL", siteID).
		Update("views", gorm.Expr("views + ?", delta))
	if result.Error != nil {
		return fmt.Errorf("failed to record pageviews: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordReferralConversion appends the referral edge for a referee who
// just became a paying user. At most one non-churned edge may exist per
// pair; the partial unique index backs the check under races.
func (s *Ingestor) RecordReferralConversion(referrerID, refereeID uuid.UUID, occurredAt time.Time) (*models.ReferralEdge, error) {
	if referrerID == refereeID {
		return nil, fmt.Errorf("user cannot refer themselves")
	}

	edge := models.ReferralEdge{
		ReferrerID:  referrerID,
		RefereeID:   refereeID,
		ConvertedAt: occurredAt,
		Status:      models.ReferralActive,
	}

	err := s.withTransientRetry(func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			var existing models.ReferralEdge
			err := tx.
				Where("referrer_id = ? AND referee_id = ? AND status <> ?", referrerID, refereeID, models.ReferralChurned).
				First(&existing).Error
			if err == nil {
				return ErrDuplicateConversion
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to check existing referral: %w", err)
			}

			if err := tx.Create(&edge).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrDuplicateConversion
				}
				return fmt.Errorf("failed to create referral edge: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.publish(queue.JobTypeReferralConverted, ConversionPayload{ReferrerID: referrerID, EdgeID: edge.ID})

	return &edge, nil
}

// UpdateReferralStatus transitions an edge between pending/active/churned.
// Status is the only mutable field on an edge.
func (s *Ingestor) UpdateReferralStatus(edgeID uuid.UUID, status models.ReferralStatus) error {
	switch status {
	case models.ReferralPending, models.ReferralActive, models.ReferralChurned:
	default:
		return fmt.Errorf("invalid referral status: %s", status)
	}

	result := s.db.Model(&models.ReferralEdge{}).
		Where("id = ?", edgeID).
		Update("status", status)
	if result.Error != nil {
		return fmt.Errorf("failed to update referral status: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RecordPeriodRevenue stores the billing system's revenue report for one
// user and period; commission settlement reads from it.
func (s *Ingestor) RecordPeriodRevenue(userID uuid.UUID, period string, amountMinor int64, currency string) (*models.PeriodRevenue, error) {
	if amountMinor < 0 {
		return nil, fmt.Errorf("period revenue must be non-negative, got %d", amountMinor)
	}

	revenue := models.PeriodRevenue{
		UserID:      userID,
		Period:      period,
		AmountMinor: amountMinor,
		Currency:    currency,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"amount_minor", "currency", "updated_at"}),
	}).Create(&revenue).Error; err != nil {
		return nil, fmt.Errorf("failed to record period revenue: %w", err)
	}
	return &revenue, nil
}

// publish enqueues a notification fire-and-forget. The write it reports
// has already committed; a publish failure is only logged.
func (s *Ingestor) publish(jobType queue.JobType, payload interface{}) {
	if s.queue == nil {
		return
	}
	if _, err := s.queue.EnqueueJob(jobType, payload); err != nil {
		log.Printf("Failed to publish %s notification: %v", jobType, err)
	}
}

// withTransientRetry retries a store operation with backoff. Domain
// sentinels and not-found pass straight through; anything else is treated
// as transient. Exhausted retries surface to the caller, who can resend
// with the same idempotency key.
func (s *Ingestor) withTransientRetry(op func() error) error {
	var err error
	for attempt := 0; attempt < transientRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if errors.Is(err, ErrDuplicateEvent) ||
			errors.Is(err, ErrDuplicateConversion) ||
			errors.Is(err, ErrSiteRetired) ||
			errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		time.Sleep(transientBackoff << attempt)
	}
	return err
}
