package commission

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sitespark/backend/internal/config"
	"github.com/sitespark/backend/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrDuplicatePeriod means the (edge, period) pair has already been
	// settled. Callers treat it as "already applied", not a failure.
	ErrDuplicatePeriod = errors.New("commission period already settled")

	// ErrInvariantViolation indicates a bug, not bad input. It must never
	// be retried into silence.
	ErrInvariantViolation = errors.New("commission invariant violation")
)

// Service computes and settles referral commissions
type Service struct {
	db  *gorm.DB
	cfg config.CommissionConfig
}

// NewService creates a new commission service
func NewService(db *gorm.DB, cfg config.CommissionConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// Rate returns the commission rate in basis points for a referral
// relationship of the given age. The schedule is a step function that
// never decreases with age.
func (s *Service) Rate(ageYears float64) int {
	rate := s.cfg.Breakpoints[0].RateBps
	for _, bp := range s.cfg.Breakpoints {
		if ageYears >= bp.MinAgeYears {
			rate = bp.RateBps
		}
	}
	return rate
}

// Payable computes the commission owed on a period's revenue at the given
// rate, in minor currency units. Rounding is half-even so that many small
// entries carry no systematic bias.
func Payable(baseMinor int64, rateBps int) int64 {
	if baseMinor <= 0 || rateBps <= 0 {
		return 0
	}

	// Split the base before multiplying. base*rate would overflow int64
	// for revenue above ~9.2e14 minor units; the decomposition keeps every
	// intermediate inside int64 for the whole range while producing the
	// exact same quotient and remainder.
	rate := int64(rateBps)
	quotient := baseMinor / 10000 * rate
	remainder := baseMinor % 10000 * rate
	quotient += remainder / 10000
	remainder %= 10000

	switch {
	case remainder*2 > 10000:
		quotient++
	case remainder*2 == 10000:
		// Exactly halfway: round to even.
		if quotient%2 != 0 {
			quotient++
		}
	}
	return quotient
}

// SettlePeriod appends the commission ledger entry for one referral edge
// and one billing period. The unique index on (edge, period, kind) is the
// store-level guard: a concurrent or retried settlement of the same period
// comes back as ErrDuplicatePeriod with the existing entry.
func (s *Service) SettlePeriod(edgeID uuid.UUID, period string, baseMinor int64, now time.Time) (*models.CommissionEntry, error) {
	if baseMinor < 0 {
		return nil, fmt.Errorf("%w: negative period revenue %d for edge %s", ErrInvariantViolation, baseMinor, edgeID)
	}

	var edge models.ReferralEdge
	if err := s.db.First(&edge, "id = ?", edgeID).Error; err != nil {
		return nil, fmt.Errorf("failed to get referral edge: %w", err)
	}

	// The rate is read once at settlement time from the edge's age. A
	// period that was already settled at an older rate is never re-rated.
	rateBps := s.Rate(edge.AgeYears(now))
	payable := Payable(baseMinor, rateBps)
	if payable < 0 || payable > baseMinor {
		return nil, fmt.Errorf("%w: payable %d outside [0, %d]", ErrInvariantViolation, payable, baseMinor)
	}

	settledAt := now
	entry := models.CommissionEntry{
		EdgeID:       edge.ID,
		ReferrerID:   edge.ReferrerID,
		Period:       period,
		Kind:         models.CommissionEntryOriginal,
		RateBps:      rateBps,
		BaseMinor:    baseMinor,
		PayableMinor: payable,
		Currency:     "USD",
		Status:       models.CommissionSettled,
		SettledAt:    &settledAt,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.CommissionEntry
			findErr := s.db.
				Where("edge_id = ? AND period = ? AND kind = ?", edge.ID, period, models.CommissionEntryOriginal).
				First(&existing).Error
			if findErr != nil {
				return nil, fmt.Errorf("failed to load existing commission entry: %w", findErr)
			}
			return &existing, ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("failed to create commission entry: %w", err)
	}

	return &entry, nil
}

// Reverse appends a correcting entry for a previously settled period. The
// original row is left untouched so the ledger stays auditable.
func (s *Service) Reverse(entryID uuid.UUID, now time.Time) (*models.CommissionEntry, error) {
	var original models.CommissionEntry
	if err := s.db.First(&original, "id = ?", entryID).Error; err != nil {
		return nil, fmt.Errorf("failed to get commission entry: %w", err)
	}
	if original.Kind != models.CommissionEntryOriginal {
		return nil, fmt.Errorf("%w: cannot reverse a reversal entry %s", ErrInvariantViolation, entryID)
	}

	settledAt := now
	reversal := models.CommissionEntry{
		EdgeID:       original.EdgeID,
		ReferrerID:   original.ReferrerID,
		Period:       original.Period,
		Kind:         models.CommissionEntryReversal,
		RateBps:      original.RateBps,
		BaseMinor:    original.BaseMinor,
		PayableMinor: original.PayableMinor,
		Currency:     original.Currency,
		Status:       models.CommissionSettled,
		ReversesID:   &original.ID,
		SettledAt:    &settledAt,
	}

	if err := s.db.Create(&reversal).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicatePeriod
		}
		return nil, fmt.Errorf("failed to create reversal entry: %w", err)
	}

	return &reversal, nil
}

// Summary is the referrer-facing rollup of commission state
type Summary struct {
	TotalEarnedMinor   int64  `json:"total_earned_minor"`
	PendingPeriodMinor int64  `json:"pending_period_minor"`
	CurrentRateBps     int    `json:"current_rate_bps"`
	ActiveReferrals    int64  `json:"active_referrals"`
	Currency           string `json:"currency"`
}

// GetSummary computes a referrer's commission summary: lifetime earnings
// net of reversals, the not-yet-settled current period, and the rate their
// oldest active relationship currently earns.
func (s *Service) GetSummary(referrerID uuid.UUID, now time.Time) (*Summary, error) {
	summary := &Summary{Currency: "USD"}

	type totalRow struct {
		Kind  models.CommissionEntryKind
		Total int64
	}
	var totals []totalRow
	err := s.db.Model(&models.CommissionEntry{}).
		Select("kind, COALESCE(SUM(payable_minor), 0) AS total").
		Where("referrer_id = ? AND status = ?", referrerID, models.CommissionSettled).
		Group("kind").
		Find(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("failed to sum commission entries: %w", err)
	}
	for _, row := range totals {
		if row.Kind == models.CommissionEntryReversal {
			summary.TotalEarnedMinor -= row.Total
		} else {
			summary.TotalEarnedMinor += row.Total
		}
	}
	if summary.TotalEarnedMinor < 0 {
		summary.TotalEarnedMinor = 0
	}

	var edges []models.ReferralEdge
	err = s.db.
		Where("referrer_id = ? AND status = ?", referrerID, models.ReferralActive).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load referral edges: %w", err)
	}
	summary.ActiveReferrals = int64(len(edges))

	// Current rate reflects the oldest active relationship; with none
	// active it falls back to the entry rate.
	summary.CurrentRateBps = s.cfg.Breakpoints[0].RateBps
	pendingPeriod := now.Format("2006-01")
	for i := range edges {
		if rate := s.Rate(edges[i].AgeYears(now)); rate > summary.CurrentRateBps {
			summary.CurrentRateBps = rate
		}

		var revenue models.PeriodRevenue
		err := s.db.
			Where("user_id = ? AND period = ?", edges[i].RefereeID, pendingPeriod).
			First(&revenue).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, fmt.Errorf("failed to load period revenue: %w", err)
		}
		summary.PendingPeriodMinor += Payable(revenue.AmountMinor, s.Rate(edges[i].AgeYears(now)))
	}

	return summary, nil
}
