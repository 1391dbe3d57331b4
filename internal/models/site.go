package models

import (
	"time"

	"github.com/google/uuid"
)

// Site represents a generated site tracked by the growth engine. Sites are
// never hard-deleted; retiring a site clears it from ranking but keeps its
// event history.
type Site struct {
	Base
	OwnerID uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Owner   User      `gorm:"foreignKey:OwnerID" json:"-"`
	Name    string    `gorm:"type:varchar(255);not null" json:"name"`
	Slug    string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"slug"`
	Tier    Tier      `gorm:"type:varchar(10);not null;default:'free'" json:"tier"`

	// Cumulative engagement counters. These are the counters of record:
	// nothing outside a single request/job may cache them.
	Views       int64 `gorm:"not null;default:0" json:"views"`
	TotalShares int64 `gorm:"not null;default:0" json:"total_shares"`
	ShareCounts JSON  `gorm:"type:jsonb" json:"share_counts"`

	// LastTriggeredMultiple records the highest share-count multiple that
	// has already fired an auto-featuring window, so redelivered
	// notifications cannot fire the same crossing twice.
	LastTriggeredMultiple int64      `gorm:"not null;default:0" json:"last_triggered_multiple"`
	AutoFeaturedUntil     *time.Time `json:"auto_featured_until,omitempty"`
	ShowcaseEligible      bool       `gorm:"not null;default:false;index" json:"showcase_eligible"`
	RetiredAt             *time.Time `json:"retired_at,omitempty"`
}

// EligibleForShowcase reports whether the site may appear in the showcase
// right now. The stored flag is necessary but not sufficient: it is set
// when a pro grant arrives and only cleared by the reconciliation sweep,
// so the pro standing behind it must be re-checked against the clock.
func (s *Site) EligibleForShowcase(now time.Time) bool {
	if !s.ShowcaseEligible || s.RetiredAt != nil {
		return false
	}
	if s.Tier == TierPro {
		return true
	}
	return s.Owner.EffectiveTier(now) == TierPro
}

// IsFeatured reports whether the site is inside an auto-featuring window.
func (s *Site) IsFeatured(now time.Time) bool {
	return s.AutoFeaturedUntil != nil && s.AutoFeaturedUntil.After(now)
}

// PlatformShares returns the recorded share count for one platform.
func (s *Site) PlatformShares(platform SharePlatform) int64 {
	if s.ShareCounts == nil {
		return 0
	}
	v, ok := s.ShareCounts[string(platform)]
	if !ok {
		return 0
	}
	// jsonb round-trips numbers as float64
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	}
	return 0
}
