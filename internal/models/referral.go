package models

import (
	"time"

	"github.com/google/uuid"
)

// ReferralStatus tracks the lifecycle of a referral relationship
type ReferralStatus string

const (
	ReferralPending ReferralStatus = "pending"
	ReferralActive  ReferralStatus = "active"
	ReferralChurned ReferralStatus = "churned"
)

// ReferralEdge records that a referrer converted a referee into a paying
// user. Created once at conversion; only the status ever changes. At most
// one non-churned edge may exist per (referrer, referee) pair, enforced by
// a partial unique index in the migrations.
type ReferralEdge struct {
	Base
	ReferrerID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"referrer_id"`
	Referrer    User           `gorm:"foreignKey:ReferrerID" json:"-"`
	RefereeID   uuid.UUID      `gorm:"type:uuid;not null;index" json:"referee_id"`
	Referee     User           `gorm:"foreignKey:RefereeID" json:"-"`
	ConvertedAt time.Time      `gorm:"not null" json:"converted_at"`
	Status      ReferralStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
}

// AgeYears returns the age of the relationship in fractional years.
func (e *ReferralEdge) AgeYears(now time.Time) float64 {
	if now.Before(e.ConvertedAt) {
		return 0
	}
	return now.Sub(e.ConvertedAt).Hours() / (365.25 * 24)
}

// PeriodRevenue is the billing system's report of how much revenue a
// referee generated in one billing period. Commission settlement reads
// from it; one row per (user, period).
type PeriodRevenue struct {
	Base
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_period_revenue_user_period" json:"user_id"`
	User        User      `gorm:"foreignKey:UserID" json:"-"`
	Period      string    `gorm:"type:varchar(7);not null;uniqueIndex:idx_period_revenue_user_period" json:"period"`
	AmountMinor int64     `gorm:"not null" json:"amount_minor"`
	Currency    string    `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
}
