package models

import (
	"time"

	"github.com/google/uuid"
)

// MilestoneType names a one-time reward threshold
type MilestoneType string

const (
	// MilestoneTenReferralsFreePro grants a year of pro when a referrer
	// reaches ten active referrals.
	MilestoneTenReferralsFreePro MilestoneType = "10-referrals-free-pro"
)

// MilestoneRecord is the idempotency guard for one-time rewards: the
// unique index on (user, type) means a concurrent second insert fails and
// the reward is applied exactly once. Append-only.
type MilestoneRecord struct {
	Base
	UserID  uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_milestone_user_type" json:"user_id"`
	User    User          `gorm:"foreignKey:UserID" json:"-"`
	Type    MilestoneType `gorm:"type:varchar(50);not null;uniqueIndex:idx_milestone_user_type" json:"type"`
	FiredAt time.Time     `gorm:"not null" json:"fired_at"`
}
