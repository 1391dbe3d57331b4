package models

import (
	"time"
)

// Tier identifies a user's (and by extension a site's) subscription level
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// User is the engine's local view of a platform user. Profile data lives
// with the auth service; the engine only keeps what scoring, featuring and
// commissions need.
type User struct {
	Base
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Tier         Tier       `gorm:"type:varchar(10);not null;default:'free'" json:"tier"`
	ProUntil     *time.Time `json:"pro_until,omitempty"`
	ReferralCode string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"referral_code"`
}

// EffectiveTier resolves the tier taking a time-bounded pro grant into account.
func (u *User) EffectiveTier(now time.Time) Tier {
	if u.Tier == TierPro {
		return TierPro
	}
	if u.ProUntil != nil && u.ProUntil.After(now) {
		return TierPro
	}
	return TierFree
}
