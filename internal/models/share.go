package models

import (
	"time"

	"github.com/google/uuid"
)

// SharePlatform identifies the external platform a share was posted to
type SharePlatform string

const (
	PlatformTwitter  SharePlatform = "twitter"
	PlatformFacebook SharePlatform = "facebook"
	PlatformLinkedIn SharePlatform = "linkedin"
	PlatformReddit   SharePlatform = "reddit"
	PlatformWhatsApp SharePlatform = "whatsapp"
)

// KnownPlatforms lists every platform the engine accepts shares for.
var KnownPlatforms = []SharePlatform{
	PlatformTwitter,
	PlatformFacebook,
	PlatformLinkedIn,
	PlatformReddit,
	PlatformWhatsApp,
}

// Valid reports whether the platform is one the engine knows about.
func (p SharePlatform) Valid() bool {
	for _, known := range KnownPlatforms {
		if p == known {
			return true
		}
	}
	return false
}

// ShareEvent is an append-only record of one external share. The
// idempotency key is globally unique; a retried request with the same key
// must not produce a second row or a second counter increment.
type ShareEvent struct {
	Base
	SiteID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"site_id"`
	Site           Site          `gorm:"foreignKey:SiteID" json:"-"`
	Platform       SharePlatform `gorm:"type:varchar(20);not null" json:"platform"`
	IdempotencyKey string        `gorm:"type:varchar(128);uniqueIndex;not null" json:"idempotency_key"`
	OccurredAt     time.Time     `gorm:"not null;index" json:"occurred_at"`
}
