package models

import (
	"time"

	"github.com/google/uuid"
)

// ShowcaseEntry is a derived ranking row. The ranker replaces the whole
// set in one transaction on every run; entries are never patched in place,
// so a reader always sees one complete generation.
type ShowcaseEntry struct {
	Base
	GenerationID uuid.UUID `gorm:"type:uuid;not null;index" json:"generation_id"`
	SiteID       uuid.UUID `gorm:"type:uuid;not null;index" json:"site_id"`
	Site         Site      `gorm:"foreignKey:SiteID" json:"site"`
	Rank         int       `gorm:"not null" json:"rank"`
	Score        float64   `gorm:"not null" json:"score"`
	GeneratedAt  time.Time `gorm:"not null" json:"generated_at"`
}
