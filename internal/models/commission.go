package models

import (
	"time"

	"github.com/google/uuid"
)

// CommissionEntryKind distinguishes original entries from corrections
type CommissionEntryKind string

const (
	CommissionEntryOriginal CommissionEntryKind = "entry"
	CommissionEntryReversal CommissionEntryKind = "reversal"
)

// CommissionEntryStatus tracks settlement of one entry
type CommissionEntryStatus string

const (
	CommissionPending CommissionEntryStatus = "pending"
	CommissionSettled CommissionEntryStatus = "settled"
	CommissionVoided  CommissionEntryStatus = "voided"
)

// CommissionEntry is an append-only ledger row: one commission computed for
// one referral edge and one billing period. Rows are never updated or
// deleted; corrections append a reversal row that references the original.
// The unique index on (edge, period, kind) is the store-level guard against
// double settlement.
type CommissionEntry struct {
	Base
	EdgeID       uuid.UUID             `gorm:"type:uuid;not null;index;uniqueIndex:idx_commission_edge_period_kind" json:"edge_id"`
	Edge         ReferralEdge          `gorm:"foreignKey:EdgeID" json:"-"`
	ReferrerID   uuid.UUID             `gorm:"type:uuid;not null;index" json:"referrer_id"`
	Period       string                `gorm:"type:varchar(7);not null;uniqueIndex:idx_commission_edge_period_kind" json:"period"`
	Kind         CommissionEntryKind   `gorm:"type:varchar(10);not null;default:'entry';uniqueIndex:idx_commission_edge_period_kind" json:"kind"`
	RateBps      int                   `gorm:"not null" json:"rate_bps"`
	BaseMinor    int64                 `gorm:"not null" json:"base_minor"`
	PayableMinor int64                 `gorm:"not null" json:"payable_minor"`
	Currency     string                `gorm:"type:varchar(3);not null;default:'USD'" json:"currency"`
	Status       CommissionEntryStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ReversesID   *uuid.UUID            `gorm:"type:uuid" json:"reverses_id,omitempty"`
	SettledAt    *time.Time            `json:"settled_at,omitempty"`
}
