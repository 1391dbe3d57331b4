package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// The uniqueness constraints below are correctness invariants, not
// optimizations: exactly-once share recording, one milestone per (user,
// type), one commission entry per (edge, period, kind) and one non-churned
// edge per (referrer, referee) all rest on the store rejecting the second
// insert. They are created here with raw SQL so they exist even if
// AutoMigrate semantics change.
func createLedgerIndexesMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_ledger_indexes",
		Migrate: func(tx *gorm.DB) error {
			statements := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_share_events_idempotency_key
					ON share_events (idempotency_key)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_milestone_user_type
					ON milestone_records (user_id, type)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_commission_edge_period_kind
					ON commission_entries (edge_id, period, kind)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_period_revenue_user_period
					ON period_revenues (user_id, period)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_referral_edges_active_pair
					ON referral_edges (referrer_id, referee_id)
					WHERE status <> 'churned' AND deleted_at IS NULL`,
			}
			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			statements := []string{
				`DROP INDEX IF EXISTS idx_referral_edges_active_pair`,
				`DROP INDEX IF EXISTS idx_period_revenue_user_period`,
				`DROP INDEX IF EXISTS idx_commission_edge_period_kind`,
				`DROP INDEX IF EXISTS idx_milestone_user_type`,
				`DROP INDEX IF EXISTS idx_share_events_idempotency_key`,
			}
			for _, stmt := range statements {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createLedgerIndexesMigration())
}
