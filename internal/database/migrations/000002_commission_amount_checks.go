package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// Commission amounts must never go negative; a reversal is a positive
// amount on a reversal-kind row.
func commissionAmountChecksMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_commission_amount_checks",
		Migrate: func(tx *gorm.DB) error {
			statements := []string{
				`ALTER TABLE commission_entries
					ADD CONSTRAINT chk_commission_base_non_negative CHECK (base_minor >= 0)`,
				`ALTER TABLE commission_entries
					ADD CONSTRAINT chk_commission_payable_non_negative CHECK (payable_minor >= 0)`,
				`ALTER TABLE commission_entries
					ADD CONSTRAINT chk_commission_payable_bounded CHECK (payable_minor <= base_minor)`,
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
				`ALTER TABLE commission_entries DROP CONSTRAINT IF EXISTS chk_commission_payable_bounded`,
				`ALTER TABLE commission_entries DROP CONSTRAINT IF EXISTS chk_commission_payable_non_negative`,
				`ALTER TABLE commission_entries DROP CONSTRAINT IF EXISTS chk_commission_base_non_negative`,
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
	migrationsList = append(migrationsList, commissionAmountChecksMigration())
}
