package migrations

import (
	"fmt"
	"log"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrationsList is populated by each migration file's init
var migrationsList []*gormigrate.Migration

// RunMigrations applies the schema migrations in order. The ledger's
// uniqueness indexes live here, so the engine must not come up if any
// step fails.
func RunMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrationsList)

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	log.Printf("Applied %d schema migration(s)", len(migrationsList))
	return nil
}
