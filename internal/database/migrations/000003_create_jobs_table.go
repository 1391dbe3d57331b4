package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

func createJobsTableMigration() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_jobs_table",
		Migrate: func(tx *gorm.DB) error {
			// Jobs table for the queue system
			return tx.Exec(`
				CREATE TABLE IF NOT EXISTS jobs (
					id UUID PRIMARY KEY,
					type VARCHAR(100) NOT NULL,
					payload JSONB,
					status VARCHAR(50) NOT NULL DEFAULT 'pending',
					retry_count INT NOT NULL DEFAULT 0,
					max_retries INT NOT NULL DEFAULT 3,
					next_retry TIMESTAMP WITH TIME ZONE,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
					error TEXT,
					result JSONB
				)
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS jobs").Error
		},
	}
}

func init() {
	migrationsList = append(migrationsList, createJobsTableMigration())
}
