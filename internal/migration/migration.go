package migration

import (
	"context"

	"gocnwi/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner handles database schema migrations
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{
		version: "1.1.0",
	}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Statements returns the schema statements in the order Run applies them
func (r *MigrationRunner) Statements() []string {
	return []string{createReportsTable, addReportsInputHash, createReportIndexes}
}

// Run executes all database migrations in the correct order
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	steps := []struct {
		name string
		sql  string
	}{
		{"create reports table", createReportsTable},
		{"add reports input_hash column", addReportsInputHash},
		{"create report indexes", createReportIndexes},
	}

	for _, step := range steps {
		if _, err := db.ExecContext(ctx, step.sql); err != nil {
			return errors.DatabaseError("failed to "+step.name, err)
		}
	}
	return nil
}

const createReportsTable = `
	CREATE TABLE IF NOT EXISTS reports (
		id UUID PRIMARY KEY,
		kind VARCHAR(32) NOT NULL,
		name VARCHAR(255) NOT NULL,
		payload JSONB NOT NULL,
		markdown TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)
`

// reports created before 1.1.0 have no input fingerprint
const addReportsInputHash = `
	DO $$
	BEGIN
		IF NOT EXISTS (
			SELECT 1 FROM information_schema.columns
			WHERE table_name = 'reports' AND column_name = 'input_hash'
		) THEN
			ALTER TABLE reports ADD COLUMN input_hash VARCHAR(64);
		END IF;
	END $$;
`

const createReportIndexes = `
	CREATE INDEX IF NOT EXISTS idx_reports_kind ON reports(kind);
	CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_reports_input_hash ON reports(input_hash);
`
