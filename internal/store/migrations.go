package store

import (
	"context"
	"database/sql"
)

// schema contains the DDL for all tables.
// Each statement uses IF NOT EXISTS for idempotency.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ingestions (
		id         TEXT PRIMARY KEY,
		priority   TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS batches (
		id           TEXT PRIMARY KEY,
		ingestion_id TEXT NOT NULL REFERENCES ingestions(id) ON DELETE CASCADE,
		seq          INTEGER NOT NULL DEFAULT 0,
		ids          TEXT NOT NULL,
		status       TEXT NOT NULL DEFAULT 'pending',
		created_at   TEXT NOT NULL
	)`,

	`CREATE INDEX IF NOT EXISTS idx_ingestions_created_at ON ingestions(created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_batches_ingestion_id ON batches(ingestion_id)`,
	`CREATE INDEX IF NOT EXISTS idx_batches_status ON batches(status)`,
}

// migrate executes all schema DDL statements.
func migrate(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
