package ledger

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id TEXT PRIMARY KEY,
        balance BIGINT NOT NULL DEFAULT 0
    )`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
        id BIGSERIAL PRIMARY KEY,
        user_id TEXT NOT NULL REFERENCES users(id),
        kind TEXT NOT NULL,
        amount BIGINT NOT NULL,
        subject_id TEXT,
        units BIGINT,
        ts_ms BIGINT NOT NULL,
        metadata JSONB
    )`,
	`CREATE INDEX IF NOT EXISTS idx_ledger_entries_window
        ON ledger_entries (user_id, kind, ts_ms)`,
}

// Migrate applies the ledger schema. Statements are idempotent so repeated
// startup runs are safe.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
