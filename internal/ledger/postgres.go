package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists ledger entries and balances in PostgreSQL.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore constructs a Postgres-backed ledger store.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureAccount guarantees a zero-balance account row exists for the user.
func (s *PostgresStore) EnsureAccount(ctx context.Context, userID string) error {
	_, err := s.db.Exec(ctx, `INSERT INTO users (id, balance) VALUES ($1, 0)
        ON CONFLICT (id) DO NOTHING`, userID)
	if err != nil {
		return fmt.Errorf("ensure account %s: %w", userID, err)
	}
	return nil
}

// Balance returns the cached balance for the user.
func (s *PostgresStore) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrAccountNotFound
		}
		return 0, fmt.Errorf("balance %s: %w", userID, err)
	}
	return balance, nil
}

// SumUnits sums credited units of the given kind strictly after sinceMillis.
func (s *PostgresStore) SumUnits(ctx context.Context, userID, kind string, sinceMillis int64) (int64, error) {
	return sumUnits(ctx, s.db, userID, kind, sinceMillis)
}

// CountEntries counts entries of the given kind strictly after sinceMillis.
func (s *PostgresStore) CountEntries(ctx context.Context, userID, kind string, sinceMillis int64) (int64, error) {
	const query = `
        SELECT COUNT(*)
        FROM ledger_entries
        WHERE user_id = $1 AND kind = $2 AND ts_ms > $3`
	var count int64
	if err := s.db.QueryRow(ctx, query, userID, kind, sinceMillis).Scan(&count); err != nil {
		return 0, fmt.Errorf("count entries %s/%s: %w", userID, kind, err)
	}
	return count, nil
}

// CommitGrant appends one entry and adjusts the balance in a single
// transaction. The user's balance row is locked FOR UPDATE first, serializing
// concurrent grants per user; cap guards are then re-evaluated against the
// committed ledger so a stale pre-commit window sum can never overshoot a cap.
func (s *PostgresStore) CommitGrant(ctx context.Context, grant Grant, guards ...CapGuard) (int64, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %v", ErrTransactionFailed, err)
	}
	defer tx.Rollback(ctx) // nolint:errcheck

	var balance int64
	if err := tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, grant.UserID).Scan(&balance); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("%w: account %s not found", ErrTransactionFailed, grant.UserID)
		}
		return 0, fmt.Errorf("%w: lock account: %v", ErrTransactionFailed, err)
	}

	for _, guard := range guards {
		sum, err := sumUnits(ctx, tx, grant.UserID, grant.Kind, guard.SinceMillis)
		if err != nil {
			return 0, fmt.Errorf("%w: guard sum: %v", ErrTransactionFailed, err)
		}
		if sum+grant.Units > guard.MaxUnits {
			return 0, ErrCapExceeded
		}
	}

	var subjectID *string
	if grant.SubjectID != "" {
		subjectID = &grant.SubjectID
	}
	var units *int64
	if grant.Kind == KindWatch {
		units = &grant.Units
	}

	const insertEntry = `
        INSERT INTO ledger_entries (user_id, kind, amount, subject_id, units, ts_ms, metadata)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := tx.Exec(ctx, insertEntry, grant.UserID, grant.Kind, grant.Amount, subjectID, units, grant.TimestampMillis, grant.Metadata); err != nil {
		return 0, fmt.Errorf("%w: insert entry: %v", ErrTransactionFailed, err)
	}

	var newBalance int64
	const updateBalance = `UPDATE users SET balance = balance + $1 WHERE id = $2 RETURNING balance`
	if err := tx.QueryRow(ctx, updateBalance, grant.Amount, grant.UserID).Scan(&newBalance); err != nil {
		return 0, fmt.Errorf("%w: update balance: %v", ErrTransactionFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %v", ErrTransactionFailed, err)
	}

	return newBalance, nil
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func sumUnits(ctx context.Context, q queryRower, userID, kind string, sinceMillis int64) (int64, error) {
	const query = `
        SELECT COALESCE(SUM(units), 0)
        FROM ledger_entries
        WHERE user_id = $1 AND kind = $2 AND ts_ms > $3`
	var sum int64
	if err := q.QueryRow(ctx, query, userID, kind, sinceMillis).Scan(&sum); err != nil {
		return 0, fmt.Errorf("sum units %s/%s: %w", userID, kind, err)
	}
	return sum, nil
}
