package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository stores profiles in PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a repository backed by PostgreSQL.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Migrate applies the profile schema.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	const stmt = `CREATE TABLE IF NOT EXISTS profiles (
        user_id TEXT PRIMARY KEY,
        display_name TEXT NOT NULL,
        email TEXT NOT NULL DEFAULT '',
        avatar TEXT NOT NULL DEFAULT ''
    )`
	if _, err := db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply profile migration: %w", err)
	}
	return nil
}

// Get fetches a profile by user id.
func (r *PostgresRepository) Get(ctx context.Context, userID string) (Profile, error) {
	const query = `SELECT user_id, display_name, email, avatar FROM profiles WHERE user_id = $1`
	var p Profile
	if err := r.db.QueryRow(ctx, query, userID).Scan(&p.UserID, &p.DisplayName, &p.Email, &p.Avatar); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("get profile %s: %w", userID, err)
	}
	return p, nil
}

// Upsert inserts or updates a profile record.
func (r *PostgresRepository) Upsert(ctx context.Context, p Profile) error {
	const stmt = `INSERT INTO profiles (user_id, display_name, email, avatar)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE
        SET display_name = EXCLUDED.display_name,
            email = EXCLUDED.email,
            avatar = EXCLUDED.avatar`
	if _, err := r.db.Exec(ctx, stmt, p.UserID, p.DisplayName, p.Email, p.Avatar); err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.UserID, err)
	}
	return nil
}
