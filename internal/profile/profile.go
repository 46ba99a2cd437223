// Package profile stores user display metadata. Balances live in the ledger;
// this package never touches them.
package profile

import (
	"context"
	"errors"
)

// ErrNotFound indicates no stored profile for the user.
var ErrNotFound = errors.New("profile not found")

// Profile is a user's display metadata.
type Profile struct {
	UserID      string
	DisplayName string
	Email       string
	Avatar      string
}

// Repository persists profiles.
type Repository interface {
	Get(ctx context.Context, userID string) (Profile, error)
	Upsert(ctx context.Context, p Profile) error
}
