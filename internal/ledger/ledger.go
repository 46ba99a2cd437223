// Package ledger persists reward grants as an append-only ledger with a cached
// per-user balance. Entries are never updated or deleted; the balance column is
// a projection equal to the sum of the user's entry amounts, maintained inside
// the same transaction that appends the entry.
package ledger

import (
	"context"
	"errors"
)

var (
	// ErrTransactionFailed indicates the grant transaction rolled back and left
	// no partial state. The whole claim is safe to resubmit.
	ErrTransactionFailed = errors.New("ledger transaction failed")

	// ErrCapExceeded indicates an in-transaction cap guard tripped: committing
	// the grant would have pushed a window sum past its cap.
	ErrCapExceeded = errors.New("window cap exceeded")

	// ErrAccountNotFound indicates a balance lookup for an unknown user.
	ErrAccountNotFound = errors.New("account not found")
)

const (
	// KindWatch marks entries credited for watch time.
	KindWatch = "watch"
	// KindAdReward marks entries credited for verified rewarded ads.
	KindAdReward = "ad_reward"
)

// Entry is one immutable ledger record.
type Entry struct {
	ID              int64
	UserID          string
	Kind            string
	Amount          int64
	SubjectID       string
	Units           int64
	TimestampMillis int64
	Metadata        map[string]string
}

// Grant captures a decided credit about to be committed. SubjectID and Units
// are meaningful for watch grants only and stored as NULL otherwise.
type Grant struct {
	UserID          string
	Kind            string
	Amount          int64
	SubjectID       string
	Units           int64
	TimestampMillis int64
	Metadata        map[string]string
}

// CapGuard re-validates a trailing window sum inside the commit transaction,
// after the user's balance row is locked. Two concurrent claims that both
// passed a pre-commit cap check against the same stale sum cannot jointly
// overshoot: the second observes the first's entry and trips the guard.
type CapGuard struct {
	SinceMillis int64
	MaxUnits    int64
}

// Store is the contract implemented by ledger backends.
type Store interface {
	// EnsureAccount creates a zero-balance account if absent. It never
	// overwrites an existing balance.
	EnsureAccount(ctx context.Context, userID string) error

	// Balance returns the cached balance for the user. Unknown users yield
	// ErrAccountNotFound, never a silent zero.
	Balance(ctx context.Context, userID string) (int64, error)

	// SumUnits sums the units column over entries of the given kind strictly
	// after sinceMillis.
	SumUnits(ctx context.Context, userID, kind string, sinceMillis int64) (int64, error)

	// CountEntries counts entries of the given kind strictly after sinceMillis.
	CountEntries(ctx context.Context, userID, kind string, sinceMillis int64) (int64, error)

	// CommitGrant atomically appends one entry and adjusts the balance,
	// returning the post-commit balance read inside the same transaction.
	// Guards are evaluated against grant.Kind under the user's row lock;
	// a tripped guard aborts with ErrCapExceeded. Any other failure rolls
	// back completely and surfaces ErrTransactionFailed.
	CommitGrant(ctx context.Context, grant Grant, guards ...CapGuard) (int64, error)
}
