// Package rewards orchestrates reward claims: rate-limit admission, accrual
// policy, the ledger transaction and receipt signing. The engine is stateless
// and safe for concurrent use; per-user serialization happens in the ledger.
package rewards

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ImeldaHope/Vertix/internal/adprovider"
	"github.com/ImeldaHope/Vertix/internal/counter"
	"github.com/ImeldaHope/Vertix/internal/ledger"
	"github.com/ImeldaHope/Vertix/internal/notification"
	"github.com/ImeldaHope/Vertix/internal/policy"
	"github.com/ImeldaHope/Vertix/internal/receipt"
)

const (
	// AnonymousUser is the pseudo-user claims fall back to when the caller's
	// identity cannot be resolved. Policy applies to it like any other key.
	AnonymousUser = "anonymous"

	watchClaimsPerMinute = 60

	cooldownKeyPrefix = "ad_cooldown:"
)

var (
	// ErrRateLimited denies a claim at the per-minute admission counter.
	// Transient; the caller may retry after backoff.
	ErrRateLimited = errors.New("rate limited")

	// ErrCooldownActive denies an ad reward while the single-use cooldown
	// lock for the user is held.
	ErrCooldownActive = errors.New("ad cooldown active")

	// ErrAdDailyLimit denies an ad reward once the per-day grant count is
	// exhausted.
	ErrAdDailyLimit = errors.New("daily ad reward limit reached")

	// ErrInvalidProviderToken rejects a client ad claim whose token failed
	// provider verification. Never retryable with the same token.
	ErrInvalidProviderToken = errors.New("invalid provider token")

	// ErrMissingFields rejects a claim with absent or malformed required
	// fields. The caller must correct the input.
	ErrMissingFields = errors.New("missing required fields")
)

// AdPolicy holds the rewarded ad placement rules the engine enforces.
type AdPolicy struct {
	RewardAmount int64
	Cooldown     time.Duration
	MaxPerDay    int64
}

// WatchClaim reports watch time for a video.
type WatchClaim struct {
	UserID          string
	VideoID         string
	SecondsWatched  int64
	ClientTimestamp int64
}

// AdClaim presents a provider token after a rewarded ad completes.
type AdClaim struct {
	UserID        string
	Provider      string
	ProviderToken string
	AdUnitID      string
}

// WebhookGrant is a pre-verified grant pushed by an ad provider callback.
type WebhookGrant struct {
	UserID       string
	ProviderID   string
	RewardAmount int64
}

// GrantResult is the outcome of an accepted claim. A zero-credit acceptance
// carries Credited == 0, a Reason and no receipt.
type GrantResult struct {
	Credited int64
	Balance  int64
	Receipt  *receipt.Receipt
	Reason   string
}

// Engine decides, records and signs reward grants.
type Engine struct {
	counters counter.Store
	store    ledger.Store
	signer   *receipt.Signer
	verifier adprovider.Verifier
	notifier notification.Notifier
	logger   *slog.Logger
	adPolicy AdPolicy

	now func() time.Time
}

// NewEngine wires an Engine from its collaborators.
func NewEngine(counters counter.Store, store ledger.Store, signer *receipt.Signer, verifier adprovider.Verifier, notifier notification.Notifier, adPolicy AdPolicy, logger *slog.Logger) *Engine {
	return &Engine{
		counters: counters,
		store:    store,
		signer:   signer,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
		adPolicy: adPolicy,
		now:      time.Now,
	}
}

// ClaimWatch runs a watch-time claim through admission, policy and commit.
func (e *Engine) ClaimWatch(ctx context.Context, claim WatchClaim) (GrantResult, error) {
	userID := claim.UserID
	if userID == "" {
		userID = AnonymousUser
	}
	if claim.VideoID == "" {
		return GrantResult{}, fmt.Errorf("%w: videoId", ErrMissingFields)
	}

	allowed, err := e.counters.Admit(ctx, "watch:"+userID, watchClaimsPerMinute, time.Minute)
	if err != nil {
		// Counter store failure denies admission rather than opening the
		// claim path during an outage.
		e.logger.Error("claim admission counter unavailable", "user_id", userID, "error", err)
		return GrantResult{}, ErrRateLimited
	}
	if !allowed {
		return GrantResult{}, ErrRateLimited
	}

	now := e.now()
	nowMillis := now.UnixMilli()
	hourAgo := now.Add(-time.Hour).UnixMilli()
	dayAgo := now.Add(-24 * time.Hour).UnixMilli()

	lastHour, err := e.store.SumUnits(ctx, userID, ledger.KindWatch, hourAgo)
	if err != nil {
		return GrantResult{}, fmt.Errorf("query hour window: %w", err)
	}
	lastDay, err := e.store.SumUnits(ctx, userID, ledger.KindWatch, dayAgo)
	if err != nil {
		return GrantResult{}, fmt.Errorf("query day window: %w", err)
	}

	decision, err := policy.EvaluateWatch(claim.SecondsWatched, lastHour, lastDay)
	if err != nil {
		return GrantResult{}, err
	}

	if decision.Coins == 0 {
		// Legitimate claim, nothing to credit: no ledger entry, no receipt.
		if err := e.store.EnsureAccount(ctx, userID); err != nil {
			return GrantResult{}, err
		}
		balance, err := e.store.Balance(ctx, userID)
		if err != nil {
			return GrantResult{}, fmt.Errorf("balance after zero credit: %w", err)
		}
		return GrantResult{Credited: 0, Balance: balance, Reason: "too_short_for_credit"}, nil
	}

	if err := e.store.EnsureAccount(ctx, userID); err != nil {
		return GrantResult{}, err
	}

	grant := ledger.Grant{
		UserID:          userID,
		Kind:            ledger.KindWatch,
		Amount:          decision.Coins,
		SubjectID:       claim.VideoID,
		Units:           decision.CreditedSeconds,
		TimestampMillis: nowMillis,
		Metadata: map[string]string{
			"clientTs": strconv.FormatInt(claim.ClientTimestamp, 10),
		},
	}
	guards := []ledger.CapGuard{
		{SinceMillis: hourAgo, MaxUnits: policy.HourlyCap},
		{SinceMillis: dayAgo, MaxUnits: policy.DailyCap},
	}

	newBalance, err := e.store.CommitGrant(ctx, grant, guards...)
	if err != nil {
		if errors.Is(err, ledger.ErrCapExceeded) {
			// A concurrent claim consumed the headroom between our window
			// read and the commit lock.
			return GrantResult{}, err
		}
		e.logger.Error("watch grant commit failed", "user_id", userID, "error", err)
		return GrantResult{}, err
	}

	units := decision.CreditedSeconds
	signed, err := e.signer.Sign(receipt.Payload{
		UserID:          userID,
		Credited:        decision.Coins,
		Subject:         claim.VideoID,
		Units:           &units,
		TimestampMillis: nowMillis,
	})
	if err != nil {
		return GrantResult{}, fmt.Errorf("sign receipt: %w", err)
	}

	e.notify(ctx, notification.KindWatchReward, userID, decision.Coins)

	return GrantResult{Credited: decision.Coins, Balance: newBalance, Receipt: &signed}, nil
}

// ClaimAd grants the fixed rewarded-ad amount after provider verification,
// gated by the single-use cooldown lock and the per-day grant count.
func (e *Engine) ClaimAd(ctx context.Context, claim AdClaim) (GrantResult, error) {
	userID := claim.UserID
	if userID == "" {
		userID = AnonymousUser
	}
	if claim.Provider == "" || claim.ProviderToken == "" {
		return GrantResult{}, fmt.Errorf("%w: provider, providerToken", ErrMissingFields)
	}

	valid, err := e.verifier.Verify(ctx, claim.Provider, claim.ProviderToken)
	if err != nil {
		return GrantResult{}, fmt.Errorf("verify provider token: %w", err)
	}
	if !valid {
		return GrantResult{}, ErrInvalidProviderToken
	}

	lockKey := cooldownKeyPrefix + userID
	if err := e.acquireCooldown(ctx, lockKey); err != nil {
		return GrantResult{}, err
	}

	result, err := e.commitAdGrant(ctx, userID, claim.Provider, e.adPolicy.RewardAmount, map[string]string{
		"provider": claim.Provider,
		"adUnitId": claim.AdUnitID,
	})
	if err != nil {
		e.releaseCooldown(ctx, lockKey)
		return GrantResult{}, err
	}
	return result, nil
}

// GrantVerified credits a grant whose signature was already verified at the
// webhook boundary. It skips the per-minute counter and accrual policy but
// still holds a cooldown lock per user and provider.
func (e *Engine) GrantVerified(ctx context.Context, grant WebhookGrant) (GrantResult, error) {
	if grant.UserID == "" || grant.RewardAmount <= 0 {
		return GrantResult{}, fmt.Errorf("%w: userId, rewardAmount", ErrMissingFields)
	}

	lockKey := cooldownKeyPrefix + grant.UserID + ":" + grant.ProviderID
	if err := e.acquireCooldown(ctx, lockKey); err != nil {
		return GrantResult{}, err
	}

	result, err := e.commitAdGrant(ctx, grant.UserID, grant.ProviderID, grant.RewardAmount, map[string]string{
		"providerId": grant.ProviderID,
	})
	if err != nil {
		e.releaseCooldown(ctx, lockKey)
		return GrantResult{}, err
	}
	return result, nil
}

// Balance reports the user's current coin balance. A missing account reads as
// zero only after an explicit not-found from the store; any other failure is
// surfaced, never masked as an empty balance.
func (e *Engine) Balance(ctx context.Context, userID string) (int64, error) {
	if userID == "" {
		userID = AnonymousUser
	}
	balance, err := e.store.Balance(ctx, userID)
	if err != nil {
		if errors.Is(err, ledger.ErrAccountNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return balance, nil
}

func (e *Engine) acquireCooldown(ctx context.Context, key string) error {
	acquired, err := e.counters.TryAcquireCooldown(ctx, key, e.adPolicy.Cooldown)
	if err != nil {
		e.logger.Error("cooldown lock unavailable", "key", key, "error", err)
		return ErrCooldownActive
	}
	if !acquired {
		return ErrCooldownActive
	}
	return nil
}

// releaseCooldown gives back a lock whose grant did not commit, so a retry is
// not stuck behind a cooldown the user never earned. Best effort: on delete
// failure the TTL clears the lock.
func (e *Engine) releaseCooldown(ctx context.Context, key string) {
	if err := e.counters.ReleaseCooldown(ctx, key); err != nil {
		e.logger.Warn("release cooldown lock", "key", key, "error", err)
	}
}

func (e *Engine) commitAdGrant(ctx context.Context, userID, provider string, amount int64, metadata map[string]string) (GrantResult, error) {
	now := e.now()
	dayAgo := now.Add(-24 * time.Hour).UnixMilli()

	// The cooldown lock serializes ad grants per user, so a pre-commit count
	// is sufficient for the daily limit.
	granted, err := e.store.CountEntries(ctx, userID, ledger.KindAdReward, dayAgo)
	if err != nil {
		return GrantResult{}, fmt.Errorf("count ad grants: %w", err)
	}
	if e.adPolicy.MaxPerDay > 0 && granted >= e.adPolicy.MaxPerDay {
		return GrantResult{}, ErrAdDailyLimit
	}

	if err := e.store.EnsureAccount(ctx, userID); err != nil {
		return GrantResult{}, err
	}

	nowMillis := now.UnixMilli()
	newBalance, err := e.store.CommitGrant(ctx, ledger.Grant{
		UserID:          userID,
		Kind:            ledger.KindAdReward,
		Amount:          amount,
		TimestampMillis: nowMillis,
		Metadata:        metadata,
	})
	if err != nil {
		e.logger.Error("ad grant commit failed", "user_id", userID, "error", err)
		return GrantResult{}, err
	}

	signed, err := e.signer.Sign(receipt.Payload{
		UserID:          userID,
		Credited:        amount,
		Subject:         provider,
		TimestampMillis: nowMillis,
	})
	if err != nil {
		return GrantResult{}, fmt.Errorf("sign receipt: %w", err)
	}

	e.notify(ctx, notification.KindAdReward, userID, amount)

	return GrantResult{Credited: amount, Balance: newBalance, Receipt: &signed}, nil
}

func (e *Engine) notify(ctx context.Context, kind, userID string, amount int64) {
	if e.notifier == nil {
		return
	}
	if err := e.notifier.Send(ctx, notification.Message{Kind: kind, UserID: userID, Amount: amount}); err != nil {
		e.logger.Warn("notify grant", "user_id", userID, "error", err)
	}
}
