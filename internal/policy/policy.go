// Package policy holds the pure accrual rules for watch-time claims. It
// performs no I/O: callers supply the already-credited window sums and receive
// a decision.
package policy

import "errors"

const (
	// MaxPerClaim caps how many seconds a single claim may request credit for.
	MaxPerClaim = 300
	// HourlyCap is the maximum creditable watch seconds per trailing hour.
	HourlyCap = 3600
	// DailyCap is the maximum creditable watch seconds per trailing day.
	DailyCap = 36000
	// SecondsPerCoin is the exchange rate: floor division, never rounded up.
	SecondsPerCoin = 10
)

var (
	// ErrTooShort rejects claims reporting zero or negative watch time.
	ErrTooShort = errors.New("watch time too short")

	// ErrHourCapReached rejects claims once the trailing-hour window is
	// already exhausted. Deterministic until the window rolls.
	ErrHourCapReached = errors.New("hourly cap reached")

	// ErrDayCapReached rejects claims once the trailing-day window is
	// already exhausted.
	ErrDayCapReached = errors.New("daily cap reached")
)

// WatchDecision is the outcome of evaluating a watch-time claim.
type WatchDecision struct {
	// CreditedSeconds is the portion of the claim that earns credit after
	// clamping and window headroom.
	CreditedSeconds int64
	// Coins is CreditedSeconds converted at the exchange rate. Zero coins
	// with a nil error is a legitimate zero-credit outcome, not a rejection.
	Coins int64
}

// EvaluateWatch decides how much of a watch-time claim is creditable.
// lastHourSeconds and lastDaySeconds are the seconds already credited from the
// ledger, excluding this claim. An exhausted window is a hard stop, not a
// clamp: the claim is rejected outright rather than partially credited.
func EvaluateWatch(claimedSeconds, lastHourSeconds, lastDaySeconds int64) (WatchDecision, error) {
	if claimedSeconds <= 0 {
		return WatchDecision{}, ErrTooShort
	}

	if lastHourSeconds >= HourlyCap {
		return WatchDecision{}, ErrHourCapReached
	}
	if lastDaySeconds >= DailyCap {
		return WatchDecision{}, ErrDayCapReached
	}

	clamped := claimedSeconds
	if clamped > MaxPerClaim {
		clamped = MaxPerClaim
	}

	hourRemaining := HourlyCap - lastHourSeconds
	dayRemaining := DailyCap - lastDaySeconds

	credited := clamped
	if credited > hourRemaining {
		credited = hourRemaining
	}
	if credited > dayRemaining {
		credited = dayRemaining
	}

	return WatchDecision{
		CreditedSeconds: credited,
		Coins:           credited / SecondsPerCoin,
	}, nil
}
