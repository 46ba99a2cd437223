package policy

import (
	"errors"
	"testing"
)

func TestEvaluateWatch(t *testing.T) {
	tests := []struct {
		name        string
		claimed     int64
		lastHour    int64
		lastDay     int64
		wantSeconds int64
		wantCoins   int64
		wantErr     error
	}{
		{name: "zero seconds rejected", claimed: 0, wantErr: ErrTooShort},
		{name: "negative seconds rejected", claimed: -30, wantErr: ErrTooShort},
		{name: "simple claim", claimed: 120, wantSeconds: 120, wantCoins: 12},
		{name: "clamped to per-claim ceiling", claimed: 900, wantSeconds: 300, wantCoins: 30},
		{name: "floor division never rounds up", claimed: 119, wantSeconds: 119, wantCoins: 11},
		{name: "below exchange rate is zero credit", claimed: 5, wantSeconds: 5, wantCoins: 0},
		{name: "exhausted hour window is a hard stop", claimed: 60, lastHour: HourlyCap, wantErr: ErrHourCapReached},
		{name: "over-exhausted hour window", claimed: 60, lastHour: HourlyCap + 500, wantErr: ErrHourCapReached},
		{name: "exhausted day window is a hard stop", claimed: 60, lastDay: DailyCap, wantErr: ErrDayCapReached},
		{name: "partial hour headroom clamps", claimed: 300, lastHour: HourlyCap - 40, wantSeconds: 40, wantCoins: 4},
		{name: "partial day headroom clamps", claimed: 300, lastDay: DailyCap - 25, wantSeconds: 25, wantCoins: 2},
		{name: "tightest window wins", claimed: 300, lastHour: HourlyCap - 100, lastDay: DailyCap - 50, wantSeconds: 50, wantCoins: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EvaluateWatch(tt.claimed, tt.lastHour, tt.lastDay)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.CreditedSeconds != tt.wantSeconds {
				t.Fatalf("credited seconds: want %d, got %d", tt.wantSeconds, got.CreditedSeconds)
			}
			if got.Coins != tt.wantCoins {
				t.Fatalf("coins: want %d, got %d", tt.wantCoins, got.Coins)
			}
		})
	}
}

func TestEvaluateWatchFormula(t *testing.T) {
	// creditedCoins == floor(min(claimed, 300, hourRemaining, dayRemaining) / 10)
	// spot-checked across a sweep of inputs.
	for claimed := int64(1); claimed <= 600; claimed += 37 {
		for _, lastHour := range []int64{0, 1800, 3599} {
			got, err := EvaluateWatch(claimed, lastHour, 0)
			if err != nil {
				t.Fatalf("claimed=%d lastHour=%d: %v", claimed, lastHour, err)
			}
			expect := claimed
			if expect > MaxPerClaim {
				expect = MaxPerClaim
			}
			if remaining := HourlyCap - lastHour; expect > remaining {
				expect = remaining
			}
			if got.CreditedSeconds != expect || got.Coins != expect/SecondsPerCoin {
				t.Fatalf("claimed=%d lastHour=%d: got %+v, want seconds=%d coins=%d",
					claimed, lastHour, got, expect, expect/SecondsPerCoin)
			}
		}
	}
}
