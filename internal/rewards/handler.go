package rewards

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ImeldaHope/Vertix/internal/config"
	"github.com/ImeldaHope/Vertix/internal/ledger"
	"github.com/ImeldaHope/Vertix/internal/policy"
)

// Handler exposes the reward claim HTTP endpoints.
type Handler struct {
	engine *Engine
	cfg    config.Config
}

// NewHandler builds a rewards HTTP handler.
func NewHandler(engine *Engine, cfg config.Config) *Handler {
	return &Handler{engine: engine, cfg: cfg}
}

type watchRequest struct {
	VideoID        string `json:"videoId"`
	SecondsWatched int64  `json:"secondsWatched"`
	ClientTs       int64  `json:"clientTs"`
}

type adVerifyRequest struct {
	Provider      string `json:"provider"`
	ProviderToken string `json:"providerToken"`
	AdUnitID      string `json:"adUnitId"`
}

// Watch handles POST /rewards/watch.
func (h *Handler) Watch(c *fiber.Ctx) error {
	var req watchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	}

	result, err := h.engine.ClaimWatch(c.UserContext(), WatchClaim{
		UserID:          callerID(c),
		VideoID:         req.VideoID,
		SecondsWatched:  req.SecondsWatched,
		ClientTimestamp: req.ClientTs,
	})
	if err != nil {
		return respondClaimError(c, err)
	}
	return respondGrant(c, result)
}

// VerifyAd handles POST /ads/verify: the client presents a provider token
// after a rewarded ad completes.
func (h *Handler) VerifyAd(c *fiber.Ctx) error {
	var req adVerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	}

	result, err := h.engine.ClaimAd(c.UserContext(), AdClaim{
		UserID:        callerID(c),
		Provider:      req.Provider,
		ProviderToken: req.ProviderToken,
		AdUnitID:      req.AdUnitID,
	})
	if err != nil {
		return respondClaimError(c, err)
	}
	return respondGrant(c, result)
}

// AdConfig handles GET /ads/config with the placement rules clients should
// respect before attempting a claim.
func (h *Handler) AdConfig(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"rewarded": fiber.Map{
			"cooldownSeconds": int64(h.cfg.AdCooldown.Seconds()),
			"rewardAmount":    h.cfg.AdRewardAmount,
			"maxPerDay":       h.cfg.AdMaxPerDay,
		},
		"interstitial": fiber.Map{
			"cooldownSeconds": int64(h.cfg.InterstitialCooldown.Seconds()),
		},
	})
}

// Coins handles GET /me/coins.
func (h *Handler) Coins(c *fiber.Ctx) error {
	balance, err := h.engine.Balance(c.UserContext(), callerID(c))
	if err != nil {
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"coins": balance})
}

func respondGrant(c *fiber.Ctx, result GrantResult) error {
	if result.Receipt == nil {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"credited": result.Credited,
			"balance":  result.Balance,
			"reason":   result.Reason,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"credited": result.Credited,
		"balance":  result.Balance,
		"receipt":  result.Receipt,
	})
}

// respondClaimError maps engine errors onto the structured rejection contract.
// Rejections are distinguishable by reason so clients can adjust backoff.
func respondClaimError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, ErrMissingFields):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	case errors.Is(err, policy.ErrTooShort):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "too_short"})
	case errors.Is(err, ErrInvalidProviderToken):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid_provider_token"})
	case errors.Is(err, ErrRateLimited):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "rate_limited"})
	case errors.Is(err, policy.ErrHourCapReached):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "hour_cap_reached"})
	case errors.Is(err, policy.ErrDayCapReached):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "day_cap_reached"})
	case errors.Is(err, ledger.ErrCapExceeded):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "cap_reached"})
	case errors.Is(err, ErrCooldownActive):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "cooldown"})
	case errors.Is(err, ErrAdDailyLimit):
		return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "ad_daily_limit"})
	case errors.Is(err, ledger.ErrTransactionFailed):
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "tx_failed"})
	default:
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
	}
}

func callerID(c *fiber.Ctx) string {
	userID, _ := c.Locals("user_id").(string)
	return userID
}
