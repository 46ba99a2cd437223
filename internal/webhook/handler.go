package webhook

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/ImeldaHope/Vertix/internal/ledger"
	"github.com/ImeldaHope/Vertix/internal/rewards"
)

// Handler accepts provider callback pushes on /ads/callback.
type Handler struct {
	engine *rewards.Engine
	secret []byte
	logger *slog.Logger
}

// NewHandler builds the webhook handler with the provider shared secret.
func NewHandler(engine *rewards.Engine, secret string, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, secret: []byte(secret), logger: logger}
}

type callbackPayload struct {
	UserID       string `json:"userId"`
	AdUnitID     string `json:"adUnitId"`
	RewardAmount int64  `json:"rewardAmount"`
	ProviderID   string `json:"providerId"`
	Ts           int64  `json:"ts"`
}

// Callback verifies the signature over the exact raw body before any of the
// payload enters the engine. On mismatch the response reveals nothing about
// which part of the check failed.
func (h *Handler) Callback(c *fiber.Ctx) error {
	body := c.Body()
	if err := VerifySignature(h.secret, body, c.Get(SignatureHeader)); err != nil {
		h.logger.Warn("rejected ad callback", "remote_ip", c.IP())
		return c.Status(http.StatusForbidden).JSON(fiber.Map{"error": "invalid_signature"})
	}

	var payload callbackPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	}
	if payload.UserID == "" || payload.RewardAmount <= 0 {
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
	}

	result, err := h.engine.GrantVerified(c.UserContext(), rewards.WebhookGrant{
		UserID:       payload.UserID,
		ProviderID:   payload.ProviderID,
		RewardAmount: payload.RewardAmount,
	})
	if err != nil {
		switch {
		case errors.Is(err, rewards.ErrCooldownActive):
			return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "cooldown"})
		case errors.Is(err, rewards.ErrAdDailyLimit):
			return c.Status(http.StatusTooManyRequests).JSON(fiber.Map{"error": "ad_daily_limit"})
		case errors.Is(err, rewards.ErrMissingFields):
			return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "missing"})
		case errors.Is(err, ledger.ErrTransactionFailed):
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "tx_failed"})
		default:
			h.logger.Error("ad callback grant failed", "user_id", payload.UserID, "error", err)
			return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "server_error"})
		}
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"ok":       true,
		"credited": result.Credited,
	})
}
