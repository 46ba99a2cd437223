package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/ImeldaHope/Vertix/internal/adprovider"
	"github.com/ImeldaHope/Vertix/internal/config"
	"github.com/ImeldaHope/Vertix/internal/counter"
	"github.com/ImeldaHope/Vertix/internal/ledger"
	"github.com/ImeldaHope/Vertix/internal/middleware"
	"github.com/ImeldaHope/Vertix/internal/notification"
	"github.com/ImeldaHope/Vertix/internal/profile"
	"github.com/ImeldaHope/Vertix/internal/receipt"
	"github.com/ImeldaHope/Vertix/internal/rewards"
	"github.com/ImeldaHope/Vertix/internal/webhook"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Claims cannot be admitted or recorded without both backends. Dev runs
	// may substitute in-memory stores, but never silently.
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Cache == nil {
		return fmt.Errorf("redis is required: the rate limiter fails closed and cannot run without a counter store")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Identity())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	var store ledger.Store
	var profileRepo profile.Repository
	if d.DB != nil {
		store = ledger.NewPostgresStore(d.DB)
		profileRepo = profile.NewPostgresRepository(d.DB)
	} else {
		store = ledger.NewInMemory()
		profileRepo = profile.NewMemoryRepository()
	}

	counters := counter.NewRedisStore(d.Cache)
	signer := receipt.NewSigner(d.Cfg.RewardSigningKey)
	notifier := notification.NewLoggerNotifier(d.Logger)

	engine := rewards.NewEngine(counters, store, signer, adprovider.StaticVerifier{}, notifier, rewards.AdPolicy{
		RewardAmount: d.Cfg.AdRewardAmount,
		Cooldown:     d.Cfg.AdCooldown,
		MaxPerDay:    d.Cfg.AdMaxPerDay,
	}, d.Logger)

	rewardsHandler := rewards.NewHandler(engine, d.Cfg)
	webhookHandler := webhook.NewHandler(engine, d.Cfg.AdProviderKey, d.Logger)
	profileHandler := profile.NewHandler(profile.NewService(profileRepo))

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	api.Post("/rewards/watch", rewardsHandler.Watch)
	api.Post("/ads/verify", rewardsHandler.VerifyAd)
	api.Get("/ads/config", rewardsHandler.AdConfig)

	// Provider pushes are authenticated by signature, not bearer identity.
	api.Post("/ads/callback", webhookHandler.Callback)

	api.Get("/me", profileHandler.Me)
	api.Put("/me", profileHandler.Update)
	api.Get("/me/coins", rewardsHandler.Coins)

	return nil
}
