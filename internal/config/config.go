package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName          = "Vertix"
	defaultAppEnv           = "development"
	defaultPort             = "4000"
	defaultLogLevel         = "info"
	defaultShutdownDelay    = 10 * time.Second
	defaultAdRewardAmount   = 10
	defaultAdCooldown       = 60 * time.Second
	defaultAdMaxPerDay      = 100
	defaultInterstitialGap  = 30 * time.Second
	defaultDevRewardSecret  = "dev-secret"
	defaultDevAdSecret      = "ad-dev-key"
	shutdownSecondsEnvVar   = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar  = "SHUTDOWN_TIMEOUT"
	adCooldownSecondsEnvVar = "AD_COOLDOWN_SECONDS"
)

// Config captures application runtime configuration loaded from environment variables.
// It is built once in main and handed to the server explicitly; nothing reads the
// environment after startup.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration

	// RewardSigningKey signs grant receipts handed back to clients.
	RewardSigningKey string
	// AdProviderKey authenticates inbound ad-network webhook callbacks.
	AdProviderKey string

	// Rewarded ad placement tunables served via /ads/config and enforced
	// by the rewards engine.
	AdRewardAmount       int64
	AdCooldown           time.Duration
	AdMaxPerDay          int64
	InterstitialCooldown time.Duration
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:              getEnv("APP_NAME", defaultAppName),
		AppEnv:               getEnv("APP_ENV", defaultAppEnv),
		Port:                 getEnv("PORT", defaultPort),
		LogLevel:             strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		RedisURL:             os.Getenv("REDIS_URL"),
		ShutdownPeriod:       defaultShutdownDelay,
		RewardSigningKey:     os.Getenv("REWARD_SIGNING_KEY"),
		AdProviderKey:        os.Getenv("AD_PROVIDER_KEY"),
		AdRewardAmount:       defaultAdRewardAmount,
		AdCooldown:           defaultAdCooldown,
		AdMaxPerDay:          defaultAdMaxPerDay,
		InterstitialCooldown: defaultInterstitialGap,
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		cfg.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if v := os.Getenv(shutdownDurationEnvVar); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s: %w", shutdownDurationEnvVar, err)
		}
		cfg.ShutdownPeriod = d
	}

	if v := os.Getenv("AD_REWARD_AMOUNT"); v != "" {
		amount, err := strconv.ParseInt(v, 10, 64)
		if err != nil || amount <= 0 {
			return Config{}, fmt.Errorf("invalid AD_REWARD_AMOUNT: %q", v)
		}
		cfg.AdRewardAmount = amount
	}

	if v := os.Getenv(adCooldownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid %s: %q", adCooldownSecondsEnvVar, v)
		}
		cfg.AdCooldown = time.Duration(seconds) * time.Second
	}

	if v := os.Getenv("AD_MAX_PER_DAY"); v != "" {
		limit, err := strconv.ParseInt(v, 10, 64)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid AD_MAX_PER_DAY: %q", v)
		}
		cfg.AdMaxPerDay = limit
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}

	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}

	// Development gets throwaway secrets; anywhere else they must be provided.
	if cfg.RewardSigningKey == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("REWARD_SIGNING_KEY must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.RewardSigningKey = defaultDevRewardSecret
	}
	if cfg.AdProviderKey == "" {
		if !cfg.IsDev() {
			return Config{}, fmt.Errorf("AD_PROVIDER_KEY must be set when APP_ENV=%s", cfg.AppEnv)
		}
		cfg.AdProviderKey = defaultDevAdSecret
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDev reports whether the configured environment is a development one.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
