package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	UserServiceURL     string
	SiteSettingsURL    string
	RemoteCallTimeout  time.Duration
	BreakerMinRequests int
	BreakerRatio       float64
	BreakerOpenFor     time.Duration

	CatalogCacheTTL  time.Duration
	TaxConfigTTL     time.Duration
	ShippingZoneTTL  time.Duration
	IdempotencyTTL   time.Duration
	CartMutationsMax int
	CartMutationsWin time.Duration

	CurrencyCode string
	Migrationsup bool
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		UserServiceURL:     k.String("USER_SERVICE_URL"),
		SiteSettingsURL:    k.String("SITE_SETTINGS_URL"),
		RemoteCallTimeout:  parseDuration(k.String("REMOTE_CALL_TIMEOUT"), "5s"),
		BreakerMinRequests: intOrDefault(k.Int("REMOTE_BREAKER_MIN_REQUESTS"), 10),
		BreakerRatio:       floatOrDefault(k.Float64("REMOTE_BREAKER_FAILURE_RATIO"), 0.5),
		BreakerOpenFor:     parseDuration(k.String("REMOTE_BREAKER_OPEN_FOR"), "30s"),

		CatalogCacheTTL:  parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		TaxConfigTTL:     parseDuration(k.String("TAX_CONFIG_CACHE_TTL"), "10m"),
		ShippingZoneTTL:  parseDuration(k.String("SHIPPING_ZONE_CACHE_TTL"), "10m"),
		IdempotencyTTL:   parseDuration(k.String("IDEMPOTENCY_TTL"), "10m"),
		CartMutationsMax: intOrDefault(k.Int("CART_RATE_LIMIT_MAX"), 60),
		CartMutationsWin: parseDuration(k.String("CART_RATE_LIMIT_WINDOW"), "1m"),

		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "USD"),
		Migrationsup: parseBool(valueOrDefault(k.String("RUN_MIGRATIONS"), "true")),
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return cfg, nil
}

// Production reports whether the server runs with production error redaction.
func (c *Config) Production() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func floatOrDefault(value, fallback float64) float64 {
	if value <= 0 {
		return fallback
	}
	return value
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
