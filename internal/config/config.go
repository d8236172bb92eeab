package config

import (
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
	CORSAllowedOrigins []string

	ExportDir       string
	ExportQueue     string
	ExportRateLimit string

	AnalyticsCacheTTL    time.Duration
	AnalyticsRecentCount int

	DefaultCurrency   string
	DefaultThemeColor string
	DefaultSenderName string
	DefaultSenderInfo string
	DefaultNotes      string
	DefaultTerms      string
}

// Load reads configuration from environment variables and optional .env files.
//
// DATABASE_URL and REDIS_URL are both optional for the API: without a database
// the document store runs memory-only for the session, and without Redis the
// analytics cache, export queue, and rate limiter are disabled.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:           strings.TrimSpace(k.String("REDIS_URL")),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ExportDir:       valueOrDefault(k.String("EXPORT_DIR"), "exports"),
		ExportQueue:     valueOrDefault(k.String("EXPORT_QUEUE"), "exports"),
		ExportRateLimit: valueOrDefault(k.String("EXPORT_RATE_LIMIT"), "30-M"),

		AnalyticsCacheTTL:    parseDuration(k.String("ANALYTICS_CACHE_TTL"), "1m"),
		AnalyticsRecentCount: intOrDefault(k.Int("ANALYTICS_RECENT_COUNT"), 6),

		DefaultCurrency:   valueOrDefault(k.String("INVOICE_DEFAULT_CURRENCY"), "₦"),
		DefaultThemeColor: valueOrDefault(k.String("INVOICE_DEFAULT_THEME"), "#1e293b"),
		DefaultSenderName: valueOrDefault(k.String("INVOICE_DEFAULT_SENDER_NAME"), "Zia's Royalle"),
		DefaultSenderInfo: k.String("INVOICE_DEFAULT_SENDER_DETAILS"),
		DefaultNotes:      valueOrDefault(k.String("INVOICE_DEFAULT_NOTES"), "Thank you for your business."),
		DefaultTerms:      k.String("INVOICE_DEFAULT_TERMS"),
	}

	return cfg, nil
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

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
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
	if value > 0 {
		return value
	}
	return fallback
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
