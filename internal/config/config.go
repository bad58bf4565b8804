package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Catalog sources accepted by CATALOG_SOURCE.
const (
	CatalogEmbedded = "embedded"
	CatalogFile     = "file"
	CatalogPostgres = "postgres"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	RedisURL    string

	CatalogSource string
	CatalogFile   string

	SessionSecret     string
	SessionCookieName string
	SessionTTL        time.Duration
	SessionIdleTTL    time.Duration
	SnapshotTTL       time.Duration
	MenuOpenDelay     time.Duration

	CORSAllowedOrigins []string
	CookieSecure       bool
	CookieSameSite     http.SameSite
	CSRFEnabled        bool
	BodyLimitBytes     int64
	RateLimit          string
	IdempotencyTTL     time.Duration

	EventsQueue       string
	WorkerConcurrency int

	LogFormat          string
	LogLevel           string
	MetricsNamespace   string
	TracingExporter    string
	TracingEndpoint    string
	TracingSampleRatio float64
	ShutdownTimeout    time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	return fromKoanf(k)
}

// LoadForTests builds a Config from values alone, ignoring the process
// environment and any .env file.
func LoadForTests(values map[string]string) (*Config, error) {
	k := koanf.New(".")
	for key, value := range values {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}
	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	cfg := &Config{
		AppEnv:      valueOrDefault(k.String("APP_ENV"), "development"),
		Port:        valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(k.String("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(k.String("REDIS_URL")),

		CatalogSource: strings.ToLower(valueOrDefault(k.String("CATALOG_SOURCE"), CatalogEmbedded)),
		CatalogFile:   strings.TrimSpace(k.String("CATALOG_FILE")),

		SessionSecret:     k.String("SESSION_SECRET"),
		SessionCookieName: valueOrDefault(k.String("SESSION_COOKIE_NAME"), "toko_session"),
		SessionTTL:        parseDuration(k.String("SESSION_TTL"), "168h"),
		SessionIdleTTL:    parseDuration(k.String("STOREFRONT_SESSION_IDLE_TTL"), "30m"),
		SnapshotTTL:       parseDuration(k.String("STOREFRONT_SNAPSHOT_TTL"), "168h"),
		MenuOpenDelay:     parseDuration(k.String("STOREFRONT_MENU_OPEN_DELAY"), "2s"),

		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),
		CookieSecure:       parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:     parseSameSite(k.String("COOKIE_SAMESITE")),
		CSRFEnabled:        parseBool(valueOrDefault(k.String("CSRF_ENABLED"), "true")),
		BodyLimitBytes:     parseInt64(k.String("BODY_LIMIT_BYTES"), 64<<10),
		RateLimit:          valueOrDefault(k.String("RATE_LIMIT"), "120-M"),
		IdempotencyTTL:     parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),

		EventsQueue:       valueOrDefault(k.String("EVENTS_QUEUE"), "storefront"),
		WorkerConcurrency: int(parseInt64(k.String("WORKER_CONCURRENCY"), 5)),

		LogFormat:          valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:           valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
		MetricsNamespace:   valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "toko"),
		TracingExporter:    valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "none"),
		TracingEndpoint:    strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSampleRatio: parseFloat(k.String("OBS_TRACING_SAMPLE_RATIO"), 1),
		ShutdownTimeout:    parseDuration(k.String("SHUTDOWN_TIMEOUT"), "10s"),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}
	if cfg.SessionSecret == "" && cfg.IsDevelopment() {
		cfg.SessionSecret = "dev-session-secret"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is required")
	}
	switch c.CatalogSource {
	case CatalogEmbedded:
	case CatalogFile:
		if c.CatalogFile == "" {
			return errors.New("CATALOG_FILE is required when CATALOG_SOURCE=file")
		}
	case CatalogPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when CATALOG_SOURCE=postgres")
		}
	default:
		return fmt.Errorf("unsupported CATALOG_SOURCE %q", c.CatalogSource)
	}
	if c.CookieSameSite == http.SameSiteNoneMode && !c.CookieSecure {
		return errors.New("COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	return nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(strings.TrimSpace(c.AppEnv)) {
	case "", "dev", "development", "local", "test":
		return true
	default:
		return false
	}
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
		return strings.TrimSpace(value)
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

func parseInt64(value string, fallback int64) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseFloat(value string, fallback float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
