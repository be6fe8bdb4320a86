// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, database paths, hold lifetimes, admission
// control, tenant caching, optional Redis/Kafka backends, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "go-stay-holds")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// HoldConfig defines reservation hold behavior.
type HoldConfig struct {
	TTL             time.Duration // HOLD_TTL, fixed lifetime of a hold (no renewal)
	MaxNights       int           // HOLD_MAX_NIGHTS, longest accepted range
	CheckFailClosed bool          // HOLD_CHECK_FAIL_CLOSED, strict read path during outages
}

// RateLimitConfig defines fixed-window admission control per operation.
type RateLimitConfig struct {
	Window        time.Duration // RATE_WINDOW
	CheckLimit    int           // RATE_CHECK_LIMIT, hold checks + countdown per window
	HoldLimit     int           // RATE_HOLD_LIMIT, hold create/release/verify per window
	WaitlistLimit int           // RATE_WAITLIST_LIMIT, waitlist joins per window
	MaxKeys       int           // RATE_MAX_KEYS, bound on tracked buckets (in-memory store)
}

// TenantCacheConfig bounds the tenant resolution cache.
type TenantCacheConfig struct {
	TTL      time.Duration // TENANT_CACHE_TTL
	Capacity int           // TENANT_CACHE_SIZE
}

// RedisConfig enables the shared rate-limit bucket store when Addr is set.
type RedisConfig struct {
	Addr     string // REDIS_ADDR (empty = in-memory buckets)
	Password string // REDIS_PASSWORD
	DB       int    // REDIS_DB
}

// KafkaConfig enables waitlist event publishing when Brokers is non-empty.
type KafkaConfig struct {
	Brokers       []string // KAFKA_BROKERS (CSV)
	WaitlistTopic string   // KAFKA_WAITLIST_TOPIC
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	LogRaw         bool   // access logs without PII redaction (LOG_REDACT=false); dev only
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for API routes

	// App
	DBPath string // SQLite path
	Hold   HoldConfig

	// Admission control / caching
	RateLimit   RateLimitConfig
	TenantCache TenantCacheConfig

	// Optional backends
	Redis RedisConfig
	Kafka KafkaConfig

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		LogRaw:         !getbool("LOG_REDACT", true),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "holds.db"),
		Hold: HoldConfig{
			TTL:             getdur("HOLD_TTL", 15*time.Minute),
			MaxNights:       getint("HOLD_MAX_NIGHTS", 60),
			CheckFailClosed: getbool("HOLD_CHECK_FAIL_CLOSED", false),
		},

		// Admission control / caching
		RateLimit: RateLimitConfig{
			Window:        getdur("RATE_WINDOW", time.Minute),
			CheckLimit:    getint("RATE_CHECK_LIMIT", 60),
			HoldLimit:     getint("RATE_HOLD_LIMIT", 10),
			WaitlistLimit: getint("RATE_WAITLIST_LIMIT", 5),
			MaxKeys:       getint("RATE_MAX_KEYS", 10000),
		},
		TenantCache: TenantCacheConfig{
			TTL:      getdur("TENANT_CACHE_TTL", 60*time.Second),
			Capacity: getint("TENANT_CACHE_SIZE", 1000),
		},

		// Optional backends
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getint("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:       splitCSV(getenv("KAFKA_BROKERS", "")),
			WaitlistTopic: getenv("KAFKA_WAITLIST_TOPIC", "waitlist.joined"),
		},

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "go-stay-holds"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.Hold.TTL <= 0 {
		return cfg, errors.New("HOLD_TTL must be > 0")
	}
	if cfg.Hold.MaxNights < 1 {
		return cfg, errors.New("HOLD_MAX_NIGHTS must be >= 1")
	}
	if cfg.RateLimit.Window <= 0 {
		return cfg, errors.New("RATE_WINDOW must be > 0")
	}
	if cfg.RateLimit.CheckLimit < 1 || cfg.RateLimit.HoldLimit < 1 || cfg.RateLimit.WaitlistLimit < 1 {
		return cfg, errors.New("RATE_*_LIMIT values must be >= 1")
	}
	if cfg.RateLimit.MaxKeys < 1 {
		return cfg, errors.New("RATE_MAX_KEYS must be >= 1")
	}
	if cfg.TenantCache.TTL <= 0 {
		return cfg, errors.New("TENANT_CACHE_TTL must be > 0")
	}
	if cfg.TenantCache.Capacity < 1 {
		return cfg, errors.New("TENANT_CACHE_SIZE must be >= 1")
	}
	if len(cfg.Kafka.Brokers) > 0 && strings.TrimSpace(cfg.Kafka.WaitlistTopic) == "" {
		return cfg, errors.New("KAFKA_WAITLIST_TOPIC must not be empty when KAFKA_BROKERS is set")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}
	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
