package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/coursehub/wishlist/pkg/config"
)

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"WISHLIST_HTTP_PORT" envDefault:"8010"`

	// Redis
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`

	RedisSlowThreshold time.Duration `env:"REDIS_SLOW_THRESHOLD" envDefault:"100ms"`

	// Auth. Empty disables Bearer verification; X-User-ID from the gateway is used.
	JWTSecret string `env:"JWT_SECRET" envDefault:""`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Course API base URL per locale, e.g. "en=https://api.example.com/en/courses,tr=https://...".
	CourseAPIURLs map[string]string `env:"COURSE_API_URLS" envDefault:"en=http://localhost:8080/api/courses" envSeparator:"," envKeyValSeparator:"="`
	DefaultLocale string            `env:"DEFAULT_LOCALE" envDefault:"en"`

	// Course catalog client
	CatalogTimeout    time.Duration `env:"CATALOG_TIMEOUT" envDefault:"30s"`
	CatalogMaxRetries int           `env:"CATALOG_MAX_RETRIES" envDefault:"0"`
	FetchConcurrency  int           `env:"FETCH_CONCURRENCY" envDefault:"0"`
	CatalogRPS        float64       `env:"CATALOG_RPS" envDefault:"0"`
	CatalogBurst      int           `env:"CATALOG_BURST" envDefault:"10"`

	// Circuit breaker around the course API
	CBMaxRequests  uint32        `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     time.Duration `env:"CB_INTERVAL" envDefault:"60s"`
	CBTimeout      time.Duration `env:"CB_TIMEOUT" envDefault:"30s"`
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Idle view sessions are dropped after this many minutes.
	SessionIdleMinutes int `env:"SESSION_IDLE_MINUTES" envDefault:"30"`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SessionIdle returns the idle timeout for view sessions.
func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if len(c.CourseAPIURLs) == 0 {
		return fmt.Errorf("COURSE_API_URLS is required")
	}
	for locale, raw := range c.CourseAPIURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("COURSE_API_URLS: invalid url for locale %q: %q", locale, raw)
		}
	}
	if _, ok := c.CourseAPIURLs[c.DefaultLocale]; !ok {
		return fmt.Errorf("DEFAULT_LOCALE %q has no entry in COURSE_API_URLS", c.DefaultLocale)
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	if c.FetchConcurrency < 0 {
		return fmt.Errorf("FETCH_CONCURRENCY must not be negative")
	}
	if c.CatalogRPS < 0 {
		return fmt.Errorf("CATALOG_RPS must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0]")
	}
	if c.SessionIdleMinutes < 1 {
		return fmt.Errorf("SESSION_IDLE_MINUTES must be at least 1")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0")
	}
	return nil
}
