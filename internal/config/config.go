package config

import (
	"fmt"
	"time"

	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/catalog"
	"github.com/IsaacDawn/Alibee-Affiliate-API/internal/demo"
	pkgconfig "github.com/IsaacDawn/Alibee-Affiliate-API/pkg/config"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/database"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/httpclient"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/middleware"
	"github.com/IsaacDawn/Alibee-Affiliate-API/pkg/tracing"
)

// ServiceName labels metrics, traces and log lines.
const ServiceName = "alibee-affiliate-api"

// Config holds all configuration for the affiliate API.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// Catalog provider
	AppKey        string        `env:"ALI_APP_KEY"`
	AppSecret     string        `env:"ALI_APP_SECRET"`
	TrackingID    string        `env:"ALI_TRACKING_ID"`
	SignMethod    string        `env:"ALI_SIGN_METHOD" envDefault:"md5"`
	CatalogURL    string        `env:"CATALOG_BASE_URL" envDefault:"https://api-sg.aliexpress.com/sync"`
	CatalogTimeout time.Duration `env:"CATALOG_TIMEOUT" envDefault:"30s"`
	CatalogRate   float64       `env:"CATALOG_RATE_PER_SECOND" envDefault:"0"`
	CatalogBurst  int           `env:"CATALOG_RATE_BURST" envDefault:"5"`

	// Catalog circuit breaker
	BreakerTimeout      time.Duration `env:"CATALOG_BREAKER_TIMEOUT" envDefault:"30s"`
	BreakerInterval     time.Duration `env:"CATALOG_BREAKER_INTERVAL" envDefault:"60s"`
	BreakerFailureRatio float64       `env:"CATALOG_BREAKER_FAILURE_RATIO" envDefault:"0.5"`
	BreakerMinRequests  uint32        `env:"CATALOG_BREAKER_MIN_REQUESTS" envDefault:"5"`

	// Fallbacks
	DemoOnMissingCredentials bool `env:"DEMO_ON_MISSING_CREDENTIALS" envDefault:"true"`
	DemoOnEmpty              bool `env:"DEMO_ON_EMPTY" envDefault:"false"`
	DemoOnError              bool `env:"DEMO_ON_ERROR" envDefault:"false"`
	HotFallbackOnEmpty       bool `env:"HOT_FALLBACK_ON_EMPTY" envDefault:"true"`
	VideoSearchExtraPages    int  `env:"VIDEO_SEARCH_EXTRA_PAGES" envDefault:"5"`
	// SearchBudget is the time after which a search starts no further
	// provider calls.
	SearchBudget time.Duration `env:"SEARCH_BUDGET" envDefault:"45s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"alibee"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"alibee"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"alibee"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`
	DBAutoMigrate         bool  `env:"DB_AUTO_MIGRATE" envDefault:"true"`

	// Redis
	RedisEnabled     bool          `env:"REDIS_ENABLED" envDefault:"true"`
	RedisHost        string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort        int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPass        string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB          int           `env:"REDIS_DB" envDefault:"0"`
	ResponseCacheTTL time.Duration `env:"RESPONSE_CACHE_TTL" envDefault:"15m"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"alibee-search-history"`

	// Inbound search limiter, per client IP. 0 disables it.
	SearchRatePerSecond float64 `env:"SEARCH_RATE_PER_SECOND" envDefault:"5"`
	SearchRateBurst     int     `env:"SEARCH_RATE_BURST" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load affiliate config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if _, err := catalog.ParseScheme(c.SignMethod); err != nil {
		return fmt.Errorf("ALI_SIGN_METHOD: %w", err)
	}
	if c.CatalogTimeout <= 0 {
		return fmt.Errorf("CATALOG_TIMEOUT must be positive, got %s", c.CatalogTimeout)
	}
	if c.CatalogRate < 0 {
		return fmt.Errorf("CATALOG_RATE_PER_SECOND must not be negative")
	}
	if c.BreakerFailureRatio <= 0 || c.BreakerFailureRatio > 1.0 {
		return fmt.Errorf("CATALOG_BREAKER_FAILURE_RATIO must be in (0, 1], got %f", c.BreakerFailureRatio)
	}
	if c.SearchBudget <= 0 {
		return fmt.Errorf("SEARCH_BUDGET must be positive, got %s", c.SearchBudget)
	}
	if c.VideoSearchExtraPages < 0 || c.VideoSearchExtraPages > 20 {
		return fmt.Errorf("VIDEO_SEARCH_EXTRA_PAGES must be between 0 and 20, got %d", c.VideoSearchExtraPages)
	}
	if c.PostgresHost == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.RedisEnabled && c.ResponseCacheTTL <= 0 {
		return fmt.Errorf("RESPONSE_CACHE_TTL must be positive, got %s", c.ResponseCacheTTL)
	}
	if c.SearchRatePerSecond < 0 {
		return fmt.Errorf("SEARCH_RATE_PER_SECOND must not be negative")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Credentials returns the provider signing settings. SignMethod was checked
// by validate.
func (c *Config) Credentials() catalog.Credentials {
	scheme, _ := catalog.ParseScheme(c.SignMethod)
	return catalog.Credentials{
		AppKey:     c.AppKey,
		AppSecret:  c.AppSecret,
		TrackingID: c.TrackingID,
		Scheme:     scheme,
	}
}

// CatalogConfigured reports whether live provider calls are possible.
func (c *Config) CatalogConfigured() bool {
	return c.Credentials().Configured()
}

// Gateway returns the catalog gateway settings.
func (c *Config) Gateway() catalog.GatewayConfig {
	breaker := httpclient.DefaultCircuitBreakerConfig("catalog")
	breaker.Timeout = c.BreakerTimeout
	breaker.Interval = c.BreakerInterval
	breaker.FailureRatio = c.BreakerFailureRatio
	breaker.MinRequests = c.BreakerMinRequests

	return catalog.GatewayConfig{
		BaseURL:       c.CatalogURL,
		Timeout:       c.CatalogTimeout,
		RatePerSecond: c.CatalogRate,
		RateBurst:     c.CatalogBurst,
		Breaker:       breaker,
	}
}

// SearchTimeout bounds one /search request: the budget, one provider call
// started just before it ran out, and the finishing steps.
func (c *Config) SearchTimeout() time.Duration {
	return c.SearchBudget + c.CatalogTimeout + 5*time.Second
}

// Demo returns the demo fallback policy settings.
func (c *Config) Demo() demo.Config {
	return demo.Config{
		CredentialsConfigured: c.CatalogConfigured(),
		OnMissingCredentials:  c.DemoOnMissingCredentials,
		OnEmpty:               c.DemoOnEmpty,
		OnError:               c.DemoOnError,
	}
}

// Postgres returns the pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	pg := database.DefaultPostgresConfig()
	pg.Host = c.PostgresHost
	pg.Port = c.PostgresPort
	pg.User = c.PostgresUser
	pg.Password = c.PostgresPass
	pg.DBName = c.PostgresDB
	pg.SSLMode = c.PostgresSSL
	pg.MaxConns = c.DBMaxConns
	pg.MinConns = c.DBMinConns
	pg.MaxConnLifetime = time.Duration(c.DBMaxConnLifetimeMins) * time.Minute
	pg.MaxConnIdleTime = time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute
	return pg
}

// Redis returns the client settings.
func (c *Config) Redis() database.RedisConfig {
	rc := database.DefaultRedisConfig()
	rc.Host = c.RedisHost
	rc.Port = c.RedisPort
	rc.Password = c.RedisPass
	rc.DB = c.RedisDB
	return rc
}

// Tracing returns the OpenTelemetry settings.
func (c *Config) Tracing() tracing.Config {
	tc := tracing.DefaultConfig(ServiceName)
	tc.Environment = c.Environment
	tc.OTLPEndpoint = c.OTELEndpoint
	tc.SampleRate = c.OTELSampleRate
	tc.Enabled = c.OTELEnabled
	return tc
}

// CORS returns the CORS middleware settings.
func (c *Config) CORS() middleware.CORSConfig {
	cc := middleware.DefaultCORSConfig()
	cc.AllowedOrigins = c.CORSAllowedOrigins
	cc.Environment = c.Environment
	return cc
}

// SlowQueryThreshold is LOG_SLOW_QUERY_MS as a duration.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryThresholdMs) * time.Millisecond
}
