package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// API-Football provider
	APIFootballKey     string        `envconfig:"APIFOOTBALL_KEY" required:"true"`
	APIFootballBaseURL string        `envconfig:"APIFOOTBALL_BASE_URL" default:"https://v3.football.api-sports.io"`
	APIFootballTimeout time.Duration `envconfig:"APIFOOTBALL_TIMEOUT" default:"30s"`

	// Quota gate
	MinuteQuota         int           `envconfig:"MINUTE_QUOTA" default:"350"`
	MinuteQuotaInterval time.Duration `envconfig:"MINUTE_QUOTA_INTERVAL" default:"60s"`
	DayQuota            int           `envconfig:"DAY_QUOTA" default:"70000"`
	MaxConcurrentCalls  int           `envconfig:"MAX_CONCURRENT_CALLS" default:"10"`

	// Call executor
	RetryAttempts  int `envconfig:"RETRY_ATTEMPTS" default:"3"`
	RateLimitWaits int `envconfig:"RATE_LIMIT_WAITS" default:"5"`

	// Batch orchestration
	BatchSize         int           `envconfig:"BATCH_SIZE" default:"20"`
	FallbackBatchSize int           `envconfig:"FALLBACK_BATCH_SIZE" default:"10"`
	InterBatchDelay   time.Duration `envconfig:"INTER_BATCH_DELAY" default:"2s"`

	// Sync strategy
	TrackedLeagues    []int `envconfig:"TRACKED_LEAGUES" default:"39,140,135,78,61,2,3"`
	FixtureWindowDays int   `envconfig:"FIXTURE_WINDOW_DAYS" default:"7"`
	StaleSeasonYear   int   `envconfig:"STALE_SEASON_YEAR" default:"2021"`

	// Job runner
	JobTimeout time.Duration `envconfig:"JOB_TIMEOUT" default:"3h"`
	JobRetries int           `envconfig:"JOB_RETRIES" default:"2"`

	// Database
	DatabaseHost     string `envconfig:"DATABASE_HOST" default:"localhost"`
	DatabasePort     int    `envconfig:"DATABASE_PORT" default:"5432"`
	DatabaseName     string `envconfig:"DATABASE_NAME" default:"goal_backend"`
	DatabaseUser     string `envconfig:"DATABASE_USER" default:"goal_user"`
	DatabasePassword string `envconfig:"DATABASE_PASSWORD" required:"true"`
	DatabaseSSLMode  string `envconfig:"DATABASE_SSL_MODE" default:"disable"`

	// Redis
	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	EnableScheduler     bool   `envconfig:"ENABLE_SCHEDULER" default:"true"`
	InitialSyncEnabled  bool   `envconfig:"INITIAL_SYNC_ENABLED" default:"true"`
	LeagueRefreshCron   string `envconfig:"LEAGUE_REFRESH_CRON" default:"0 3 * * *"`
	FixturePollInterval int    `envconfig:"FIXTURE_POLL_INTERVAL" default:"900"`

	// Monitoring
	EnableMetrics bool `envconfig:"ENABLE_METRICS" default:"true"`
	MetricsPort   int  `envconfig:"METRICS_PORT" default:"9090"`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	// Try to load .env file (ignore error if doesn't exist)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.APIFootballKey == "" {
		return fmt.Errorf("APIFOOTBALL_KEY is required")
	}

	if c.DatabasePassword == "" {
		return fmt.Errorf("DATABASE_PASSWORD is required")
	}

	if c.MinuteQuota < 1 || c.DayQuota < 1 {
		return fmt.Errorf("quota capacities must be at least 1")
	}

	if c.MaxConcurrentCalls < 1 {
		return fmt.Errorf("MAX_CONCURRENT_CALLS must be at least 1")
	}

	if c.BatchSize < 1 || c.FallbackBatchSize < 1 {
		return fmt.Errorf("batch sizes must be at least 1")
	}

	if len(c.TrackedLeagues) == 0 {
		return fmt.Errorf("TRACKED_LEAGUES must name at least one league")
	}

	return nil
}

// DatabaseDSN returns the PostgreSQL connection string
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DatabaseHost,
		c.DatabasePort,
		c.DatabaseUser,
		c.DatabasePassword,
		c.DatabaseName,
		c.DatabaseSSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// MustLoad loads configuration or panics on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
