// Package config loads the dashboard configuration from defaults, an optional
// YAML file, a .env file and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"games-dashboard/models"
	"games-dashboard/services"
	"games-dashboard/utils"
)

// Data source kinds.
const (
	SourceFiles    = "files"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

// Config holds all application configuration.
type Config struct {
	Logging   string          `yaml:"logging" default:"info" validate:"oneof=panic fatal error warn warning info debug trace"`
	Data      DataConfig      `yaml:"data"`
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Snapshot  SnapshotConfig  `yaml:"snapshot"`
	Retry     RetryConfig     `yaml:"retry"`
}

// DataConfig selects where the two source tables are read from.
type DataConfig struct {
	Source        string `yaml:"source" default:"files" validate:"oneof=files postgres sqlite"`
	CatalogPath   string `yaml:"catalog_path" default:"data/games.csv" validate:"required_if=Source files"`
	MetadataPath  string `yaml:"metadata_path" default:"data/games_metadata.json" validate:"required_if=Source files"`
	DSN           string `yaml:"dsn" validate:"required_unless=Source files"`
	CatalogTable  string `yaml:"catalog_table" default:"games" validate:"required"`
	MetadataTable string `yaml:"metadata_table" default:"games_metadata" validate:"required"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string        `yaml:"addr" default:":8080" validate:"required"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

// CacheConfig selects the memo backend.
type CacheConfig struct {
	Backend string      `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
	Size    int         `yaml:"size" default:"256" validate:"gte=1"`
	Redis   RedisConfig `yaml:"redis"`
}

// RedisConfig configures the shared memo store.
type RedisConfig struct {
	Address string        `yaml:"address"`
	Prefix  string        `yaml:"prefix" default:"games-dashboard"`
	TTL     time.Duration `yaml:"ttl" default:"1h"`
}

// DashboardConfig holds presentation defaults and bucket definitions.
type DashboardConfig struct {
	DefaultPriceLimit   float64              `yaml:"default_price_limit" default:"60" validate:"gte=1"`
	DefaultReviewsLimit float64              `yaml:"default_reviews_limit" default:"200000" validate:"gte=1"`
	HeatmapBins         int                  `yaml:"heatmap_bins" default:"10" validate:"gte=1,lte=100"`
	PageSize            int                  `yaml:"page_size" default:"50" validate:"gte=1,lte=1000"`
	RatioBuckets        *services.BucketSpec `yaml:"ratio_buckets"`
	PriceBuckets        *services.BucketSpec `yaml:"price_buckets"`
}

// SnapshotConfig configures headless dashboard captures.
type SnapshotConfig struct {
	OutputDir   string        `yaml:"output_dir" default:"./output/snapshots" validate:"required"`
	ChromeBin   string        `yaml:"chrome_bin"`
	Concurrency int           `yaml:"concurrency" default:"2" validate:"gte=1"`
	RateLimitMs int           `yaml:"rate_limit_ms" default:"500" validate:"gte=0"`
	Timeout     time.Duration `yaml:"timeout" default:"60s"`
	Width       int64         `yaml:"width" default:"1440" validate:"gt=0"`
	Height      int64         `yaml:"height" default:"900" validate:"gt=0"`
}

// RetryConfig configures back-off for flaky operations.
type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" default:"3" validate:"gte=1"`
	BaseDelay   time.Duration `yaml:"base_delay" default:"500ms"`
}

// Load builds a Config. path may be empty or name a file that does not exist,
// in which case only defaults and the environment apply.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	if path != "" {
		raw, err := os.ReadFile(path) //nolint:gosec // user-provided config path
		switch {
		case err == nil:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: parse %s: %v", models.ErrConfig, path, err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("%w: read %s: %v", models.ErrIO, path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: .env: %v", models.ErrConfig, err)
	}
	cfg.applyEnv()

	if cfg.Dashboard.RatioBuckets == nil {
		spec := services.RatioBuckets()
		cfg.Dashboard.RatioBuckets = &spec
	}
	if cfg.Dashboard.PriceBuckets == nil {
		spec := services.PriceBuckets()
		cfg.Dashboard.PriceBuckets = &spec
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Logging = getEnv("LOG_LEVEL", c.Logging)
	c.Data.Source = getEnv("DATA_SOURCE", c.Data.Source)
	c.Data.CatalogPath = getEnv("CATALOG_PATH", c.Data.CatalogPath)
	c.Data.MetadataPath = getEnv("METADATA_PATH", c.Data.MetadataPath)
	c.Data.DSN = getEnv("DATABASE_DSN", c.Data.DSN)
	c.Server.Addr = getEnv("LISTEN_ADDR", c.Server.Addr)
	c.Cache.Backend = getEnv("CACHE_BACKEND", c.Cache.Backend)
	c.Cache.Redis.Address = getEnv("REDIS_ADDR", c.Cache.Redis.Address)
	c.Cache.Size = getEnvInt("CACHE_SIZE", c.Cache.Size)
	c.Snapshot.ChromeBin = getEnv("CHROME_BIN", c.Snapshot.ChromeBin)
}

// Validate checks field constraints and the bucket definitions.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("%w: %v", models.ErrConfig, err)
	}

	if c.Cache.Backend == CacheRedis && c.Cache.Redis.Address == "" {
		return fmt.Errorf("%w: cache.redis.address is required for the redis backend", models.ErrConfig)
	}

	if c.Dashboard.RatioBuckets != nil {
		if err := c.Dashboard.RatioBuckets.Validate(); err != nil {
			return fmt.Errorf("dashboard.ratio_buckets: %w", err)
		}
	}
	if c.Dashboard.PriceBuckets != nil {
		if err := c.Dashboard.PriceBuckets.Validate(); err != nil {
			return fmt.Errorf("dashboard.price_buckets: %w", err)
		}
	}
	return nil
}

// DashboardOptions converts the dashboard section for services.NewDashboard.
func (c *Config) DashboardOptions() services.DashboardOptions {
	opts := services.DefaultDashboardOptions()
	if c.Dashboard.RatioBuckets != nil {
		opts.RatioBuckets = *c.Dashboard.RatioBuckets
	}
	if c.Dashboard.PriceBuckets != nil {
		opts.PriceBuckets = *c.Dashboard.PriceBuckets
	}
	opts.HeatmapBins = c.Dashboard.HeatmapBins
	return opts
}

// RetryPolicy returns the retry section as a utils.RetryConfig.
func (c *Config) RetryPolicy(logger *utils.Logger) *utils.RetryConfig {
	return &utils.RetryConfig{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		Logger:      logger,
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
