package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// configFile is read when present; environment variables always apply on top.
const configFile = "config.yaml"

// Storage backends for the workspace key-value slots.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageRedis    = "redis"
	StorageMemory   = "memory"
)

// AI providers.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Config holds all configuration for gradpath-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"3443"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL" env-default:"info"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AI       AIConfig       `yaml:"ai"`
	Archive  ArchiveConfig  `yaml:"archive"`
}

// StorageConfig selects where the four workspace slots are kept.
type StorageConfig struct {
	Backend    string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"sqlite"`
	SQLitePath string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"./data/gradpath.db"`
	KeyPrefix  string `yaml:"key_prefix" env:"STORAGE_KEY_PREFIX" env-default:"gradpath"`
	// SeedSampleClients loads the two sample clients when no client slot exists.
	SeedSampleClients bool `yaml:"seed_sample_clients" env:"SEED_SAMPLE_CLIENTS" env-default:"true"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"gradpath"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"gradpath"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"10"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// AIConfig configures the generative AI provider.
type AIConfig struct {
	Provider       string  `yaml:"provider" env:"AI_PROVIDER" env-default:"gemini"`
	Model          string  `yaml:"model" env:"AI_MODEL" env-default:""` // Provider default if empty
	Endpoint       string  `yaml:"endpoint" env:"AI_ENDPOINT" env-default:""`
	APIKey         string  `yaml:"-" env:"AI_API_KEY"` // Secret - not in YAML
	WebSearch      bool    `yaml:"web_search" env:"AI_WEB_SEARCH" env-default:"true"`
	Temperature    float64 `yaml:"temperature" env:"AI_TEMPERATURE" env-default:"0.7"`
	MaxRetries     int     `yaml:"max_retries" env:"AI_MAX_RETRIES" env-default:"2"`
	TimeoutSeconds int     `yaml:"timeout_seconds" env:"AI_TIMEOUT_SECONDS" env-default:"120"`
}

// IsAvailable returns true if an API key is configured.
func (c *AIConfig) IsAvailable() bool {
	return c.APIKey != ""
}

// Timeout returns the per-request timeout.
func (c *AIConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ArchiveConfig configures the optional S3-compatible archive of imported files.
type ArchiveConfig struct {
	Bucket    string `yaml:"bucket" env:"ARCHIVE_BUCKET" env-default:""`
	Endpoint  string `yaml:"endpoint" env:"ARCHIVE_ENDPOINT" env-default:""`
	Region    string `yaml:"region" env:"ARCHIVE_REGION" env-default:"auto"`
	AccessKey string `yaml:"-" env:"ARCHIVE_ACCESS_KEY"` // Secret - not in YAML
	SecretKey string `yaml:"-" env:"ARCHIVE_SECRET_KEY"` // Secret - not in YAML
}

// IsEnabled returns true if a bucket is configured.
func (c *ArchiveConfig) IsEnabled() bool {
	return c.Bucket != ""
}

// Load reads configuration from config.yaml (if present) with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat(configFile); err == nil {
		if err := cleanenv.ReadConfig(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", configFile, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", configFile, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	cfg.Database.Host = ResolveHostForDocker(cfg.Database.Host)
	cfg.Redis.Host = ResolveHostForDocker(cfg.Redis.Host)

	if cfg.BaseURL == "" {
		cfg.BaseURL = (&url.URL{
			Scheme: "http",
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validate rejects unknown backends and providers.
func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageSQLite, StoragePostgres, StorageRedis, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.AI.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unknown ai provider %q", c.AI.Provider)
	}

	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("ai max_retries must be >= 0")
	}
	if c.AI.TimeoutSeconds <= 0 {
		return fmt.Errorf("ai timeout_seconds must be > 0")
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
