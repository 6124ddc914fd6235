package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for parcelgraph.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Town is the jurisdiction this instance covers. Listings reviewed as
	// outside this town are rejected with reason not_in_town.
	Town string `yaml:"town" env:"TOWN" env-default:"Warren"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Batch processing configuration
	Batch BatchConfig `yaml:"batch"`

	// Matcher configuration
	Matcher MatcherConfig `yaml:"matcher"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"parcelgraph"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"parcelgraph"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// BatchConfig holds batch-run settings shared by all import and transform
// commands.
type BatchConfig struct {
	// CommitWindow is the number of source records processed per transaction.
	CommitWindow int `yaml:"commit_window" env:"BATCH_COMMIT_WINDOW" env-default:"200"`
	// MaxErrorSample caps how many per-record error messages a batch summary
	// retains; further failures are counted but not stored.
	MaxErrorSample int `yaml:"max_error_sample" env:"BATCH_MAX_ERROR_SAMPLE" env-default:"25"`
}

// MatcherConfig holds spatial matching thresholds.
type MatcherConfig struct {
	// MaxCentroidDistanceM is the maximum centroid distance, in meters, at
	// which a spatial fallback match is still produced.
	MaxCentroidDistanceM float64 `yaml:"max_centroid_distance_m" env:"MATCHER_MAX_CENTROID_DISTANCE_M" env-default:"200"`
	// ConfidenceFloor is the lowest confidence a centroid match can carry.
	ConfidenceFloor float64 `yaml:"confidence_floor" env:"MATCHER_CONFIDENCE_FLOOR" env-default:"0.45"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
// Missing config.yaml is not an error; env defaults apply.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Fall back to env-only configuration when no YAML file is present.
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Batch.CommitWindow < 1 {
		return fmt.Errorf("batch commit_window must be >= 1, got %d", c.Batch.CommitWindow)
	}
	if c.Matcher.MaxCentroidDistanceM <= 0 {
		return fmt.Errorf("matcher max_centroid_distance_m must be > 0")
	}
	if c.Matcher.ConfidenceFloor < 0 || c.Matcher.ConfidenceFloor > 1 {
		return fmt.Errorf("matcher confidence_floor must be in [0,1], got %f", c.Matcher.ConfidenceFloor)
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
