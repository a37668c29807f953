// Package config defines all configuration structures for the ArchIntel
// platform.  No I/O or parsing logic lives here, only plain data types and
// validation; loading is handled by loader.go.
package config

import (
	"fmt"
	"time"
)

// Version is the platform version injected at build time.
var Version = "dev"

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PostgresConfig holds document-store database connection parameters.
type PostgresConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds cache connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds event bus parameters.
type KafkaConfig struct {
	Brokers      []string      `mapstructure:"brokers"`
	GroupID      string        `mapstructure:"group_id"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

// OracleConfig holds parameters for the LLM-backed extraction and
// translation oracles.
type OracleConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// WebSearchConfig holds parameters for the location-enrichment search oracle.
type WebSearchConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

// PipelineConfig holds entity-resolution tunables.
type PipelineConfig struct {
	// FuzzyThreshold is the minimum normalized name similarity for a fuzzy
	// match to be considered.  Matches require similarity strictly greater
	// than this value.
	FuzzyThreshold float64 `mapstructure:"fuzzy_threshold"`

	// EnrichmentWindow is the number of characters scanned on each side of
	// an office name for location-indicating phrases before falling back
	// to the web-search oracle.
	EnrichmentWindow int `mapstructure:"enrichment_window"`

	// IDRetries is the number of uniqueness check-and-retry attempts when
	// synthesizing entity identifiers before the suffix is widened.
	IDRetries int `mapstructure:"id_retries"`

	// MergeRetries is the number of conditional-update retries when a
	// concurrent merge produces a version conflict.
	MergeRetries int `mapstructure:"merge_retries"`
}

// LogConfig mirrors logging.Config at the configuration-file level.
type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Format      string   `mapstructure:"format"`
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig holds metrics exposure parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// Config is the root configuration object.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Oracle    OracleConfig    `mapstructure:"oracle"`
	WebSearch WebSearchConfig `mapstructure:"websearch"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// Validate checks cross-field consistency after defaults are applied.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Pipeline.FuzzyThreshold <= 0 || c.Pipeline.FuzzyThreshold >= 1 {
		return fmt.Errorf("pipeline.fuzzy_threshold must be in (0, 1), got %v", c.Pipeline.FuzzyThreshold)
	}
	if c.Pipeline.EnrichmentWindow <= 0 {
		return fmt.Errorf("pipeline.enrichment_window must be positive, got %d", c.Pipeline.EnrichmentWindow)
	}
	if c.Oracle.Temperature < 0 || c.Oracle.Temperature > 2 {
		return fmt.Errorf("oracle.temperature must be in [0, 2], got %v", c.Oracle.Temperature)
	}
	if c.Postgres.Host != "" && c.Postgres.DBName == "" {
		return fmt.Errorf("postgres.db_name is required when postgres.host is set")
	}
	return nil
}
