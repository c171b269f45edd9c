package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRemote = "remote"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Preview   PreviewConfig
	Relay     RelayConfig
	Sandbox   SandboxConfig
	Store     StoreConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port            string        `envconfig:"PORT" default:"8000"`
	Host            string        `envconfig:"HOST" default:"0.0.0.0"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`
	Gzip            bool          `envconfig:"GZIP" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
	// File enables a rotated log file in addition to stdout.
	File       string `envconfig:"LOG_FILE"`
	MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
	MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// PreviewConfig holds preview renderer configuration.
type PreviewConfig struct {
	// Debounce is the quiet period after the last edit before the editor
	// preview remounts.
	Debounce time.Duration `envconfig:"PREVIEW_DEBOUNCE" default:"300ms"`
}

// RelayConfig holds console relay configuration.
type RelayConfig struct {
	// LogCap bounds each slot's console log; 0 keeps every entry.
	LogCap int     `envconfig:"RELAY_LOG_CAP" default:"0"`
	RPS    float64 `envconfig:"RELAY_RPS" default:"200"`
	Burst  int     `envconfig:"RELAY_BURST" default:"400"`
}

// SandboxConfig holds headless execution configuration.
type SandboxConfig struct {
	Timeout  time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"2s"`
	PoolSize int           `envconfig:"SANDBOX_POOL_SIZE" default:"4"`
}

// StoreConfig holds pen record store configuration.
type StoreConfig struct {
	Backend     string        `envconfig:"STORE_BACKEND" default:"memory"`
	Fixtures    string        `envconfig:"STORE_FIXTURES"`
	SQLitePath  string        `envconfig:"STORE_SQLITE_PATH" default:"penbox.db"`
	RemoteURL   string        `envconfig:"STORE_REMOTE_URL"`
	RemoteToken string        `envconfig:"STORE_REMOTE_TOKEN"`
	RemoteTable string        `envconfig:"STORE_REMOTE_TABLE" default:"pens"`
	Timeout     time.Duration `envconfig:"STORE_TIMEOUT" default:"10s"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Validate checks cross-field constraints envconfig cannot express.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case StoreMemory, StoreSQLite:
	case StoreRemote:
		if c.Store.RemoteURL == "" {
			return fmt.Errorf("invalid config: STORE_REMOTE_URL is required for the remote store")
		}
	default:
		return fmt.Errorf("invalid config: unknown store backend %q", c.Store.Backend)
	}
	if c.Preview.Debounce < 0 {
		return fmt.Errorf("invalid config: PREVIEW_DEBOUNCE must not be negative")
	}
	if c.Relay.LogCap < 0 {
		return fmt.Errorf("invalid config: RELAY_LOG_CAP must not be negative")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Host:            "0.0.0.0",
			ShutdownTimeout: 10 * time.Second,
			Gzip:            true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
			MaxSizeMB:   100,
			MaxBackups:  3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Preview: PreviewConfig{
			Debounce: 300 * time.Millisecond,
		},
		Relay: RelayConfig{
			LogCap: 0,
			RPS:    200,
			Burst:  400,
		},
		Sandbox: SandboxConfig{
			Timeout:  2 * time.Second,
			PoolSize: 4,
		},
		Store: StoreConfig{
			Backend:     StoreMemory,
			SQLitePath:  "penbox.db",
			RemoteTable: "pens",
			Timeout:     10 * time.Second,
		},
	}
}
