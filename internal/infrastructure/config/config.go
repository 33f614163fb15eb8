package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration.
type Config struct {
	Server    ServerConfig
	Runtime   RuntimeConfig
	Sandbox   SandboxConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
}

// ServerConfig holds ops HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8000"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// RuntimeConfig holds the application runtime settings.
type RuntimeConfig struct {
	AppsDir        string `envconfig:"APPS_DIR" default:"./apps"`
	ContainerAppID string `envconfig:"CONTAINER_APP_ID" default:""`
	SystemLanguage string `envconfig:"SYSTEM_LANGUAGE" default:"en-US"`
	DeviceInfoPath string `envconfig:"DEVICE_INFO_PATH" default:""`
	LocaleRegion   string `envconfig:"LOCALE_REGION" default:"US"`
}

// SandboxConfig holds script context limits.
type SandboxConfig struct {
	Timeout time.Duration `envconfig:"SANDBOX_TIMEOUT" default:"5s"`
	Console bool          `envconfig:"SANDBOX_CONSOLE" default:"true"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CacheConfig bounds in-memory caches.
type CacheConfig struct {
	ManifestCacheSize int `envconfig:"MANIFEST_CACHE_SIZE" default:"256"`
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

// Validate rejects values no component can run with.
func (c *Config) Validate() error {
	if c.Sandbox.Timeout <= 0 {
		return fmt.Errorf("invalid config: SANDBOX_TIMEOUT must be positive, got %s", c.Sandbox.Timeout)
	}
	if c.Cache.ManifestCacheSize <= 0 {
		return fmt.Errorf("invalid config: MANIFEST_CACHE_SIZE must be positive, got %d", c.Cache.ManifestCacheSize)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("invalid config: rate limit needs positive RATE_LIMIT_RPS and RATE_LIMIT_BURST")
	}
	return nil
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8000",
			Host: "0.0.0.0",
		},
		Runtime: RuntimeConfig{
			AppsDir:        "./apps",
			SystemLanguage: "en-US",
			LocaleRegion:   "US",
		},
		Sandbox: SandboxConfig{
			Timeout: 5 * time.Second,
			Console: true,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Cache: CacheConfig{
			ManifestCacheSize: 256,
		},
	}
}
