package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// ServerConfig contains the HTTP API listener settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port" validate:"gt=0,lte=65535"`
}

// DatabaseConfig selects the storage backend.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=memory sqlite postgres"`

	// DSN is the SQLite file path or PostgreSQL connection string.
	// Ignored by the memory driver.
	DSN string `yaml:"dsn"`
}

// FeedConfig describes the upstream GTFS archive and the refresh
// cadence.
type FeedConfig struct {
	URL             string        `yaml:"url" validate:"required,url"`
	FetchTimeout    time.Duration `yaml:"fetchTimeout" validate:"gte=0"`
	RefreshInterval time.Duration `yaml:"refreshInterval" validate:"gte=0"`
	FailureBackoff  time.Duration `yaml:"failureBackoff" validate:"gte=0"`
}

// Config is the root application configuration.
type Config struct {
	Feed     FeedConfig     `yaml:"feed" validate:"required"`
	Database DatabaseConfig `yaml:"database" validate:"required"`
	Server   ServerConfig   `yaml:"server" validate:"required"`

	// Timezone resolves "today" and "now" defaults in departure
	// queries.
	Timezone string `yaml:"timezone"`

	LogLevel string `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
}

// Load reads and validates a YAML configuration file, filling in
// defaults for anything omitted.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	if cfg.Database.Driver != "memory" && cfg.Database.DSN == "" {
		return nil, fmt.Errorf("validating config: database driver %q requires a dsn", cfg.Database.Driver)
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("validating config: unknown timezone %q", cfg.Timezone)
	}

	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Kyiv"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Feed.FetchTimeout == 0 {
		c.Feed.FetchTimeout = 60 * time.Second
	}
	if c.Feed.RefreshInterval == 0 {
		c.Feed.RefreshInterval = 7 * 24 * time.Hour
	}
	if c.Feed.FailureBackoff == 0 {
		c.Feed.FailureBackoff = 10 * time.Minute
	}
}

// Location returns the configured time zone, which Load has already
// verified to exist.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
