// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a .env file, an optional YAML file and the environment.
// - Validation errors wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"time"
)

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the key-value backend for the record store.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database file when StoreDriver is sqlite.
	StorePath string `koanf:"store_path"`

	// InferenceLatencyMinMS and InferenceLatencyMaxMS bound the simulated
	// model inference delay applied to each evaluation.
	InferenceLatencyMinMS int `koanf:"inference_latency_min_ms"`
	InferenceLatencyMaxMS int `koanf:"inference_latency_max_ms"`

	// StrictValidation rejects survey inputs outside their documented ranges.
	StrictValidation bool `koanf:"strict_validation"`

	// Timezone is the IANA zone used for display dates and timeline buckets.
	Timezone string `koanf:"timezone"`

	// ActivityLimit caps how many activity entries the overview returns.
	ActivityLimit int `koanf:"activity_limit"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		StoreDriver:           StoreMemory,
		StorePath:             "childhealth.db",
		InferenceLatencyMinMS: 1000,
		InferenceLatencyMaxMS: 1500,
		StrictValidation:      false,
		Timezone:              "Local",
		ActivityLimit:         10,
	}
}

// Location resolves Timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", ErrInvalidConfig, c.Timezone, err)
	}
	return loc, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.StoreDriver != StoreMemory && c.StoreDriver != StoreSQLite:
		return fmt.Errorf("%w: unknown store_driver %q", ErrInvalidConfig, c.StoreDriver)
	case c.StoreDriver == StoreSQLite && c.StorePath == "":
		return fmt.Errorf("%w: store_path must not be empty for sqlite", ErrInvalidConfig)
	case c.InferenceLatencyMinMS < 0 || c.InferenceLatencyMaxMS < c.InferenceLatencyMinMS:
		return fmt.Errorf("%w: inference latency range [%d, %d] is invalid", ErrInvalidConfig, c.InferenceLatencyMinMS, c.InferenceLatencyMaxMS)
	case c.ActivityLimit < 1:
		return fmt.Errorf("%w: activity_limit must be positive", ErrInvalidConfig)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
