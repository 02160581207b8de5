// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Kafka) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/taibuivan/sonora/internal/platform/constants"
)

// # Grant Store Backends

const (
	GrantStorePostgres = "postgres"
	GrantStoreRedis    = "redis"
	GrantStoreMemory   = "memory"
)

// # Configuration Schema

// Config holds all runtime configuration for the Sonora API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// PublicBaseURL prefixes the download links handed out with grants.
	// Empty keeps the links relative.
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Store (Redis). Required only when GrantStore is "redis".
	RedisURL string `env:"REDIS_URL"`

	// Session token signing
	JWTSecret     string        `env:"JWT_SECRET,required"`
	JWTAccessTTL  time.Duration `env:"JWT_ACCESS_TTL"  envDefault:"1h"`
	JWTRefreshTTL time.Duration `env:"JWT_REFRESH_TTL" envDefault:"168h"`

	// Download grants
	GrantTTL           time.Duration `env:"GRANT_TTL"            envDefault:"15m"`
	GrantSweepInterval time.Duration `env:"GRANT_SWEEP_INTERVAL" envDefault:"30m"`
	GrantStore         string        `env:"GRANT_STORE"          envDefault:"postgres"`
	AssetFetchTimeout  time.Duration `env:"ASSET_FETCH_TIMEOUT"  envDefault:"30s"`

	// Grant lifecycle events. Empty brokers disable publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC"   envDefault:"sonora.download.events"`

	// Cross-Origin Resource Sharing
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct and validates it.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cross-field constraints that struct tags cannot express.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < constants.MinJWTSecretLength {
		return fmt.Errorf("config: JWT_SECRET must be at least %d bytes", constants.MinJWTSecretLength)
	}

	switch c.GrantStore {
	case GrantStorePostgres, GrantStoreMemory:
	case GrantStoreRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("config: REDIS_URL is required when GRANT_STORE=%s", GrantStoreRedis)
		}
	default:
		return fmt.Errorf("config: unknown GRANT_STORE %q", c.GrantStore)
	}

	if c.GrantTTL <= 0 || c.GrantSweepInterval <= 0 {
		return fmt.Errorf("config: GRANT_TTL and GRANT_SWEEP_INTERVAL must be positive")
	}

	if c.JWTAccessTTL <= 0 || c.JWTRefreshTTL <= 0 {
		return fmt.Errorf("config: token lifetimes must be positive")
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// EventsEnabled reports whether grant lifecycle events should be published.
func (c *Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0
}
