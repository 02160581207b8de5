// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package config_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sonora/internal/platform/config"
)

const testSecret = "0123456789abcdef0123456789abcdef"

/*
TestLoad_Defaults verifies that unset optional variables fall back to their defaults.
*/
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sonora")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 15*time.Minute, cfg.GrantTTL)
	assert.Equal(t, 30*time.Minute, cfg.GrantSweepInterval)
	assert.Equal(t, time.Hour, cfg.JWTAccessTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.JWTRefreshTTL)
	assert.Equal(t, config.GrantStorePostgres, cfg.GrantStore)
	assert.False(t, cfg.EventsEnabled())
	assert.True(t, cfg.IsDevelopment())
}

/*
TestLoad_ListsAndOverrides verifies comma-separated lists and duration overrides.
*/
func TestLoad_ListsAndOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/sonora")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("ALLOWED_ORIGINS", "https://sonora.app")
	t.Setenv("GRANT_TTL", "5m")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://sonora.app"}, cfg.AllowedOrigins)
	assert.Equal(t, 5*time.Minute, cfg.GrantTTL)
	assert.True(t, cfg.EventsEnabled())
}

/*
TestValidate_Rejections covers the cross-field constraints.
*/
func TestValidate_Rejections(t *testing.T) {
	base := func() config.Config {
		return config.Config{
			JWTSecret:          testSecret,
			JWTAccessTTL:       time.Hour,
			JWTRefreshTTL:      time.Hour,
			GrantTTL:           time.Minute,
			GrantSweepInterval: time.Minute,
			GrantStore:         config.GrantStorePostgres,
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		errMsg string
	}{
		{"short_secret", func(c *config.Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"unknown_store", func(c *config.Config) { c.GrantStore = "mongo" }, "GRANT_STORE"},
		{"redis_without_url", func(c *config.Config) { c.GrantStore = config.GrantStoreRedis }, "REDIS_URL"},
		{"zero_grant_ttl", func(c *config.Config) { c.GrantTTL = 0 }, "GRANT_TTL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.errMsg), err.Error())
		})
	}

	valid := base()
	assert.NoError(t, valid.Validate())
}
