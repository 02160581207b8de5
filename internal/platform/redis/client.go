// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package redis connects the optional Redis download grant store.

A grant is a hash with a key expiry, and one sorted set indexes every grant by
its expiry time for the sweeper. Inserts and redemptions run as Lua scripts so
each mutation of a grant is a single server-side step.

The client targets a single node. The grant scripts touch the hash and the
expiry index together, which a cluster would place on different slots.
*/
package redis

import (
	stdctx "context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sonora/internal/platform/constants"
)

const (
	dialTimeout  = 3 * time.Second
	ioTimeout    = 2 * time.Second
	pingTimeout  = 2 * time.Second
	poolSize     = 10
	minIdleConns = 2
)

/*
NewClient connects to redisURL and caches scripts on the server.

Parameters:
  - context: bounds the startup ping and script loading
  - redisURL: redis:// or rediss:// URL
  - logger: *slog.Logger
  - scripts: Lua scripts the caller will run with EVALSHA

Returns:
  - *redis.Client: ready for use
  - error: invalid URL, unreachable server, or a script the server rejected
*/
func NewClient(context stdctx.Context, redisURL string, logger *slog.Logger, scripts ...*redis.Script) (*redis.Client, error) {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid URL: %w", err)
	}

	options.ClientName = constants.AppName
	options.PoolSize = poolSize
	options.MinIdleConns = minIdleConns
	options.DialTimeout = dialTimeout
	options.ReadTimeout = ioTimeout
	options.WriteTimeout = ioTimeout

	client := redis.NewClient(options)

	if err := Ping(context, client); err != nil {
		_ = client.Close()
		return nil, err
	}

	if err := Preload(context, client, scripts...); err != nil {
		_ = client.Close()
		return nil, err
	}

	logger.Info("redis_connected",
		slog.String("addr", options.Addr),
		slog.Int("db", options.DB),
		slog.Int("scripts", len(scripts)),
	)

	return client, nil
}

// Preload runs SCRIPT LOAD for each script.
//
// [redis.Script.Run] falls back to EVAL when the cache is cold, so this only
// moves a script error from the first redemption to startup.
func Preload(context stdctx.Context, client redis.Scripter, scripts ...*redis.Script) error {
	for _, script := range scripts {
		if err := script.Load(context, client).Err(); err != nil {
			return fmt.Errorf("redis: load script %s: %w", script.Hash(), err)
		}
	}
	return nil
}

// Ping checks the server within pingTimeout.
func Ping(context stdctx.Context, client redis.UniversalClient) error {
	pingCtx, cancel := stdctx.WithTimeout(context, pingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("redis: ping failed: %w", err)
	}
	return nil
}

// Check adapts [Ping] to a readiness probe.
func Check(client redis.UniversalClient) func(stdctx.Context) error {
	return func(context stdctx.Context) error {
		return Ping(context, client)
	}
}
