// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Sweepable is the part of [Manager] the sweeper drives.
type Sweepable interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Sweeper periodically removes expired grants.
type Sweeper struct {
	target   Sweepable
	interval time.Duration
	logger   *slog.Logger
}

// NewSweeper creates a sweeper that runs every interval.
func NewSweeper(target Sweepable, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{target: target, interval: interval, logger: logger}
}

/*
Run sweeps once at start, then on every tick, until ctx is cancelled.

A failed sweep is logged and retried on the next tick; it never stops the loop.

Returns:
  - error: Always nil; the signature fits an errgroup
*/
func (sweeper *Sweeper) Run(ctx context.Context) error {
	sweeper.logger.Info("grant_sweeper_started", slog.Duration("interval", sweeper.interval))

	ticker := time.NewTicker(sweeper.interval)
	defer ticker.Stop()

	sweeper.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			sweeper.logger.Info("grant_sweeper_stopped")
			return nil
		case <-ticker.C:
			sweeper.sweep(ctx)
		}
	}
}

func (sweeper *Sweeper) sweep(ctx context.Context) {
	started := time.Now()

	deleted, err := sweeper.target.SweepExpired(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		sweeper.logger.Error("grant_sweep_failed",
			slog.Int("deleted", deleted),
			slog.Any("error", err),
		)
		return
	}

	sweeper.logger.Info("grant_sweep_completed",
		slog.Int("deleted", deleted),
		slog.Int64("duration_ms", time.Since(started).Milliseconds()),
	)
}
