// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSweepable struct {
	calls atomic.Int32
	err   error
}

func (target *countingSweepable) SweepExpired(context.Context) (int, error) {
	target.calls.Add(1)
	return 3, target.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

/*
TestSweeper_Run verifies the immediate sweep, the periodic ticks, and a clean stop.
*/
func TestSweeper_Run(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"healthy", nil},
		{"failing_store", errStorageDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := &countingSweepable{err: tt.err}
			sweeper := NewSweeper(target, 5*time.Millisecond, discardLogger())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- sweeper.Run(ctx) }()

			// Failures never stop the loop
			require.Eventually(t, func() bool { return target.calls.Load() >= 3 }, time.Second, time.Millisecond)

			cancel()
			select {
			case err := <-done:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("sweeper did not stop after cancellation")
			}
		})
	}
}

/*
TestSweeper_SweepsAtStart verifies that the first sweep does not wait for a tick.
*/
func TestSweeper_SweepsAtStart(t *testing.T) {
	target := &countingSweepable{}
	sweeper := NewSweeper(target, time.Hour, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = sweeper.Run(ctx) }()

	require.Eventually(t, func() bool { return target.calls.Load() == 1 }, time.Second, time.Millisecond)
}
