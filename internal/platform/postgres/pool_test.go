// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPinger records the deadline it was pinged with.
type stubPinger struct {
	err      error
	deadline time.Time
}

func (pinger *stubPinger) Ping(ctx context.Context) error {
	pinger.deadline, _ = ctx.Deadline()
	return pinger.err
}

/*
TestCheck verifies that the readiness probe bounds and wraps the ping.
*/
func TestCheck(t *testing.T) {
	// 1. Healthy pool, ping carries a deadline
	healthy := &stubPinger{}
	require.NoError(t, Check(healthy)(context.Background()))
	assert.False(t, healthy.deadline.IsZero())
	assert.WithinDuration(t, time.Now().Add(pingTimeout), healthy.deadline, time.Second)

	// 2. Failing pool keeps the cause
	refused := errors.New("connection refused")
	err := Check(&stubPinger{err: refused})(context.Background())
	assert.ErrorIs(t, err, refused)
	assert.Contains(t, err.Error(), "postgres: ping failed")
}

/*
TestNewPool_InvalidDSN verifies that a malformed DSN fails before dialing.
*/
func TestNewPool_InvalidDSN(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid DSN")
}
