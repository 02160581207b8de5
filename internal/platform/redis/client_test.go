// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package redis

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/*
TestNewClient_InvalidURL verifies that a bad URL fails before dialing.
*/
func TestNewClient_InvalidURL(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, raw := range []string{"localhost:6379", "http://localhost:6379", "redis://localhost:6379/not-a-db"} {
		t.Run(raw, func(t *testing.T) {
			_, err := NewClient(context.Background(), raw, logger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "redis: invalid URL")
		})
	}
}
