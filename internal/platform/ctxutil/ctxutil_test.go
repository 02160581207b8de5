// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package ctxutil_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

/*
TestContext_RequestID verifies that Request IDs can be injected and retrieved.
*/
func TestContext_RequestID(t *testing.T) {
	ctx := context.Background()
	requestID := "test-request-id"

	// 1. Initially should be empty
	assert.Empty(t, ctxutil.GetRequestID(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithRequestID(ctx, requestID)
	assert.Equal(t, requestID, ctxutil.GetRequestID(ctx))
}

/*
TestContext_Logger verifies that a custom logger can be stored in context.
*/
func TestContext_Logger(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	// 1. Initially should return the default logger
	assert.Equal(t, slog.Default(), ctxutil.GetLogger(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithLogger(ctx, logger)
	assert.Equal(t, logger, ctxutil.GetLogger(ctx))
}

/*
TestContext_AuthUser verifies that AuthClaims can be stored in context.
*/
func TestContext_AuthUser(t *testing.T) {
	ctx := context.Background()
	claims := &sec.AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "listener@example.com"},
		UserID:           "user-123",
		Kind:             sec.TokenAccess,
	}

	// 1. Initially should be nil
	assert.Nil(t, ctxutil.GetAuthUser(ctx))

	// 2. Inject and retrieve
	ctx = ctxutil.WithAuthUser(ctx, claims)
	retrieved := ctxutil.GetAuthUser(ctx)

	assert.NotNil(t, retrieved)
	assert.Equal(t, "user-123", retrieved.UserID)
	assert.Equal(t, "listener@example.com", retrieved.Email())
}

/*
TestContext_AuthUserTagsLogger verifies that later log lines name the caller.
*/
func TestContext_AuthUserTagsLogger(t *testing.T) {
	var output bytes.Buffer
	ctx := ctxutil.WithLogger(context.Background(), slog.New(slog.NewJSONHandler(&output, nil)))

	// 1. Anonymous requests have no user id
	assert.Empty(t, ctxutil.UserID(ctx))

	// 2. Claims tag the request logger
	ctx = ctxutil.WithAuthUser(ctx, &sec.AuthClaims{UserID: "user-123", Kind: sec.TokenAccess})
	ctxutil.GetLogger(ctx).Info("grant_issued")

	assert.Equal(t, "user-123", ctxutil.UserID(ctx))
	assert.Contains(t, output.String(), `"user_id":"user-123"`)
	assert.Contains(t, output.String(), `"msg":"grant_issued"`)

	// 3. Nil claims stay anonymous
	assert.Nil(t, ctxutil.GetAuthUser(ctxutil.WithAuthUser(context.Background(), nil)))
}
