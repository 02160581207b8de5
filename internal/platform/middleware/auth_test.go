// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/authz"
	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	"github.com/taibuivan/sonora/internal/platform/middleware"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

const testSecret = "middleware-test-secret-with-32-bytes!!"

func newCodec(t *testing.T) *sec.TokenCodec {
	t.Helper()
	codec, err := sec.NewTokenCodec(testSecret, "sonora.test", time.Hour, 24*time.Hour)
	require.NoError(t, err)
	return codec
}

// whoami echoes the authenticated user id, or "anonymous".
var whoami = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
	claims := ctxutil.GetAuthUser(request.Context())
	if claims == nil {
		_, _ = writer.Write([]byte("anonymous"))
		return
	}
	_, _ = writer.Write([]byte(claims.UserID))
})

func decodeCode(t *testing.T, recorder *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	code, _ := body["code"].(string)
	return code
}

/*
TestAuthenticate covers the gateway outcomes for each header shape.
*/
func TestAuthenticate(t *testing.T) {
	codec := newCodec(t)
	subject := sec.Subject{UserID: "user-1", Email: "ada@sonora.app"}

	access, err := codec.Issue(subject, sec.TokenAccess)
	require.NoError(t, err)
	refresh, err := codec.Issue(subject, sec.TokenRefresh)
	require.NoError(t, err)

	handler := middleware.Authenticate(codec)(whoami)

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantBody string
		wantErr  string
	}{
		{"anonymous", "", http.StatusOK, "anonymous", ""},
		{"valid_access", "Bearer " + access.Value, http.StatusOK, "user-1", ""},
		{"lowercase_scheme", "bearer " + access.Value, http.StatusOK, "user-1", ""},
		{"refresh_as_access", "Bearer " + refresh.Value, http.StatusUnauthorized, "", apperr.CodeInvalidToken},
		{"wrong_scheme", "Basic " + access.Value, http.StatusUnauthorized, "", apperr.CodeInvalidToken},
		{"missing_token", "Bearer ", http.StatusUnauthorized, "", apperr.CodeInvalidToken},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized, "", apperr.CodeInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()

			handler.ServeHTTP(recorder, request)

			assert.Equal(t, tt.wantCode, recorder.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeCode(t, recorder))
				return
			}
			assert.Equal(t, tt.wantBody, recorder.Body.String())
		})
	}
}

// stubPolicy returns a fixed decision.
type stubPolicy struct {
	decision authz.Decision
	err      error
}

func (policy stubPolicy) Check(context.Context, string, *sec.AuthClaims) (authz.Decision, error) {
	return policy.decision, policy.err
}

/*
TestAuthorize maps each policy decision onto its HTTP response.
*/
func TestAuthorize(t *testing.T) {
	tests := []struct {
		name     string
		policy   stubPolicy
		wantCode int
		wantErr  string
	}{
		{"allowed", stubPolicy{decision: authz.Decision{Allowed: true}}, http.StatusOK, ""},
		{"not_authenticated", stubPolicy{decision: authz.Decision{Reason: authz.ReasonNotAuthenticated}}, http.StatusUnauthorized, apperr.CodeUnauthorized},
		{"insufficient_tier", stubPolicy{decision: authz.Decision{Reason: authz.ReasonInsufficientTier}}, http.StatusForbidden, apperr.CodeUpgradeRequired},
		{"lookup_failure", stubPolicy{err: errors.New("connection refused")}, http.StatusInternalServerError, apperr.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			middleware.Authorize(tt.policy)(whoami).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/premium/perks", nil))

			assert.Equal(t, tt.wantCode, recorder.Code)
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, decodeCode(t, recorder))
			}
		})
	}
}

// tiers is a fixed [authz.TierResolver].
type tiers map[string]sec.Tier

func (table tiers) TierOf(_ context.Context, userID string) (sec.Tier, error) {
	tier, ok := table[userID]
	if !ok {
		return "", apperr.NotFound("Account")
	}
	return tier, nil
}

/*
TestGatewayChain runs Authenticate and Authorize together over the default route table.
*/
func TestGatewayChain(t *testing.T) {
	codec := newCodec(t)
	policy, err := authz.NewPolicy(authz.DefaultRules("/api/v1"), tiers{
		"standard-user": sec.TierStandard,
		"premium-user":  sec.TierPremium,
	})
	require.NoError(t, err)

	chain := middleware.Authenticate(codec)(middleware.Authorize(policy)(whoami))

	bearer := func(userID string) string {
		token, err := codec.Issue(sec.Subject{UserID: userID, Email: userID + "@sonora.app"}, sec.TokenAccess)
		require.NoError(t, err)
		return "Bearer " + token.Value
	}

	tests := []struct {
		name     string
		path     string
		header   string
		wantCode int
	}{
		{"public_song_anonymous", "/api/v1/songs/42", "", http.StatusOK},
		{"me_anonymous", "/api/v1/auth/me", "", http.StatusUnauthorized},
		{"download_standard", "/api/v1/download/token", bearer("standard-user"), http.StatusOK},
		{"premium_standard", "/api/v1/premium/perks", bearer("standard-user"), http.StatusForbidden},
		{"premium_premium", "/api/v1/premium/perks", bearer("premium-user"), http.StatusOK},
		{"bad_token_on_public_route", "/api/v1/songs/42", "Bearer tampered", http.StatusUnauthorized},
		{"premium_double_slash_standard", "/api/v1//premium/perks", bearer("standard-user"), http.StatusForbidden},
		{"premium_dot_segment_standard", "/api/v1/songs/../premium/perks", bearer("standard-user"), http.StatusForbidden},
		{"premium_trailing_slash_standard", "/api/v1/premium/perks/", bearer("standard-user"), http.StatusForbidden},
		{"me_dot_segment_anonymous", "/api/v1/songs/../auth/me", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			request := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				request.Header.Set("Authorization", tt.header)
			}
			recorder := httptest.NewRecorder()
			chain.ServeHTTP(recorder, request)
			assert.Equal(t, tt.wantCode, recorder.Code)
		})
	}
}

/*
TestRequireAuth verifies the local guard.
*/
func TestRequireAuth(t *testing.T) {
	recorder := httptest.NewRecorder()
	middleware.RequireAuth(whoami).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	request := httptest.NewRequest(http.MethodGet, "/", nil)
	request = request.WithContext(ctxutil.WithAuthUser(request.Context(), &sec.AuthClaims{UserID: "user-1"}))
	recorder = httptest.NewRecorder()
	middleware.RequireAuth(whoami).ServeHTTP(recorder, request)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "user-1", recorder.Body.String())
}
