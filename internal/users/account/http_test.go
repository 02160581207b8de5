// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sonora/internal/platform/authz"
	"github.com/taibuivan/sonora/internal/platform/middleware"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

/*
TestHandler_UpgradeMidSession verifies that an upgrade unlocks premium routes on
the next request with the same access token.
*/
func TestHandler_UpgradeMidSession(t *testing.T) {
	repository := newFakeAccountRepository(standardUser("listener"))
	service := NewService(repository, discardLogger)
	handler := NewHandler(service)

	codec, err := sec.NewTokenCodec("account-handler-secret-0123456789abcdef", "sonora.test", time.Hour, 24*time.Hour)
	require.NoError(t, err)

	policy, err := authz.NewPolicy(authz.DefaultRules("/api/v1"), service)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(middleware.Authenticate(codec), middleware.Authorize(policy))
	router.Route("/api/v1", func(r chi.Router) {
		r.Mount("/accounts", handler.AccountRoutes())
		r.Mount("/user", handler.UserRoutes())
		r.Mount("/premium", handler.PremiumRoutes())
	})

	token, err := codec.Issue(sec.Subject{UserID: "listener", Email: "listener@sonora.app"}, sec.TokenAccess)
	require.NoError(t, err)

	call := func(method, path string) int {
		request := httptest.NewRequest(method, path, nil)
		request.Header.Set("Authorization", "Bearer "+token.Value)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)
		return recorder.Code
	}

	// 1. STANDARD reaches the user area but not the premium area
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/user/profile"))
	assert.Equal(t, http.StatusForbidden, call(http.MethodGet, "/api/v1/premium/perks"))

	// 2. Upgrade, then a second upgrade conflicts
	assert.Equal(t, http.StatusOK, call(http.MethodPost, "/api/v1/accounts/upgrade"))
	assert.Equal(t, http.StatusConflict, call(http.MethodPost, "/api/v1/accounts/upgrade"))

	// 3. Same token, next request: premium area is open
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/premium/perks"))
	assert.Equal(t, http.StatusOK, call(http.MethodGet, "/api/v1/accounts/subscription"))
}

/*
TestHandler_Anonymous verifies that the policy rejects anonymous callers before the handlers.
*/
func TestHandler_Anonymous(t *testing.T) {
	service := NewService(newFakeAccountRepository(), discardLogger)
	policy, err := authz.NewPolicy(authz.DefaultRules("/api/v1"), service)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Use(middleware.Authorize(policy))
	router.Mount("/api/v1/accounts", NewHandler(service).AccountRoutes())

	for _, path := range []string{"/api/v1/accounts/subscription", "/api/v1/accounts/upgrade"} {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusUnauthorized, recorder.Code, path)
	}
}
