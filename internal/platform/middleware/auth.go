// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/authz"
	"github.com/taibuivan/sonora/internal/platform/constants"
	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	"github.com/taibuivan/sonora/internal/platform/respond"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// Defining it here decouples the middleware from the [sec.TokenCodec]
// implementation, allowing fakes during unit testing.
type TokenVerifier interface {
	VerifyKind(tokenString string, kind sec.TokenKind) (*sec.AuthClaims, error)
}

// AccessPolicy decides whether a resolved caller may reach a path.
type AccessPolicy interface {
	Check(ctx context.Context, path string, claims *sec.AuthClaims) (authz.Decision, error)
}

// Authenticate extracts and verifies the access token from the Authorization header.
//
// # Flow
//  1. No 'Authorization' header: request proceeds as anonymous.
//  2. Header present: it must be 'Bearer <token>' carrying a valid ACCESS token.
//  3. Any failure rejects the request with 401 INVALID_TOKEN.
//  4. Verified [*sec.AuthClaims] are injected into the request context, and the
//     request logger is enriched with the caller's id.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			authHeader := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────
			if authHeader == "" {
				next.ServeHTTP(writer, request)
				return
			}

			logger := ctxutil.GetLogger(request.Context())

			// ── 2. Format Validation ──────────────────────────────────────────
			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, constants.TokenTypeBearer) || strings.TrimSpace(tokenString) == "" {
				logger.Warn("token_rejected", slog.String("reason", "malformed_header"))
				respond.Error(writer, request, apperr.InvalidToken())
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────
			claims, err := verifier.VerifyKind(strings.TrimSpace(tokenString), sec.TokenAccess)
			if err != nil {
				logger.Warn("token_rejected", slog.String("reason", err.Error()))
				respond.Error(writer, request, apperr.InvalidToken())
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────
			next.ServeHTTP(writer, request.WithContext(ctxutil.WithAuthUser(request.Context(), claims)))
		})
	}
}

// Authorize enforces the route table of an [AccessPolicy].
//
// # Usage
//
// Must be registered in the router AFTER [Authenticate] and any path
// cleaning middleware. The policy is evaluated on the path the router
// dispatches on, so "//" and ".." segments cannot steer a request past a rule.
//
// # Outcomes
//   - NOT_AUTHENTICATED: 401 Unauthorized
//   - INSUFFICIENT_TIER: 403 UPGRADE_REQUIRED
//   - Policy lookup failure: 500, logged with its cause
func Authorize(policy AccessPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			ctx := request.Context()
			claims := ctxutil.GetAuthUser(ctx)

			decision, err := policy.Check(ctx, routingPath(request), claims)
			if err != nil {
				respond.Error(writer, request, apperr.Internal(err))
				return
			}

			if decision.Allowed {
				next.ServeHTTP(writer, request)
				return
			}

			ctxutil.GetLogger(ctx).Warn("access_denied",
				slog.String("reason", string(decision.Reason)),
				slog.String("requirement", string(decision.Requirement)),
				slog.String("pattern", decision.Pattern),
			)

			switch decision.Reason {
			case authz.ReasonInsufficientTier:
				respond.Error(writer, request, apperr.UpgradeRequired())
			default:
				respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			}
		})
	}
}

// routingPath returns the cleaned path chi routes the request on.
func routingPath(request *http.Request) string {
	if routeContext := chi.RouteContext(request.Context()); routeContext != nil && routeContext.RoutePath != "" {
		return path.Clean(routeContext.RoutePath)
	}

	routePath := request.URL.Path
	if request.URL.RawPath != "" {
		routePath = request.URL.RawPath
	}
	if routePath == "" {
		return "/"
	}
	return path.Clean(routePath)
}

// RequireAuth blocks requests that are not authenticated.
//
// Handlers mounted outside the policy table (or tests wiring a single
// router) use it as a local guard.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetAuthUser(request.Context()) == nil {
			respond.Error(writer, request, apperr.Unauthorized("Authentication required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}
