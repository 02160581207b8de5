// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api wires together the HTTP router, middleware chain, and all
domain handlers into a runnable [http.Server].

Architecture:

  - This package is the topmost Presentation layer boundary.
  - It acts as the central composition root for the HTTP transport framework (chi router).
  - Only this package and cmd/api are allowed to import net/http server primitives.
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/taibuivan/sonora/internal/catalog/song"
	"github.com/taibuivan/sonora/internal/download"
	"github.com/taibuivan/sonora/internal/platform/config"
	"github.com/taibuivan/sonora/internal/platform/constants"
	"github.com/taibuivan/sonora/internal/platform/metrics"
	"github.com/taibuivan/sonora/internal/platform/middleware"
	"github.com/taibuivan/sonora/internal/users/account"
	"github.com/taibuivan/sonora/internal/users/auth"
)

// # Server Definitions

// Server wraps the chi router and the [http.Server].
//
// It is constructed once in main.go with all dependencies injected.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        *slog.Logger
}

// # Handler Registry

// Handlers groups all domain-specific HTTP handler sets.
type Handlers struct {
	// Liveness is the /health handler, 200 while the process is alive.
	Liveness http.HandlerFunc

	// Readiness is the /ready handler, 200 when all deps are healthy.
	Readiness http.HandlerFunc

	// Auth handles registration, login, and token refresh.
	Auth *auth.Handler

	// Songs serves the public catalog.
	Songs *song.Handler

	// Accounts manages subscriptions and tier-gated areas.
	Accounts *account.Handler

	// Download issues and redeems one-time download grants.
	Download *download.Handler
}

// Guards holds the request gateway: token verification and the route policy.
type Guards struct {
	Verifier middleware.TokenVerifier
	Policy   middleware.AccessPolicy
}

// # Server Initialization

/*
NewServer constructs the chi router with the full middleware chain and
registers all route groups.

Parameters:
  - cfg: *config.Config
  - log: *slog.Logger
  - guards: Guards (authentication and authorization)
  - telemetry: *metrics.Metrics
  - h: Handlers
*/
func NewServer(cfg *config.Config, log *slog.Logger, guards Guards, telemetry *metrics.Metrics, h Handlers) *Server {
	r := chi.NewRouter()

	// # Middleware Chain
	// Global middleware applied in order of execution.
	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(log))
	r.Use(telemetry.Instrument)
	r.Use(middleware.PanicRecovery(log))
	r.Use(middleware.CORS(cfg, cfg.AllowedOrigins))
	r.Use(chimw.CleanPath)
	r.Use(middleware.Authenticate(guards.Verifier))
	r.Use(middleware.Authorize(guards.Policy))

	// # Infrastructure Endpoints
	r.Get("/health", h.Liveness)
	r.Get("/ready", h.Readiness)
	r.Handle("/metrics", telemetry.Handler())

	// # Application API
	r.Route(constants.APIPrefix, func(api chi.Router) {

		// JSON endpoints share a request deadline
		api.Group(func(jsonAPI chi.Router) {
			jsonAPI.Use(chimw.Timeout(constants.GlobalRequestTimeout))
			jsonAPI.Mount("/auth", h.Auth.Routes())
			jsonAPI.Mount("/songs", h.Songs.Routes())
			jsonAPI.Mount("/accounts", h.Accounts.AccountRoutes())
			jsonAPI.Mount("/user", h.Accounts.UserRoutes())
			jsonAPI.Mount("/premium", h.Accounts.PremiumRoutes())
		})

		// Asset streams are bounded by the server write timeout only
		api.Mount("/download", h.Download.Routes())
	})

	return &Server{
		router: r,
		log:    log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           r,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
		},
	}
}

// Handler exposes the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// # Server Lifecycle

// ListenAndServe starts the HTTP server.
//
// It blocks until the server is closed or an error occurs.
func (s *Server) ListenAndServe() error {
	s.log.Info("server_starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting for in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(context)
}
