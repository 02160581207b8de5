// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/sonora/internal/platform/request"
	"github.com/taibuivan/sonora/internal/platform/respond"
)

// Handler implements the HTTP layer for subscriptions and tiered areas.
//
// # Security
//
// Tier gates are enforced by the authorization policy before these handlers
// run; the handlers only require an authenticated caller.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// AccountRoutes is mounted at /accounts.
func (handler *Handler) AccountRoutes() chi.Router {
	router := chi.NewRouter()
	router.Post("/upgrade", handler.upgrade)
	router.Get("/subscription", handler.subscription)
	return router
}

// UserRoutes is mounted at /user (STANDARD tier and above).
func (handler *Handler) UserRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/profile", handler.profile)
	return router
}

// PremiumRoutes is mounted at /premium (PREMIUM tier only).
func (handler *Handler) PremiumRoutes() chi.Router {
	router := chi.NewRouter()
	router.Get("/perks", handler.perks)
	return router
}

/*
POST /api/v1/accounts/upgrade.

Response:
  - 200: UpgradeResult
  - 401: Authentication required
  - 409: Already premium
*/
func (handler *Handler) upgrade(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	result, err := handler.accountService.UpgradeToPremium(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, result)
}

/*
GET /api/v1/accounts/subscription.

Response:
  - 200: Subscription
  - 401: Authentication required
*/
func (handler *Handler) subscription(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	subscription, err := handler.accountService.Subscription(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, subscription)
}

// GET /api/v1/user/profile.
func (handler *Handler) profile(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.Profile(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// GET /api/v1/premium/perks.
func (handler *Handler) perks(writer http.ResponseWriter, request *http.Request) {
	if _, err := requestutil.RequiredUserID(request); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, handler.accountService.PremiumPerks())
}
