// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package song

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/sonora/internal/platform/request"
	"github.com/taibuivan/sonora/internal/platform/respond"
	"github.com/taibuivan/sonora/internal/platform/validate"
	"github.com/taibuivan/sonora/pkg/pagination"
)

// Handler serves the public catalog.
type Handler struct {
	service *Service
}

// NewHandler constructs a new catalog [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes is mounted at /songs.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.listSongs)
	router.Get("/{id}", handler.getSong)
	return router
}

// GET /api/v1/songs?q=&page=&limit=
func (handler *Handler) listSongs(writer http.ResponseWriter, request *http.Request) {
	songs, meta, err := handler.service.List(request.Context(), request.URL.Query().Get("q"), pagination.FromRequest(request))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.Paginated(writer, songs, meta)
}

// GET /api/v1/songs/{id}
func (handler *Handler) getSong(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.Param(request, "id")

	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	song, err := handler.service.Find(request.Context(), id)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}
	respond.OK(writer, song)
}
