// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/sonora/internal/catalog/song"
	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/constants"
	"github.com/taibuivan/sonora/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/sonora/internal/platform/request"
	"github.com/taibuivan/sonora/internal/platform/respond"
	"github.com/taibuivan/sonora/internal/platform/validate"
	"github.com/taibuivan/sonora/pkg/slug"
)

const defaultExtension = ".mp3"

// Disposition selects how the browser should treat a redeemed asset.
type Disposition int

const (
	// Attachment saves the file.
	Attachment Disposition = iota
	// Inline plays the file in place.
	Inline
)

// Handler implements the download endpoints.
type Handler struct {
	manager *Manager
	fetcher AssetFetcher
}

// NewHandler constructs a new download [Handler].
func NewHandler(manager *Manager, fetcher AssetFetcher) *Handler {
	return &Handler{manager: manager, fetcher: fetcher}
}

// Routes is mounted at /download.
//
// # Endpoints
//   - POST /token             : Issues a grant (PREMIUM only).
//   - GET  /{grantId}         : Redeems and downloads as an attachment.
//   - GET  /stream/{grantId}  : Redeems and streams inline.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Post("/token", handler.issue)
	router.Get("/stream/{grantId}", handler.stream)
	router.Get("/{grantId}", handler.download)
	return router
}

type issueRequest struct {
	SongID string `json:"songId"`
}

/*
POST /api/v1/download/token.

Request:
  - Body: issueRequest (SongID)

Response:
  - 200: Descriptor
  - 403: UPGRADE_REQUIRED
  - 404: Song or audio file not found
*/
func (handler *Handler) issue(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input issueRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, validate.ErrInvalidJSON)
		return
	}

	validator := &validate.Validator{}
	validator.Required("songId", input.SongID).UUID("songId", input.SongID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	descriptor, err := handler.manager.IssueGrant(request.Context(), userID, input.SongID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, descriptor)
}

// GET /api/v1/download/{grantId}
func (handler *Handler) download(writer http.ResponseWriter, request *http.Request) {
	handler.serve(writer, request, Attachment)
}

// GET /api/v1/download/stream/{grantId}
func (handler *Handler) stream(writer http.ResponseWriter, request *http.Request) {
	handler.serve(writer, request, Inline)
}

// serve redeems the grant and copies the asset to the client.
func (handler *Handler) serve(writer http.ResponseWriter, request *http.Request, disposition Disposition) {
	ctx := request.Context()

	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, apperr.GrantUnauthorized())
		return
	}

	redemption, err := handler.manager.Redeem(ctx, requestutil.Param(request, "grantId"), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	asset, err := handler.fetcher.Open(ctx, redemption.Song.AudioURL)
	if err != nil {
		ctxutil.GetLogger(ctx).Error("asset_open_failed",
			slog.String("song_id", redemption.Song.ID),
			slog.Any("error", err),
		)
		if errors.Is(err, ErrAssetUnavailable) {
			respond.Error(writer, request, apperr.ServiceUnavailable("Audio file is temporarily unavailable").WithCause(err))
			return
		}
		respond.Error(writer, request, err)
		return
	}
	defer asset.Body.Close()

	header := writer.Header()
	header.Set(constants.HeaderCacheControl, constants.NoStoreCacheControl)
	header.Set(constants.HeaderPragma, "no-cache")
	header.Set(constants.HeaderExpires, "0")
	header.Set(constants.HeaderContentTypeOptions, "nosniff")

	switch disposition {
	case Inline:
		header.Set("Content-Type", constants.ContentTypeAudioMPEG)
		header.Set(constants.HeaderContentDisposition, "inline")
	default:
		header.Set("Content-Type", constants.ContentTypeOctetStream)
		header.Set(constants.HeaderContentDisposition, AttachmentDisposition(Filename(redemption.Song)))
	}

	if asset.Size >= 0 {
		header.Set("Content-Length", strconv.FormatInt(asset.Size, 10))
	}

	writer.WriteHeader(http.StatusOK)

	// Headers are sent; a broken copy can only be logged
	if written, err := io.Copy(writer, asset.Body); err != nil {
		ctxutil.GetLogger(ctx).Warn("asset_copy_interrupted",
			slog.Int64("bytes", written),
			slog.Any("error", err),
		)
	}
}

// # Filenames

// Filename derives "<title> - <artists><ext>" from a song, taking the
// extension from its audio location.
func Filename(track *song.Song) string {
	extension := defaultExtension
	if parsed, err := url.Parse(track.AudioURL); err == nil {
		if ext := path.Ext(parsed.Path); ext != "" && len(ext) <= 5 {
			extension = strings.ToLower(ext)
		}
	}

	title := strings.TrimSpace(track.Title)
	if title == "" {
		title = "song_" + track.ID
	}

	return title + " - " + track.ArtistLine() + extension
}

// AttachmentDisposition renders an attachment header with an ASCII fallback
// and an RFC 5987 UTF-8 filename.
func AttachmentDisposition(filename string) string {
	encoded := strings.ReplaceAll(url.QueryEscape(filename), "+", "%20")
	return `attachment; filename="` + slug.Filename(filename) + `"; filename*=UTF-8''` + encoded
}
