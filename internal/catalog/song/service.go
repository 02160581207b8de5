// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package song

import (
	"context"
	"fmt"
	"strings"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/pkg/pagination"
)

// maxQueryLength bounds the title search term.
const maxQueryLength = 100

// Service exposes catalog reads.
type Service struct {
	repository Repository
}

// NewService constructs a new catalog [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// Find returns one song, or NotFound.
func (service *Service) Find(context context.Context, id string) (*Song, error) {
	song, err := service.repository.FindByID(context, id)
	if err != nil {
		if apperr.IsAppError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("song_service_find_failed: %w", err)
	}
	return song, nil
}

/*
List returns one page of the catalog.

Parameters:
  - context: context.Context
  - query: string (title search, may be empty)
  - page: pagination.Params

Returns:
  - []*Song: The page
  - pagination.Meta: Page metadata
  - error: Validation or storage failures
*/
func (service *Service) List(context context.Context, query string, page pagination.Params) ([]*Song, pagination.Meta, error) {
	query = strings.TrimSpace(query)
	if len(query) > maxQueryLength {
		return nil, pagination.Meta{}, apperr.ValidationError("Search query is too long",
			apperr.FieldError{Field: "q", Message: fmt.Sprintf("must be at most %d characters", maxQueryLength)})
	}

	songs, total, err := service.repository.List(context, Filter{
		Query:  query,
		Limit:  page.Limit,
		Offset: page.Offset(),
	})
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("song_service_list_failed: %w", err)
	}

	return songs, pagination.NewMeta(page.Page, page.Limit, total), nil
}
