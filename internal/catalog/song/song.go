// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package song implements the public song catalog.

It serves browsing endpoints and is the asset lookup used by the download
grant manager to resolve a song's title, artists, size, and audio location.
*/
package song

import (
	"context"
	"strings"
	"time"

	"github.com/taibuivan/sonora/internal/platform/constants"
)

// UnknownArtist is displayed when a song has no credited artist.
const UnknownArtist = "Unknown Artist"

// # Domain Entities

// Song is a catalog entry with its audio asset location.
type Song struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Artists         []string   `json:"artists"`
	AlbumTitle      string     `json:"albumTitle,omitempty"`
	ReleaseDate     *time.Time `json:"releaseDate,omitempty"`
	DurationSeconds float64    `json:"durationSeconds"`
	Listens         int64      `json:"listens"`
	Likes           int64      `json:"likes"`
	AudioURL        string     `json:"audioUrl,omitempty"`
	CoverURL        string     `json:"coverUrl,omitempty"`
	FileSizeBytes   int64      `json:"fileSizeBytes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// ArtistLine joins credited artists for display.
func (song *Song) ArtistLine() string {
	names := make([]string, 0, len(song.Artists))
	for _, artist := range song.Artists {
		if trimmed := strings.TrimSpace(artist); trimmed != "" {
			names = append(names, trimmed)
		}
	}
	if len(names) == 0 {
		return UnknownArtist
	}
	return strings.Join(names, ", ")
}

// SizeBytes returns the recorded file size, or the default estimate.
func (song *Song) SizeBytes() int64 {
	if song.FileSizeBytes > 0 {
		return song.FileSizeBytes
	}
	return constants.DefaultAssetSizeBytes
}

// HasAudio reports whether the song has a downloadable asset.
func (song *Song) HasAudio() bool {
	return strings.TrimSpace(song.AudioURL) != ""
}

// # Filters

// Filter narrows a catalog listing.
type Filter struct {
	// Query matches titles case-insensitively.
	Query  string
	Limit  int
	Offset int
}

// # Repository Contracts

// Repository defines read access to the catalog.
type Repository interface {

	/*
		FindByID returns a single song.

		Parameters:
		  - context: context.Context
		  - id: string

		Returns:
		  - *Song: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*Song, error)

	/*
		List returns one page of songs and the total match count.

		Parameters:
		  - context: context.Context
		  - filter: Filter

		Returns:
		  - []*Song: Page of songs ordered by listens, then title
		  - int: Total matches
		  - error: Storage failures
	*/
	List(context context.Context, filter Filter) ([]*Song, int, error)
}
