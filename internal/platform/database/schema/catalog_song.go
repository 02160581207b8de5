// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CatalogSongTable represents the 'catalog.song' table
type CatalogSongTable struct {
	Table         string
	ID            string
	Title         string
	Artists       string
	AlbumTitle    string
	ReleaseDate   string
	Duration      string
	Listens       string
	Likes         string
	AudioURL      string
	CoverURL      string
	FileSizeBytes string
	CreatedAt     string
}

// CatalogSong is the schema definition for catalog.song
var CatalogSong = CatalogSongTable{
	Table:         "catalog.song",
	ID:            "id",
	Title:         "title",
	Artists:       "artists",
	AlbumTitle:    "albumtitle",
	ReleaseDate:   "releasedate",
	Duration:      "durationseconds",
	Listens:       "listens",
	Likes:         "likes",
	AudioURL:      "audiourl",
	CoverURL:      "coverurl",
	FileSizeBytes: "filesizebytes",
	CreatedAt:     "createdat",
}

func (t CatalogSongTable) Columns() []string {
	return []string{
		t.ID, t.Title, t.Artists, t.AlbumTitle, t.ReleaseDate, t.Duration,
		t.Listens, t.Likes, t.AudioURL, t.CoverURL, t.FileSizeBytes, t.CreatedAt,
	}
}
