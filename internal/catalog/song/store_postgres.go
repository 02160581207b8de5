// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package song

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sonora/internal/platform/database/schema"
	"github.com/taibuivan/sonora/internal/platform/dberr"
)

// PostgresRepository implements [Repository] on catalog.song.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of the Repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

var songColumns = schema.Select(schema.CatalogSong.Columns())

func scanSong(row pgx.Row) (*Song, error) {
	song := &Song{}
	err := row.Scan(
		&song.ID,
		&song.Title,
		&song.Artists,
		&song.AlbumTitle,
		&song.ReleaseDate,
		&song.DurationSeconds,
		&song.Listens,
		&song.Likes,
		&song.AudioURL,
		&song.CoverURL,
		&song.FileSizeBytes,
		&song.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// FindByID returns a single song by primary key.
func (repository *PostgresRepository) FindByID(context context.Context, id string) (*Song, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		songColumns, schema.CatalogSong.Table, schema.CatalogSong.ID)

	song, err := scanSong(repository.db.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Song", "postgres_song_repo_find_by_id_failed")
	}

	return song, nil
}

/*
List returns a page of songs matching filter.

Parameters:
  - context: context.Context
  - filter: Filter (empty Query lists everything)

Returns:
  - []*Song: The page
  - int: Total matches across all pages
  - error: Storage failures
*/
func (repository *PostgresRepository) List(context context.Context, filter Filter) ([]*Song, int, error) {
	table := schema.CatalogSong

	// $1 is empty for an unfiltered listing
	where := fmt.Sprintf(`($1 = '' OR %s ILIKE '%%' || $1 || '%%')`, table.Title)

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, table.Table, where)

	var total int
	if err := repository.db.QueryRow(context, countQuery, filter.Query).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "Song", "postgres_song_repo_count_failed")
	}

	listQuery := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s
		ORDER BY %s DESC, %s ASC
		LIMIT $2 OFFSET $3`,
		songColumns, table.Table, where, table.Listens, table.Title)

	rows, err := repository.db.Query(context, listQuery, filter.Query, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "Song", "postgres_song_repo_list_failed")
	}
	defer rows.Close()

	songs := make([]*Song, 0, filter.Limit)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, 0, dberr.Wrap(err, "Song", "postgres_song_repo_scan_failed")
		}
		songs = append(songs, song)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, dberr.Wrap(err, "Song", "postgres_song_repo_list_failed")
	}

	return songs, total, nil
}
