// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/database/schema"
	"github.com/taibuivan/sonora/internal/platform/dberr"
)

// PostgresStore implements [GrantStore] on the download.grant table.
//
// Redemption is a single conditional UPDATE; row-level locking in Postgres
// serializes concurrent attempts on the same grant.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a grant store backed by pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var grantColumns = schema.Select(schema.DownloadGrant.Columns())

func scanGrant(row pgx.Row) (*Grant, error) {
	grant := &Grant{}
	err := row.Scan(
		&grant.ID,
		&grant.IdentityID,
		&grant.SongID,
		&grant.CreatedAt,
		&grant.ExpiresAt,
		&grant.Used,
		&grant.UsedAt,
	)
	if err != nil {
		return nil, err
	}
	return grant, nil
}

/*
Insert persists a new grant.

Parameters:
  - context: context.Context
  - grant: *Grant

Returns:
  - error: ErrGrantExists on primary key collision, NotFound when a referenced row is gone
*/
func (store *PostgresStore) Insert(context context.Context, grant *Grant) error {
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		schema.DownloadGrant.Table, grantColumns)

	_, err := store.pool.Exec(context, query,
		grant.ID,
		grant.IdentityID,
		grant.SongID,
		grant.CreatedAt,
		grant.ExpiresAt,
		grant.Used,
		grant.UsedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrGrantExists
		}
		// The identity or song was deleted after the issue checks
		if dberr.IsForeignKeyViolation(err) {
			return apperr.NotFound("Song")
		}
		return fmt.Errorf("postgres_grant_store_insert_failed: %w", err)
	}

	return nil
}

/*
Redeem consumes a grant with one conditional update.

On a miss, a follow-up read classifies the reason for the logs. The read is
never used to decide the outcome.

Parameters:
  - context: context.Context
  - grantID: string
  - identityID: string
  - now: time.Time

Returns:
  - *Grant: The consumed row
  - error: *NotRedeemableError or storage failures
*/
func (store *PostgresStore) Redeem(context context.Context, grantID, identityID string, now time.Time) (*Grant, error) {
	table := schema.DownloadGrant

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = true, %s = $3
		WHERE %s = $1 AND %s = $2 AND %s = false AND %s > $3
		RETURNING %s`,
		table.Table,
		table.Used, table.UsedAt,
		table.ID, table.IdentityID, table.Used, table.ExpiresAt,
		grantColumns,
	)

	grant, err := scanGrant(store.pool.QueryRow(context, query, grantID, identityID, now))
	if err == nil {
		return grant, nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("postgres_grant_store_redeem_failed: %w", err)
	}

	return nil, store.explainMiss(context, grantID, identityID, now)
}

// explainMiss reads the grant after a CAS miss to name the reason.
func (store *PostgresStore) explainMiss(context context.Context, grantID, identityID string, now time.Time) error {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		grantColumns, schema.DownloadGrant.Table, schema.DownloadGrant.ID)

	grant, err := scanGrant(store.pool.QueryRow(context, query, grantID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return missed(MissNotFound)
		}
		return fmt.Errorf("postgres_grant_store_explain_failed: %w", err)
	}

	return missed(classifyMiss(grant, identityID, now))
}

/*
DeleteExpired removes one batch of expired grants.

Parameters:
  - context: context.Context
  - now: time.Time
  - limit: int (zero or less removes every expired grant)

Returns:
  - int: Rows deleted
  - error: Storage failures
*/
func (store *PostgresStore) DeleteExpired(context context.Context, now time.Time, limit int) (int, error) {
	table := schema.DownloadGrant

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE %s IN (
			SELECT %s FROM %s
			WHERE %s < $1
			ORDER BY %s
			LIMIT $2
		)`,
		table.Table, table.ID,
		table.ID, table.Table,
		table.ExpiresAt,
		table.ExpiresAt,
	)

	// LIMIT NULL removes the bound
	var bound any = limit
	if limit <= 0 {
		bound = nil
	}

	tag, err := store.pool.Exec(context, query, now, bound)
	if err != nil {
		return 0, fmt.Errorf("postgres_grant_store_delete_expired_failed: %w", err)
	}

	return int(tag.RowsAffected()), nil
}
