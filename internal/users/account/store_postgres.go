// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/sonora/internal/platform/database/schema"
	"github.com/taibuivan/sonora/internal/platform/dberr"
	"github.com/taibuivan/sonora/internal/platform/sec"
	"github.com/taibuivan/sonora/internal/users/auth"
)

// PostgresAccountRepository implements [AccountRepository] on users.account.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// FindByID retrieves an identity by primary key.
func (repository *PostgresAccountRepository) FindByID(context context.Context, id string) (*auth.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		auth.UserColumns, schema.UserAccount.Table, schema.UserAccount.ID)

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		return nil, dberr.Wrap(err, "Account", "postgres_account_repo_find_by_id_failed")
	}

	return user, nil
}

// TierOf reads only the tier column. It runs on every tier-gated request.
func (repository *PostgresAccountRepository) TierOf(context context.Context, id string) (sec.Tier, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.UserAccount.Tier, schema.UserAccount.Table, schema.UserAccount.ID)

	var tier sec.Tier
	if err := repository.pool.QueryRow(context, query, id).Scan(&tier); err != nil {
		return "", dberr.Wrap(err, "Account", "postgres_account_repo_tier_of_failed")
	}

	if !tier.Valid() {
		return "", fmt.Errorf("postgres_account_repo_tier_of_failed: unknown tier %q", tier)
	}

	return tier, nil
}

/*
ChangeTier performs a conditional tier update.

Parameters:
  - context: context.Context
  - id: string
  - from: sec.Tier (must match the stored tier)
  - to: sec.Tier

Returns:
  - *auth.User: The updated row
  - error: apperr.NotFound when the id is unknown or the tier already moved
*/
func (repository *PostgresAccountRepository) ChangeTier(context context.Context, id string, from, to sec.Tier) (*auth.User, error) {
	table := schema.UserAccount
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $3, %s = $4
		WHERE %s = $1 AND %s = $2
		RETURNING %s`,
		table.Table, table.Tier, table.UpdatedAt, table.ID, table.Tier, auth.UserColumns)

	user, err := auth.ScanUser(repository.pool.QueryRow(context, query, id, from, to, time.Now().UTC()))
	if err != nil {
		return nil, dberr.Wrap(err, "Account", "postgres_account_repo_change_tier_failed")
	}

	return user, nil
}
