// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"time"
)

// # Grant Data Access

// GrantStore persists grants and performs the atomic redeem.
//
// Implementations: [PostgresStore], [RedisStore], [MemoryStore].
type GrantStore interface {

	/*
		Insert persists a new unused grant.

		Parameters:
		  - context: context.Context
		  - grant: *Grant

		Returns:
		  - error: ErrGrantExists on an id collision, or persistence failures
	*/
	Insert(context context.Context, grant *Grant) error

	/*
		Redeem atomically consumes a grant.

		The grant is consumed only if it exists, belongs to identityID, is unused,
		and expires strictly after now. Exactly one of any number of concurrent
		calls for the same grant succeeds.

		Parameters:
		  - context: context.Context
		  - grantID: string
		  - identityID: string
		  - now: time.Time

		Returns:
		  - *Grant: The consumed grant
		  - error: *NotRedeemableError on a miss, or storage failures
	*/
	Redeem(context context.Context, grantID, identityID string, now time.Time) (*Grant, error)

	/*
		DeleteExpired removes up to limit grants whose expiry is before now,
		used or not.

		Parameters:
		  - context: context.Context
		  - now: time.Time
		  - limit: int (batch size)

		Returns:
		  - int: Number of grants removed
		  - error: Storage failures
	*/
	DeleteExpired(context context.Context, now time.Time, limit int) (int, error)
}
