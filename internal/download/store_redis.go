// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/sonora/internal/platform/constants"
)

// keyRetention keeps a grant hash around after expiry in case the sweeper is
// late; the sweeper is still the primary cleanup path.
const keyRetention = time.Hour

// insertScript creates the hash only if absent and indexes its expiry.
//
// KEYS[1] grant hash, KEYS[2] expiry index
// ARGV: identity, song, created ms, expires ms, grant id, key expiry ms
var insertScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
	return 0
end
redis.call('HSET', KEYS[1],
	'identity', ARGV[1], 'song', ARGV[2], 'created', ARGV[3],
	'expires', ARGV[4], 'used', '0')
redis.call('PEXPIREAT', KEYS[1], ARGV[6])
redis.call('ZADD', KEYS[2], ARGV[4], ARGV[5])
return 1
`)

// redeemScript is the compare-and-set: it checks owner, used, and expiry and
// flips used in one server-side step.
//
// KEYS[1] grant hash
// ARGV: identity, now ms
var redeemScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
	return {'not_found'}
end
local grant = redis.call('HMGET', KEYS[1], 'identity', 'song', 'created', 'expires', 'used')
if grant[1] ~= ARGV[1] then
	return {'owner_mismatch'}
end
if grant[5] == '1' then
	return {'already_used'}
end
if tonumber(grant[4]) <= tonumber(ARGV[2]) then
	return {'expired'}
end
redis.call('HSET', KEYS[1], 'used', '1', 'usedat', ARGV[2])
return {'ok', grant[2], grant[3], grant[4]}
`)

// RedisScripts lists the Lua scripts the store runs, for preloading at startup.
func RedisScripts() []*redis.Script {
	return []*redis.Script{insertScript, redeemScript}
}

// RedisStore implements [GrantStore] with one hash per grant and a sorted set
// indexing expiry times for the sweeper.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore creates a grant store on client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func grantKey(grantID string) string {
	return constants.RedisPrefixGrant + grantID
}

func millis(at time.Time) string {
	return strconv.FormatInt(at.UnixMilli(), 10)
}

func fromMillis(raw string) (time.Time, error) {
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(value).UTC(), nil
}

// Insert creates the grant hash if the id is free.
func (store *RedisStore) Insert(context context.Context, grant *Grant) error {
	created, err := insertScript.Run(context, store.client,
		[]string{grantKey(grant.ID), constants.RedisKeyGrantExpiries},
		grant.IdentityID,
		grant.SongID,
		millis(grant.CreatedAt),
		millis(grant.ExpiresAt),
		grant.ID,
		millis(grant.ExpiresAt.Add(keyRetention)),
	).Int()
	if err != nil {
		return fmt.Errorf("redis_grant_store_insert_failed: %w", err)
	}

	if created == 0 {
		return ErrGrantExists
	}
	return nil
}

/*
Redeem runs the compare-and-set script.

Parameters:
  - context: context.Context
  - grantID: string
  - identityID: string
  - now: time.Time

Returns:
  - *Grant: The consumed grant
  - error: *NotRedeemableError or storage failures
*/
func (store *RedisStore) Redeem(context context.Context, grantID, identityID string, now time.Time) (*Grant, error) {
	reply, err := redeemScript.Run(context, store.client,
		[]string{grantKey(grantID)},
		identityID,
		millis(now),
	).StringSlice()
	if err != nil {
		return nil, fmt.Errorf("redis_grant_store_redeem_failed: %w", err)
	}

	if len(reply) == 0 {
		return nil, fmt.Errorf("redis_grant_store_redeem_failed: empty script reply")
	}

	if reply[0] != "ok" {
		return nil, missed(RedeemMiss(reply[0]))
	}

	if len(reply) != 4 {
		return nil, fmt.Errorf("redis_grant_store_redeem_failed: unexpected reply length %d", len(reply))
	}

	createdAt, err := fromMillis(reply[2])
	if err != nil {
		return nil, fmt.Errorf("redis_grant_store_redeem_failed: created: %w", err)
	}
	expiresAt, err := fromMillis(reply[3])
	if err != nil {
		return nil, fmt.Errorf("redis_grant_store_redeem_failed: expires: %w", err)
	}

	usedAt := time.UnixMilli(now.UnixMilli()).UTC()
	return &Grant{
		ID:         grantID,
		IdentityID: identityID,
		SongID:     reply[1],
		CreatedAt:  createdAt,
		ExpiresAt:  expiresAt,
		Used:       true,
		UsedAt:     &usedAt,
	}, nil
}

/*
DeleteExpired removes one batch of grants whose expiry score is before now.

Parameters:
  - context: context.Context
  - now: time.Time
  - limit: int

Returns:
  - int: Number of grants removed
  - error: Storage failures
*/
func (store *RedisStore) DeleteExpired(context context.Context, now time.Time, limit int) (int, error) {
	grantIDs, err := store.client.ZRangeByScore(context, constants.RedisKeyGrantExpiries, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   "(" + millis(now),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("redis_grant_store_scan_expired_failed: %w", err)
	}

	if len(grantIDs) == 0 {
		return 0, nil
	}

	keys := make([]string, len(grantIDs))
	members := make([]any, len(grantIDs))
	for index, grantID := range grantIDs {
		keys[index] = grantKey(grantID)
		members[index] = grantID
	}

	_, err = store.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.Del(context, keys...)
		pipe.ZRem(context, constants.RedisKeyGrantExpiries, members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis_grant_store_delete_expired_failed: %w", err)
	}

	return len(grantIDs), nil
}
