// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package download

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a process-local [GrantStore] guarded by a single mutex.
//
// It serves tests and single-instance deployments (GRANT_STORE=memory).
// Grants do not survive a restart.
type MemoryStore struct {
	mu     sync.Mutex
	grants map[string]*Grant
}

// NewMemoryStore creates an empty in-memory grant store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[string]*Grant)}
}

// Insert stores a copy of grant.
func (store *MemoryStore) Insert(_ context.Context, grant *Grant) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, exists := store.grants[grant.ID]; exists {
		return ErrGrantExists
	}

	clone := *grant
	store.grants[grant.ID] = &clone
	return nil
}

// Redeem checks and flips the used flag under the lock.
func (store *MemoryStore) Redeem(_ context.Context, grantID, identityID string, now time.Time) (*Grant, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	grant, ok := store.grants[grantID]
	if !ok {
		return nil, missed(MissNotFound)
	}

	if grant.IdentityID != identityID || !grant.Redeemable(now) {
		return nil, missed(classifyMiss(grant, identityID, now))
	}

	usedAt := now
	grant.Used = true
	grant.UsedAt = &usedAt

	clone := *grant
	return &clone, nil
}

// DeleteExpired removes the oldest expired grants first, up to limit.
func (store *MemoryStore) DeleteExpired(_ context.Context, now time.Time, limit int) (int, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	expired := make([]*Grant, 0)
	for _, grant := range store.grants {
		if grant.ExpiresAt.Before(now) {
			expired = append(expired, grant)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].ExpiresAt.Before(expired[j].ExpiresAt)
	})

	if limit > 0 && len(expired) > limit {
		expired = expired[:limit]
	}

	for _, grant := range expired {
		delete(store.grants, grant.ID)
	}

	return len(expired), nil
}

// Len returns the number of stored grants.
func (store *MemoryStore) Len() int {
	store.mu.Lock()
	defer store.mu.Unlock()
	return len(store.grants)
}

// Get returns a copy of a stored grant.
func (store *MemoryStore) Get(grantID string) (*Grant, bool) {
	store.mu.Lock()
	defer store.mu.Unlock()

	grant, ok := store.grants[grantID]
	if !ok {
		return nil, false
	}
	clone := *grant
	return &clone, true
}
