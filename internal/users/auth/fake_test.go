// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/sonora/internal/platform/apperr"
	"github.com/taibuivan/sonora/internal/platform/sec"
)

const testSecret = "auth-package-test-secret-0123456789abcdef"

// fakeUserRepository is an in-memory [UserRepository].
type fakeUserRepository struct {
	mu      sync.Mutex
	byID    map[string]*User
	failAll error
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{byID: map[string]*User{}}
}

func (repository *fakeUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failAll != nil {
		return nil, repository.failAll
	}
	user, ok := repository.byID[id]
	if !ok {
		return nil, apperr.NotFound("Account")
	}
	clone := *user
	return &clone, nil
}

func (repository *fakeUserRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	if repository.failAll != nil {
		return nil, repository.failAll
	}
	for _, user := range repository.byID {
		if user.Email == email {
			clone := *user
			return &clone, nil
		}
	}
	return nil, apperr.NotFound("Account")
}

func (repository *fakeUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	for _, existing := range repository.byID {
		if existing.Email == user.Email {
			return apperr.Conflict("Email is already registered")
		}
	}
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	clone := *user
	repository.byID[user.ID] = &clone
	return nil
}

func (repository *fakeUserRepository) remove(id string) {
	repository.mu.Lock()
	defer repository.mu.Unlock()
	delete(repository.byID, id)
}

var errStorageDown = errors.New("connection refused")

func newTestCodec(t *testing.T) *sec.TokenCodec {
	t.Helper()
	codec, err := sec.NewTokenCodec(testSecret, "sonora.test", time.Hour, 7*24*time.Hour)
	require.NoError(t, err)
	return codec
}

func newTestService(t *testing.T) (*Service, *fakeUserRepository, *sec.TokenCodec) {
	t.Helper()
	repository := newFakeUserRepository()
	codec := newTestCodec(t)
	return NewService(repository, codec), repository, codec
}
