// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"sync"

	"github.com/taibuivan/storefront/internal/platform/apperr"
)

// MemoryUserRepository keeps accounts in process memory.
//
// It backs STORAGE_DRIVER=memory demo runs. The uniqueness check and the
// insert share one critical section, mirroring the UNIQUE constraints of the
// PostgreSQL table.
type MemoryUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewMemoryUserRepository creates an empty in-memory repository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:       make(map[string]User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

// Create stores a copy of user.
func (repository *MemoryUserRepository) Create(_ context.Context, user *User) error {
	repository.mu.Lock()
	defer repository.mu.Unlock()

	_, usernameTaken := repository.byUsername[user.Username]
	_, emailTaken := repository.byEmail[user.Email]
	if usernameTaken || emailTaken {
		return apperr.DuplicateIdentity(nil)
	}

	repository.byID[user.ID] = *user
	repository.byUsername[user.Username] = user.ID
	repository.byEmail[user.Email] = user.ID
	return nil
}

// FindByID returns a copy of the account with the given ID.
func (repository *MemoryUserRepository) FindByID(_ context.Context, id string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	return repository.lookup(id)
}

// FindByUsername returns a copy of the account with the given username.
func (repository *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	return repository.lookup(repository.byUsername[username])
}

// FindByUsernameOrEmail returns the account holding either value.
func (repository *MemoryUserRepository) FindByUsernameOrEmail(_ context.Context, username, email string) (*User, error) {
	repository.mu.RLock()
	defer repository.mu.RUnlock()

	if id, ok := repository.byUsername[username]; ok {
		return repository.lookup(id)
	}
	return repository.lookup(repository.byEmail[email])
}

// lookup must be called with mu held.
func (repository *MemoryUserRepository) lookup(id string) (*User, error) {
	user, ok := repository.byID[id]
	if !ok {
		return nil, apperr.NotFound(resourceUser)
	}
	return &user, nil
}
