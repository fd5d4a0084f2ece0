// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"time"
)

// # User Data Access

// UserRepository defines the data access contract for user accounts.
//
// Missing rows are reported as apperr NOT_FOUND. Lookups are exact and
// case-sensitive on the normalized value.
type UserRepository interface {

	/*
		FindByID returns the account with the given ID.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*User, error)

	/*
		FindByUsername returns the account with the given username.

		Returns:
		  - *User: Hydrated entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByUsername(context context.Context, username string) (*User, error)

	/*
		FindByUsernameOrEmail returns an account whose username equals username
		or whose email equals email.

		Returns:
		  - *User: The first conflicting entity
		  - error: apperr.NotFound when neither value is taken
	*/
	FindByUsernameOrEmail(context context.Context, username, email string) (*User, error)

	/*
		Create persists a brand-new user account.

		Uniqueness of username and email is enforced atomically by the store,
		so of two concurrent registrations for one identity exactly one wins.

		Returns:
		  - error: apperr.DuplicateIdentity or storage failures
	*/
	Create(context context.Context, user *User) error
}

// # Volatile Data Access

// AttemptCounter keeps expiring per-key counters for the login throttle.
type AttemptCounter interface {

	// Count returns the current value, or 0 when the key does not exist.
	Count(context context.Context, key string) (int64, error)

	// Increment adds one and starts the expiry window if it is not running.
	Increment(context context.Context, key string, window time.Duration) (int64, error)

	// Reset deletes the counter.
	Reset(context context.Context, key string) error
}
