// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package account serves the profile endpoints that sit behind the session gate.

It reads the identity established by the gate and resolves it against the
user store owned by the auth package.

# Architecture

  - Domain: This package depends on the auth package for the User entity.
  - Security: Every route requires the RequireToken middleware.
*/
package account

import (
	"context"

	"github.com/taibuivan/storefront/internal/users/auth"
)

// # Repository Contracts

// ProfileReader is the read-only slice of [auth.UserRepository] this package needs.
type ProfileReader interface {
	/*
		FindByID retrieves a user record by their unique ID.

		Returns:
		  - *User: Loaded account entity
		  - error: apperr.NotFound or storage failures
	*/
	FindByID(context context.Context, id string) (*auth.User, error)

	// FindByUsername retrieves a user record by exact username.
	FindByUsername(context context.Context, username string) (*auth.User, error)
}

// # Client Messages

const msgProtectedGranted = "Access granted to protected route"

// Field names for response mapping.
const (
	FieldMessage  = "message"
	FieldUserID   = "user_id"
	FieldUsername = "username"
)
