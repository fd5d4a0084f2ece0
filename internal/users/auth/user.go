// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements user identity and session issuance for Storefront.

It owns the User entity, the credential store, registration, login and the
login throttle. Verification of presented tokens lives in the platform gate.

# Architecture

  - Entities: User, with the password hash never serialized.
  - Repository: PostgreSQL for production, in-memory for demos and tests.
  - Throttle: failed-login counters kept in Redis.
*/
package auth

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"
)

// # Domain Entities

// User represents a registered shopper.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Explicitly omitted from JSON for security.
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NormalizeIdentity trims surrounding whitespace and applies Unicode NFC so
// visually identical usernames and emails compare equal. Case is preserved.
func NormalizeIdentity(value string) string {
	return norm.NFC.String(strings.TrimSpace(value))
}

// # Field Identifiers

// Field names for validation and response mapping in the authentication domain.
const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword  = "password"
	FieldToken     = "token"
	FieldExpiresAt = "expires_at"
	FieldUser      = "user"
	FieldMessage   = "message"
)
