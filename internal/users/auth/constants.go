// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

// # Credential Constraints

const (
	// UsernameMinLength is the shortest accepted username, in characters.
	UsernameMinLength = 3

	// UsernameMaxLength is the longest accepted username, in characters.
	UsernameMaxLength = 50

	// EmailMaxLength follows the SMTP path limit.
	EmailMaxLength = 254

	// PasswordMinLength is the shortest accepted password, in characters.
	PasswordMinLength = 8

	// PasswordMaxBytes is the bcrypt input limit.
	PasswordMaxBytes = 72
)

// # Client Messages

const (
	msgFieldsRequired = "All fields are required"
	resourceUser      = "User"
	msgLoginSuccess   = "Login successful"
	msgLogoutSuccess  = "Logged out successfully"
	msgWeakPassword   = "Password is not strong enough"
)
