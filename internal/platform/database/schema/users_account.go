// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables, columns and constraints created by the
// migrations in data/migrations, so SQL in the stores never drifts from them.
package schema

import "strings"

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table     string
	ID        string
	Username  string
	Email     string
	Password  string
	CreatedAt string
	UpdatedAt string

	// UNIQUE constraints
	UsernameKey string
	EmailKey    string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:       "users.account",
	ID:          "id",
	Username:    "username",
	Email:       "email",
	Password:    "passwordhash",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
	UsernameKey: "account_username_key",
	EmailKey:    "account_email_key",
}

// Columns returns all column names in scan order.
func (t UserAccountTable) Columns() []string {
	return []string{t.ID, t.Username, t.Email, t.Password, t.CreatedAt, t.UpdatedAt}
}

// SelectList returns Columns joined for a SELECT or INSERT column list.
func (t UserAccountTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
