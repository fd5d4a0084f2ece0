// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/users/auth"
)

// fakeRow scans a fixed set of values or returns err.
type fakeRow struct {
	values []any
	err    error
}

func (row fakeRow) Scan(dest ...any) error {
	if row.err != nil {
		return row.err
	}
	for i, target := range dest {
		switch pointer := target.(type) {
		case *string:
			*pointer = row.values[i].(string)
		case *time.Time:
			*pointer = row.values[i].(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

// fakeQuerier records the last statement and answers with canned results.
type fakeQuerier struct {
	lastSQL  string
	lastArgs []any
	execErr  error
	row      fakeRow
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.lastSQL, q.lastArgs = sql, args
	if q.execErr != nil {
		return pgconn.CommandTag{}, q.execErr
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.lastSQL, q.lastArgs = sql, args
	return q.row
}

/*
TestPostgresCreate_UniqueViolation verifies a UNIQUE failure maps to DUPLICATE_IDENTITY.
*/
func TestPostgresCreate_UniqueViolation(t *testing.T) {
	db := &fakeQuerier{execErr: &pgconn.PgError{
		Code:           pgerrcode.UniqueViolation,
		ConstraintName: "account_email_key",
	}}
	repo := auth.NewUserRepository(db)

	err := repo.Create(context.Background(), &auth.User{ID: "0192f0c6-7a52-7c3e-9d2a-0a1b2c3d4e5f", Username: "alice"})
	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperr.CodeDuplicateIdentity, appErr.Code)
	assert.Contains(t, db.lastSQL, "INSERT INTO users.account")
	assert.Equal(t, "alice", db.lastArgs[1])
}

/*
TestPostgresCreate_OtherFailure verifies unexpected driver errors become INTERNAL_ERROR.
*/
func TestPostgresCreate_OtherFailure(t *testing.T) {
	repo := auth.NewUserRepository(&fakeQuerier{execErr: errors.New("connection reset")})

	err := repo.Create(context.Background(), &auth.User{})
	assert.True(t, apperr.HasCode(err, apperr.CodeInternal))
}

/*
TestPostgresFindByUsername verifies row hydration and the not-found mapping.
*/
func TestPostgresFindByUsername(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	db := &fakeQuerier{row: fakeRow{values: []any{
		"0192f0c6-7a52-7c3e-9d2a-0a1b2c3d4e5f", "alice", "alice@example.com", "$2a$04$hash", created, created,
	}}}
	repo := auth.NewUserRepository(db)

	user, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "$2a$04$hash", user.PasswordHash)
	assert.Equal(t, created, user.CreatedAt)
	assert.Equal(t, []any{"alice"}, db.lastArgs)

	db.row = fakeRow{err: pgx.ErrNoRows}
	_, err = repo.FindByUsername(context.Background(), "ghost")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
}

/*
TestPostgresFindByUsernameOrEmail verifies both values are bound.
*/
func TestPostgresFindByUsernameOrEmail(t *testing.T) {
	db := &fakeQuerier{row: fakeRow{err: pgx.ErrNoRows}}
	repo := auth.NewUserRepository(db)

	_, err := repo.FindByUsernameOrEmail(context.Background(), "alice", "alice@example.com")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Equal(t, []any{"alice", "alice@example.com"}, db.lastArgs)
	assert.Contains(t, db.lastSQL, "username = $1 OR email = $2")
}

/*
TestPostgresFindByID_NotAUUID verifies malformed ids never reach the database.
*/
func TestPostgresFindByID_NotAUUID(t *testing.T) {
	db := &fakeQuerier{}
	repo := auth.NewUserRepository(db)

	_, err := repo.FindByID(context.Background(), "not-a-uuid")
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFound))
	assert.Empty(t, db.lastSQL)
}
