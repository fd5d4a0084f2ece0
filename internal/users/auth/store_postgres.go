// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/database/schema"
	"github.com/taibuivan/storefront/internal/platform/dberr"
	"github.com/taibuivan/storefront/pkg/uuid"
)

// Querier is the subset of [pgxpool.Pool] the repository needs.
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	accountTable = schema.UserAccount

	insertUserQuery = fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		accountTable.Table, accountTable.SelectList(),
	)

	selectUserByIDQuery = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountTable.SelectList(), accountTable.Table, accountTable.ID,
	)

	selectUserByUsernameQuery = fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		accountTable.SelectList(), accountTable.Table, accountTable.Username,
	)

	selectUserConflictQuery = fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE %s = $1 OR %s = $2
		LIMIT 1`,
		accountTable.SelectList(), accountTable.Table, accountTable.Username, accountTable.Email,
	)
)

// # User Repository

// PostgresUserRepository implements [UserRepository] on the users.account table.
type PostgresUserRepository struct {
	db Querier
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(db Querier) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

/*
Create inserts a new row into users.account.

The UNIQUE constraints on username and email decide races between concurrent
registrations; a violation surfaces as DUPLICATE_IDENTITY.
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	_, err := repository.db.Exec(context, insertUserQuery,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if dberr.IsUniqueViolation(err) {
		ctxutil.GetLogger(context).DebugContext(context, "user_unique_violation",
			slog.String("constraint", dberr.ConstraintName(err)),
		)
	}
	return dberr.Wrap(err, resourceUser)
}

// FindByID resolves the subject of a session token.
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	// A non-UUID id can never match and would fail the uuid cast in SQL.
	if !uuid.Valid(id) {
		return nil, apperr.NotFound(resourceUser)
	}

	return repository.scanOne(context, selectUserByIDQuery, id)
}

// FindByUsername is the login lookup.
func (repository *PostgresUserRepository) FindByUsername(context context.Context, username string) (*User, error) {
	return repository.scanOne(context, selectUserByUsernameQuery, username)
}

// FindByUsernameOrEmail is the registration conflict check.
func (repository *PostgresUserRepository) FindByUsernameOrEmail(context context.Context, username, email string) (*User, error) {
	return repository.scanOne(context, selectUserConflictQuery, username, email)
}

func (repository *PostgresUserRepository) scanOne(context context.Context, query string, args ...any) (*User, error) {
	user := &User{}
	err := repository.db.QueryRow(context, query, args...).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, dberr.Wrap(err, resourceUser)
	}
	return user, nil
}
