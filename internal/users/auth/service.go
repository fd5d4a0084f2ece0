// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	passwordvalidator "github.com/wagslane/go-password-validator"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/sec"
	"github.com/taibuivan/storefront/internal/platform/validate"
	"github.com/taibuivan/storefront/pkg/uuid"
)

// # Contracts & Types

// TokenIssuer defines the contract for signing session tokens.
type TokenIssuer interface {
	// IssueToken signs a token for subject that expires after ttl.
	IssueToken(subject string, ttl time.Duration) (*sec.Token, error)
}

// Options tunes a [Service].
type Options struct {
	// TokenTTL is the session lifetime.
	TokenTTL time.Duration
	// HashCost is the bcrypt work factor for new passwords.
	HashCost int
	// PasswordMinEntropy is the minimum password strength in bits. 0 disables the check.
	PasswordMinEntropy float64
	// Now overrides the clock used for timestamps.
	Now func() time.Time
}

// Service implements registration and login.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed with the same care as the token code.
type Service struct {
	users    UserRepository
	tokens   TokenIssuer
	throttle *LoginThrottle
	tokenTTL time.Duration
	hashCost int
	minBits  float64
	now      func() time.Time
}

// NewService constructs a new [Service]. throttle may be nil.
func NewService(users UserRepository, tokens TokenIssuer, throttle *LoginThrottle, opts Options) *Service {
	if opts.HashCost == 0 {
		opts.HashCost = sec.DefaultHashCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Service{
		users:    users,
		tokens:   tokens,
		throttle: throttle,
		tokenTTL: opts.TokenTTL,
		hashCost: opts.HashCost,
		minBits:  opts.PasswordMinEntropy,
		now:      opts.Now,
	}
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new shopper.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

/*
Register validates, hashes, and persists a brand new user account.

Returns:
  - *User: Created entity (the hash is never serialized)
  - error: VALIDATION_ERROR, DUPLICATE_IDENTITY or storage errors
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*User, error) {
	username := NormalizeIdentity(input.Username)
	email := NormalizeIdentity(input.Email)

	if err := validateRegistration(username, email, input.Password, service.minBits); err != nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	// Fast path for the common conflict. The store still has the final say.
	_, err := service.users.FindByUsernameOrEmail(context, username, email)
	if err == nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return nil, apperr.DuplicateIdentity(nil)
	}
	if !apperr.HasCode(err, apperr.CodeNotFound) {
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("auth_service_conflict_check_failed: %w", err)
	}

	hashedPassword, err := sec.HashPassword(input.Password, service.hashCost)
	if err != nil {
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("auth_service_hash_failed: %w", err)
	}

	now := service.now().UTC()
	user := &User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hashedPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := service.users.Create(context, user); err != nil {
		if apperr.HasCode(err, apperr.CodeDuplicateIdentity) {
			metrics.Registrations.WithLabelValues(metrics.OutcomeDuplicate).Inc()
			return nil, err
		}
		metrics.Registrations.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("auth_service_register_failed: %w", err)
	}

	metrics.Registrations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return user, nil
}

func validateRegistration(username, email, password string, minBits float64) error {
	required := &validate.Validator{}
	required.Required(FieldUsername, username).
		Required(FieldEmail, email).
		Required(FieldPassword, password)
	if err := required.ErrWith(msgFieldsRequired); err != nil {
		return err
	}

	rules := &validate.Validator{}
	rules.MinLen(FieldUsername, username, UsernameMinLength).
		MaxLen(FieldUsername, username, UsernameMaxLength).
		Custom(FieldUsername, strings.ContainsAny(username, " \t\r\n"), "Must not contain whitespace").
		Email(FieldEmail, email).
		MaxLen(FieldEmail, email, EmailMaxLength).
		MinLen(FieldPassword, password, PasswordMinLength).
		MaxBytes(FieldPassword, password, PasswordMaxBytes)

	if minBits > 0 && !rules.HasErrors() {
		rules.Custom(FieldPassword, passwordvalidator.Validate(password, minBits) != nil, msgWeakPassword)
	}
	return rules.Err()
}

// # Authentication Flow

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Username string
	Password string
	// ClientKey identifies the caller for the throttle, usually the client IP.
	ClientKey string
}

// LoginResult is a freshly issued session.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	// TTL is the configured session lifetime, independent of any clock.
	TTL       time.Duration
	User      *User
}

/*
Login validates user credentials and issues a session token.

Returns:
  - *LoginResult: Token, expiry and public user record
  - error: VALIDATION_ERROR, RATE_LIMITED, NOT_FOUND, INVALID_CREDENTIALS or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*LoginResult, error) {
	username := NormalizeIdentity(input.Username)

	required := &validate.Validator{}
	required.Required(FieldUsername, username).Required(FieldPassword, input.Password)
	if err := required.ErrWith(msgFieldsRequired); err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, err
	}

	if err := service.throttle.Allow(context, input.ClientKey); err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeThrottled).Inc()
		return nil, err
	}

	user, err := service.users.FindByUsername(context, username)
	if err != nil {
		if apperr.HasCode(err, apperr.CodeNotFound) {
			service.throttle.RecordFailure(context, input.ClientKey)
			metrics.Logins.WithLabelValues(metrics.OutcomeNotFound).Inc()
			return nil, err
		}
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("auth_service_lookup_failed: %w", err)
	}

	// bcrypt compares in constant time.
	if !sec.CheckPasswordHash(input.Password, user.PasswordHash) {
		service.throttle.RecordFailure(context, input.ClientKey)
		metrics.Logins.WithLabelValues(metrics.OutcomeBadPass).Inc()
		return nil, apperr.InvalidCredentials()
	}

	token, err := service.tokens.IssueToken(user.ID, service.tokenTTL)
	if err != nil {
		metrics.Logins.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("auth_service_token_generation_failed: %w", err)
	}

	service.throttle.RecordSuccess(context, input.ClientKey)
	metrics.Logins.WithLabelValues(metrics.OutcomeSuccess).Inc()

	return &LoginResult{
		Token:     token.Value,
		ExpiresAt: token.ExpiresAt,
		TTL:       service.tokenTTL,
		User:      user,
	}, nil
}
