// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, JWT Signing) from
// the domain logic. The HTTP gate depends on it only through a small verifier
// interface, and the signing secret is injected once through [NewTokenService].
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verification outcomes. Callers branch on these with [errors.Is].
var (
	// ErrTokenMalformed means the token could not be decoded or lacks a subject or expiry.
	ErrTokenMalformed = errors.New("sec: token malformed")

	// ErrTokenExpired means the expiry has passed. It is reported before any
	// signature check so clients can tell "log in again" from "tampered token".
	ErrTokenExpired = errors.New("sec: token expired")

	// ErrTokenSignatureInvalid covers a bad MAC, a foreign algorithm or a foreign issuer.
	ErrTokenSignatureInvalid = errors.New("sec: token signature invalid")
)

var (
	errEmptySecret  = errors.New("sec: signing secret must not be empty")
	errEmptySubject = errors.New("sec: token subject must not be empty")
	errInvalidTTL   = errors.New("sec: token ttl must be positive")
)

// AuthClaims is the payload of a session token.
//
// Only registered claims are used: sub (user id), iat, exp and iss.
type AuthClaims struct {
	jwt.RegisteredClaims
}

// Token is a freshly signed session token.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenService issues and verifies HS256 session tokens.
//
// It holds only immutable state and is safe for concurrent use.
type TokenService struct {
	secret []byte
	issuer string
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises a [TokenService].
type TokenOption func(*TokenService)

// WithClock replaces the wall clock used for issuing and expiry checks.
func WithClock(now func() time.Time) TokenOption {
	return func(service *TokenService) {
		service.now = now
	}
}

// NewTokenService creates a TokenService bound to the given signing secret.
// The secret is copied, so later mutation by the caller has no effect.
func NewTokenService(secret []byte, issuer string, opts ...TokenOption) (*TokenService, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}

	service := &TokenService{
		secret: append([]byte(nil), secret...),
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}

	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(service.now),
	}
	if issuer != "" {
		parserOpts = append(parserOpts, jwt.WithIssuer(issuer))
	}
	service.parser = jwt.NewParser(parserOpts...)

	return service, nil
}

// IssueToken signs a token for subject that is valid for ttl.
//
// The expiry is rounded up to the next whole second because JWT dates carry
// second precision. Any positive ttl therefore verifies immediately.
func (service *TokenService) IssueToken(subject string, ttl time.Duration) (*Token, error) {
	if subject == "" {
		return nil, errEmptySubject
	}
	if ttl <= 0 {
		return nil, errInvalidTTL
	}

	issuedAt := service.now()
	expiresAt := ceilSecond(issuedAt.Add(ttl))

	claims := AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    service.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signedToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(service.secret)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign token: %w", err)
	}

	return &Token{Value: signedToken, ExpiresAt: expiresAt}, nil
}

// VerifyToken checks a presented token in two phases.
//
//  1. Decode without verifying and compare exp against the clock. A token
//     past its expiry fails with [ErrTokenExpired] whatever its signature.
//  2. Verify the HS256 signature and issuer. Failures map to
//     [ErrTokenSignatureInvalid], undecodable input to [ErrTokenMalformed].
func (service *TokenService) VerifyToken(tokenString string) (*AuthClaims, error) {
	// ── 1. Expiry (unverified) ───────────────────────────────────────────
	unverified := &AuthClaims{}
	if _, _, err := service.parser.ParseUnverified(tokenString, unverified); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
	if unverified.ExpiresAt == nil || unverified.Subject == "" {
		return nil, ErrTokenMalformed
	}
	if !service.now().Before(unverified.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	// ── 2. Signature ─────────────────────────────────────────────────────
	claims := &AuthClaims{}
	_, err := service.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return service.secret, nil
	})
	if err != nil {
		return nil, classify(err)
	}

	return claims, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		// The clock moved past exp between the two phases.
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenMalformed):
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	default:
		return fmt.Errorf("%w: %v", ErrTokenSignatureInvalid, err)
	}
}

func ceilSecond(t time.Time) time.Time {
	truncated := t.Truncate(time.Second)
	if truncated.Before(t) {
		return truncated.Add(time.Second)
	}
	return truncated
}
