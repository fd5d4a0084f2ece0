// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/taibuivan/storefront/internal/platform/apperr"
	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/ctxutil"
	"github.com/taibuivan/storefront/internal/platform/metrics"
	"github.com/taibuivan/storefront/internal/platform/respond"
	"github.com/taibuivan/storefront/internal/platform/sec"
)

// Header parsing failures returned by [ExtractBearer].
var (
	ErrNoToken         = errors.New("middleware: no token provided")
	ErrMalformedHeader = errors.New("middleware: authorization header is not 'Bearer <token>'")
)

// Client-facing rejection messages, one per gate state.
const (
	msgNoToken       = "Unauthorized: no token provided"
	msgInvalidFormat = "Unauthorized: invalid token format"
	msgExpired       = "Unauthorized: token expired"
	msgInvalidToken  = "Unauthorized: invalid token"
)

// TokenVerifier defines the interface needed to verify tokens in middleware.
//
// # Why an interface?
//
// Defining TokenVerifier here decouples the gate from the token service
// implementation, allowing us to inject fakes during unit testing.
type TokenVerifier interface {
	VerifyToken(token string) (*sec.AuthClaims, error)
}

// ExtractBearer parses an Authorization header value.
//
// The value must be exactly "Bearer <token>": the case-sensitive scheme, one
// space, and a non-empty token without further spaces.
func ExtractBearer(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != constants.BearerScheme || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}

	return token, nil
}

// RequireToken is the session gate in front of protected routes.
//
// # Flow
//  1. Take the token from the Authorization header. Only when no header is
//     sent at all, fall back to the HttpOnly session cookie set by login.
//  2. Reject a malformed header even if a cookie is present.
//  3. Verify via [TokenVerifier]; expired and invalid tokens get distinct codes.
//  4. Inject [*sec.AuthClaims] into the request context for downstream use.
func RequireToken(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Extraction ─────────────────────────────────────────────────
			token, err := tokenFromRequest(request)
			if errors.Is(err, ErrNoToken) {
				reject(writer, request, metrics.GateNoToken, apperr.CodeTokenMissing, msgNoToken)
				return
			}
			if err != nil {
				reject(writer, request, metrics.GateMalformedHeader, apperr.CodeTokenFormatInvalid, msgInvalidFormat)
				return
			}

			// ── 2. Verification ───────────────────────────────────────────────
			claims, err := verifier.VerifyToken(token)
			switch {
			case errors.Is(err, sec.ErrTokenExpired):
				reject(writer, request, metrics.GateExpired, apperr.CodeTokenExpired, msgExpired)
				return
			case err != nil:
				reject(writer, request, metrics.GateInvalid, apperr.CodeTokenInvalid, msgInvalidToken)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────
			metrics.GateDecisions.WithLabelValues(metrics.GateVerified).Inc()
			ctx := ctxutil.WithAuthUser(request.Context(), claims)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

func tokenFromRequest(request *http.Request) (string, error) {
	values := request.Header.Values(constants.HeaderAuthorization)

	switch len(values) {
	case 0:
		cookie, err := request.Cookie(constants.TokenCookieName)
		if err != nil || cookie.Value == "" {
			return "", ErrNoToken
		}
		return cookie.Value, nil
	case 1:
		token, err := ExtractBearer(values[0])
		if errors.Is(err, ErrNoToken) {
			// A header sent with an empty value is not an absent header.
			return "", ErrMalformedHeader
		}
		return token, err
	default:
		return "", ErrMalformedHeader
	}
}

func reject(writer http.ResponseWriter, request *http.Request, outcome, code, message string) {
	metrics.GateDecisions.WithLabelValues(outcome).Inc()

	ctxutil.GetLogger(request.Context()).DebugContext(request.Context(), "auth_gate_rejected",
		slog.String("reason", outcome),
	)

	respond.Error(writer, request, apperr.TokenRejected(code, message))
}
