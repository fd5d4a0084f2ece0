// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/storefront/internal/platform/constants"
	"github.com/taibuivan/storefront/internal/platform/middleware"
	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// # Definitions & Constructors

// Handler implements the public authentication endpoints.
//
// # Scope
//
// Registration, login and logout. None of them sit behind the session gate.
type Handler struct {
	authService  *Service
	cookieSecure bool
}

// NewHandler constructs a new [Handler]. cookieSecure sets the Secure
// attribute on the session cookie and should only be false for plain-HTTP development.
func NewHandler(service *Service, cookieSecure bool) *Handler {
	return &Handler{authService: service, cookieSecure: cookieSecure}
}

// Routes registers the authentication endpoints on router.
//
// # Endpoints
//   - POST /register : Creates a new account.
//   - POST /login    : Authenticates and returns a session token.
//   - GET  /logout   : Clears the session cookie.
func (handler *Handler) Routes(router chi.Router) {
	router.Post("/register", handler.register)
	router.Post("/login", handler.login)
	router.Get("/logout", handler.logout)
}

// # Request Payloads

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

/*
Register handles the creation of a new user account.

POST /api/register

Response:
  - 201: User: Created user profile (no password hash)
  - 400: VALIDATION_ERROR: Missing or invalid fields
  - 400: DUPLICATE_IDENTITY: Username or Email already exists
*/
func (handler *Handler) register(writer http.ResponseWriter, request *http.Request) {
	var input registerRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.authService.Register(request.Context(), RegisterInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

/*
Login authenticates a user and establishes a session.

POST /api/login

The token is returned both in the body (for Authorization: Bearer clients) and
as an HttpOnly cookie (for the browser SPA).

Response:
  - 200: message, token, expires_at, user
  - 401: INVALID_CREDENTIALS: Wrong password
  - 404: NOT_FOUND: Unknown username
  - 429: RATE_LIMITED: Too many failed attempts
*/
func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest

	if err := requestutil.DecodeJSON(writer, request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	session, err := handler.authService.Login(request.Context(), LoginInput{
		Username:  input.Username,
		Password:  input.Password,
		ClientKey: middleware.RealIP(request),
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	http.SetCookie(writer, &http.Cookie{
		Name:     constants.TokenCookieName,
		Value:    session.Token,
		Path:     constants.TokenCookiePath,
		Expires:  session.ExpiresAt,
		MaxAge:   cookieMaxAge(session.TTL),
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.OK(writer, map[string]any{
		FieldMessage:   msgLoginSuccess,
		FieldToken:     session.Token,
		FieldExpiresAt: session.ExpiresAt,
		FieldUser:      session.User,
	})
}

// cookieMaxAge converts the session lifetime to whole seconds. It is never
// below 1, since a zero or negative Max-Age deletes the cookie.
func cookieMaxAge(ttl time.Duration) int {
	return max(int(math.Ceil(ttl.Seconds())), 1)
}

/*
Logout clears the client-held session cookie.

GET /api/logout

Tokens are not tracked server-side, so a bearer token stays valid until it expires.

Response:
  - 200: message
*/
func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	http.SetCookie(writer, &http.Cookie{
		Name:     constants.TokenCookieName,
		Value:    "",
		Path:     constants.TokenCookiePath,
		MaxAge:   -1,
		Secure:   handler.cookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respond.OK(writer, map[string]any{
		FieldMessage: msgLogoutSuccess,
	})
}
