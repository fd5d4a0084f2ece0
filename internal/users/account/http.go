// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/storefront/internal/platform/request"
	"github.com/taibuivan/storefront/internal/platform/respond"
)

// Handler implements the HTTP layer for profile lookups.
//
// # Security
//
// All endpoints require an active session established by the RequireToken middleware.
type Handler struct {
	accountService *Service
}

// NewHandler constructs a new account [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{accountService: service}
}

// Routes registers the gated endpoints on router.
//
// # Endpoints
//   - GET /showme           : The verified caller's own record.
//   - GET /user/{username}  : A public profile.
//   - GET /protected        : Sample downstream handler.
func (handler *Handler) Routes(router chi.Router) {
	router.Get("/showme", handler.whoAmI)
	router.Get("/user/{"+FieldUsername+"}", handler.getUserProfile)
	router.Get("/protected", handler.protected)
}

/*
GET /api/showme.

Description: Retrieves the record of the authenticated user.

Response:
  - 200: User: Public user profile
  - 401: UNAUTHORIZED: Route mounted without the gate
  - 404: NOT_FOUND: The account was removed after the token was issued
*/
func (handler *Handler) whoAmI(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.accountService.WhoAmI(request.Context(), userID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

/*
GET /api/user/{username}.

Response:
  - 200: User: Public user profile
  - 404: NOT_FOUND
*/
func (handler *Handler) getUserProfile(writer http.ResponseWriter, request *http.Request) {
	user, err := handler.accountService.GetProfile(request.Context(), requestutil.Param(request, FieldUsername))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

// protected echoes the gate's verdict for downstream integration checks.
func (handler *Handler) protected(writer http.ResponseWriter, request *http.Request) {
	userID, err := requestutil.RequiredUserID(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		FieldMessage: msgProtectedGranted,
		FieldUserID:  userID,
	})
}
