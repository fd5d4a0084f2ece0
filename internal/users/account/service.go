// Copyright (c) 2026 Storefront. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"context"
	"fmt"

	"github.com/taibuivan/storefront/internal/users/auth"
)

// # Service Layer

// Service resolves authenticated subjects and public profiles.
type Service struct {
	profiles ProfileReader
}

// NewService constructs a new [Service].
func NewService(profiles ProfileReader) *Service {
	return &Service{profiles: profiles}
}

/*
WhoAmI returns the account named by a verified token subject.

A valid token can outlive its account, so NOT_FOUND is a normal outcome here.

Returns:
  - *auth.User: The public user record
  - error: apperr.NotFound or storage failures
*/
func (service *Service) WhoAmI(context context.Context, userID string) (*auth.User, error) {
	user, err := service.profiles.FindByID(context, userID)
	if err != nil {
		return nil, fmt.Errorf("account_service_whoami_failed: %w", err)
	}
	return user, nil
}

// GetProfile looks up another shopper by username.
func (service *Service) GetProfile(context context.Context, username string) (*auth.User, error) {
	user, err := service.profiles.FindByUsername(context, auth.NormalizeIdentity(username))
	if err != nil {
		return nil, fmt.Errorf("account_service_get_profile_failed: %w", err)
	}
	return user, nil
}
