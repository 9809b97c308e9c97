package service

import (
	"context"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
)

type UserService struct {
	Store store.Store
}

// GetUserByEmail fetches a user by email.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.Store.Users().GetUserByEmail(ctx, email)
}
