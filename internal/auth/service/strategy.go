package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/slogx"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Credentials is the union of every credential shape the service accepts.
// Today that is just email+password; a second credential type gets a new
// field set and its own strategy.
type Credentials struct {
	Email    string
	Password string
}

// CredentialStrategy authenticates one shape of Credentials. Strategies
// are consulted in order and the first one that Supports the input wins.
type CredentialStrategy interface {
	Supports(c Credentials) bool
	Authenticate(ctx context.Context, c Credentials) (domain.User, error)
}

// EmailPasswordStrategy verifies an email+password pair against the user
// directory. Every failure mode collapses into ErrInvalidCredentials so
// responses never reveal whether the account exists.
type EmailPasswordStrategy struct {
	Store  store.Store
	Hasher *cryptox.Hasher
}

func (s *EmailPasswordStrategy) Supports(c Credentials) bool {
	return c.Email != "" && c.Password != ""
}

func (s *EmailPasswordStrategy) Authenticate(ctx context.Context, c Credentials) (domain.User, error) {
	log := slogx.FromContext(ctx)

	// 1. Look up the account. Absence is reported as bad credentials.
	user, err := s.Store.Users().GetUserByEmail(ctx, c.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			log.Info("login attempted for unknown email")
			return domain.User{}, ErrInvalidCredentials
		}
		log.Error("failed to fetch user", slog.Any("error", err))
		return domain.User{}, err
	}

	// 2. Disabled accounts cannot log in.
	if !user.Enabled {
		log.Info("login attempted for disabled account", slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	// 3. Verify the password against the stored argon2 hash.
	if err := s.Hasher.Verify(c.Password, user.PasswordHash); err != nil {
		log.Info("login attempted with wrong password", slog.String("user_id", user.ID))
		return domain.User{}, ErrInvalidCredentials
	}

	return user, nil
}
