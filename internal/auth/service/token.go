package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/pkg/jwtx"
	"github.com/twineproject/twine/pkg/slogx"
)

// TokenService issues the self-contained bearer tokens. Both registration
// completion and login converge here so the claim set never diverges
// between the two paths.
type TokenService struct {
	Signer    jwtx.Signer
	Issuer    string
	AccessTTL time.Duration
}

// IssueForUser signs an access token bound to the account.
func (s *TokenService) IssueForUser(ctx context.Context, user domain.User) (string, error) {
	log := slogx.FromContext(ctx)

	claims := jwtx.NewAccessClaims(user.Email, string(user.Role), s.AccessTTL, s.Issuer, time.Now().UTC())

	token, err := s.Signer.Sign(claims)
	if err != nil {
		log.Error("failed to sign access token",
			slog.String("user_id", user.ID),
			slog.Any("error", err),
		)
		return "", err
	}

	log.Debug("access token issued",
		slog.String("user_id", user.ID),
		slog.String("jti", claims.ID),
	)

	return token, nil
}
