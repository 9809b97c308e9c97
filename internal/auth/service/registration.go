package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/idx"
	"github.com/twineproject/twine/pkg/slogx"
)

var ErrEmailAlreadyRegistered = errors.New("email already registered")

// RegistrationService is the orchestrator for the three public
// operations: initiate registration, complete registration, and login.
type RegistrationService struct {
	Store      store.Store
	Otp        *OtpService
	Token      *TokenService
	Hasher     *cryptox.Hasher
	Strategies []CredentialStrategy
}

// InitiateRegistration starts the email challenge for a new account.
func (s *RegistrationService) InitiateRegistration(ctx context.Context, email string) error {
	log := slogx.FromContext(ctx)

	// 1. Reject emails that already hold an account.
	exists, err := s.Store.Users().ExistsByEmail(ctx, email)
	if err != nil {
		log.Error("failed to check email availability", slog.Any("error", err))
		return err
	}
	if exists {
		log.Info("registration attempted for taken email")
		return ErrEmailAlreadyRegistered
	}

	// 2. Issue and dispatch the challenge. Each call supersedes any prior
	// unconsumed challenge for the email.
	if _, err := s.Otp.GenerateAndSend(ctx, email); err != nil {
		return err
	}

	log.Info("registration initiated")
	return nil
}

// CompleteRegistration validates the challenge, creates the account, and
// issues the first token. The existence re-check, OTP validation, account
// insert, and challenge consumption commit as one transaction so a
// consumed code without an account (or the reverse) cannot happen.
func (s *RegistrationService) CompleteRegistration(ctx context.Context, email, password, otpCode string) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Hash the password up front; argon2 is too slow to hold a
	// transaction open for.
	passwordHash, err := s.Hasher.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return "", err
	}

	var user domain.User
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// 2. Re-check the email; it may have raced to registration since
		// the initiate call.
		exists, err := tx.Users().ExistsByEmail(ctx, email)
		if err != nil {
			log.Error("failed to check email availability", slog.Any("error", err))
			return err
		}
		if exists {
			return ErrEmailAlreadyRegistered
		}

		// 3. Validate and consume the challenge within the transaction.
		if _, err := validateOtp(ctx, tx, email, otpCode); err != nil {
			return err
		}

		// 4. Create the account. The unique email constraint serializes
		// concurrent completions; the loser sees ErrAlreadyExists.
		now := time.Now().UTC()
		user = domain.User{
			ID:           idx.New().String(),
			Email:        email,
			PasswordHash: passwordHash,
			Role:         domain.RoleUser,
			Enabled:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrEmailAlreadyRegistered
			}
			log.Error("failed to create user", slog.Any("error", err))
			return err
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	log.Info("registration completed", slog.String("user_id", user.ID))

	// 5. Issue the first token for the new account.
	return s.Token.IssueForUser(ctx, user)
}

// Authenticate verifies credentials through the strategy chain and issues
// a token on success.
func (s *RegistrationService) Authenticate(ctx context.Context, creds Credentials) (string, error) {
	log := slogx.FromContext(ctx)

	// 1. Find a strategy for this credential shape.
	for _, strategy := range s.Strategies {
		if !strategy.Supports(creds) {
			continue
		}

		// 2. Verify and issue.
		user, err := strategy.Authenticate(ctx, creds)
		if err != nil {
			return "", err
		}

		log.Info("login succeeded", slog.String("user_id", user.ID))
		return s.Token.IssueForUser(ctx, user)
	}

	log.Info("login attempted with unsupported credential shape")
	return "", ErrInvalidCredentials
}
