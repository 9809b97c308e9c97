package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/idx"
	"github.com/twineproject/twine/pkg/slogx"
)

var (
	ErrOtpNotFound = errors.New("otp challenge not found")
	ErrOtpExpired  = errors.New("otp challenge expired")
	ErrOtpInvalid  = errors.New("otp code does not match")
)

const (
	DefaultOtpLength   = 6
	DefaultOtpValidity = 5 * time.Minute
)

// OtpService owns the challenge lifecycle: generation, dispatch, and
// validation. Rand is the entropy source for code generation and must be
// cryptographically strong; it is injected so tests can make codes
// deterministic.
type OtpService struct {
	Store      store.Store
	Notify     *NotifyService
	CodeLength int
	Validity   time.Duration
	Rand       io.Reader
}

// GenerateAndSend mints a fresh challenge for the email, persists it, and
// dispatches it. The challenge is committed before dispatch is attempted,
// so a delivery failure leaves a usable code behind; a retry simply
// supersedes it because validation always takes the latest unconsumed
// challenge.
func (s *OtpService) GenerateAndSend(ctx context.Context, email string) (domain.OtpChallenge, error) {
	log := slogx.FromContext(ctx)

	// 1. Generate the code from a cryptographically strong source.
	code, err := cryptox.GenerateCode(s.Rand, cryptox.DecimalAlphabet, s.CodeLength)
	if err != nil {
		log.Error("failed to generate otp code", slog.Any("error", err))
		return domain.OtpChallenge{}, err
	}

	// 2. Persist the challenge.
	now := time.Now().UTC()
	challenge := domain.OtpChallenge{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		Consumed:  false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.Validity),
	}

	if err := s.Store.OtpChallenges().CreateChallenge(ctx, challenge); err != nil {
		log.Error("failed to persist otp challenge",
			slog.String("challenge_id", challenge.ID),
			slog.Any("error", err),
		)
		return domain.OtpChallenge{}, err
	}

	// 3. Dispatch the email. On failure the persisted challenge stays put.
	minutes := int(s.Validity / time.Minute)
	if err := s.Notify.SendOtp(ctx, email, code, minutes); err != nil {
		return domain.OtpChallenge{}, err
	}

	log.Debug("otp challenge issued",
		slog.String("challenge_id", challenge.ID),
		slog.Time("expires_at", challenge.ExpiresAt),
	)

	return challenge, nil
}

// Validate checks the code against the active challenge for the email and
// consumes it on success.
func (s *OtpService) Validate(ctx context.Context, email, code string) (domain.OtpChallenge, error) {
	return validateOtp(ctx, s.Store, email, code)
}

// validateOtp runs the validation state machine against the given store,
// which may be a transaction. Registration completion calls this inside
// its own transaction so account creation and consumption commit together.
func validateOtp(ctx context.Context, st store.Store, email, code string) (domain.OtpChallenge, error) {
	log := slogx.FromContext(ctx)

	// 1. Fetch the most recent unconsumed challenge for the email.
	challenge, err := st.OtpChallenges().GetLatestUnconsumed(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OtpChallenge{}, ErrOtpNotFound
		}
		log.Error("failed to fetch otp challenge", slog.Any("error", err))
		return domain.OtpChallenge{}, err
	}

	// 2. Expiry is checked lazily here, never swept by a timer. Expired
	// challenges stay unconsumed; the caller must request a fresh one.
	if challenge.Expired(time.Now().UTC()) {
		log.Warn("otp validation attempted with expired challenge",
			slog.String("challenge_id", challenge.ID),
		)
		return domain.OtpChallenge{}, ErrOtpExpired
	}

	// 3. Exact string match. A mismatch leaves the challenge active so the
	// correct code still works afterwards.
	if challenge.Code != code {
		log.Warn("otp validation attempted with wrong code",
			slog.String("challenge_id", challenge.ID),
		)
		return domain.OtpChallenge{}, ErrOtpInvalid
	}

	// 4. Consume. The flag never resets, so replaying the same code fails.
	// The store refuses to re-consume, so losing a race to a concurrent
	// validation surfaces as the challenge being gone.
	if err := st.OtpChallenges().MarkChallengeConsumed(ctx, challenge.ID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OtpChallenge{}, ErrOtpNotFound
		}
		log.Error("failed to consume otp challenge",
			slog.String("challenge_id", challenge.ID),
			slog.Any("error", err),
		)
		return domain.OtpChallenge{}, err
	}
	challenge.Consumed = true

	return challenge, nil
}
