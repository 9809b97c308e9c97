package service

import (
	"context"
	"crypto/rand"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/internal/auth/store/drivers/sqlite"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/jwtx"
)

// fakeMailer records dispatched messages and can be told to fail.
type fakeMailer struct {
	sent []sentMail
	fail error
}

type sentMail struct {
	to      string
	subject string
	body    string
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

type testEnv struct {
	store  store.Store
	mailer *fakeMailer
	otp    *OtpService
	reg    *RegistrationService
	keys   *jwtx.KeySet
	issuer string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test-key", pemKey)
	require.NoError(t, err)

	keys := jwtx.NewKeySet()
	require.NoError(t, keys.AddSigner(signer))

	issuer := "https://auth.twine.test"
	hasher := cryptox.NewHasher("test-pepper")
	mailer := &fakeMailer{}

	otp := &OtpService{
		Store:      st,
		Notify:     &NotifyService{Mailer: mailer},
		CodeLength: DefaultOtpLength,
		Validity:   DefaultOtpValidity,
		Rand:       rand.Reader,
	}

	reg := &RegistrationService{
		Store:  st,
		Otp:    otp,
		Token:  &TokenService{Signer: signer, Issuer: issuer, AccessTTL: time.Hour},
		Hasher: hasher,
		Strategies: []CredentialStrategy{
			&EmailPasswordStrategy{Store: st, Hasher: hasher},
		},
	}

	return &testEnv{store: st, mailer: mailer, otp: otp, reg: reg, keys: keys, issuer: issuer}
}

// latestCode digs the active challenge out of storage. Tests use it in
// place of reading an inbox.
func (e *testEnv) latestCode(t *testing.T, email string) string {
	t.Helper()
	c, err := e.store.OtpChallenges().GetLatestUnconsumed(context.Background(), email)
	require.NoError(t, err)
	return c.Code
}

func (e *testEnv) verifyToken(t *testing.T, token string) jwtx.Claims {
	t.Helper()
	claims, err := jwtx.NewCommonEdDSA(e.keys, e.issuer).Verify(token)
	require.NoError(t, err)
	return claims
}

func TestInitiateRegistrationIssuesChallenge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "alice@example.com"))

	require.Len(t, env.mailer.sent, 1)
	require.Equal(t, "alice@example.com", env.mailer.sent[0].to)

	code := env.latestCode(t, "alice@example.com")
	require.Len(t, code, DefaultOtpLength)
	require.Contains(t, env.mailer.sent[0].body, code)
}

func TestInitiateRegistrationRejectsTakenEmail(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "bob@example.com"))
	code := env.latestCode(t, "bob@example.com")
	_, err := env.reg.CompleteRegistration(ctx, "bob@example.com", "s3cret-pass", code)
	require.NoError(t, err)

	err = env.reg.InitiateRegistration(ctx, "bob@example.com")
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)
	require.Len(t, env.mailer.sent, 1) // no new challenge dispatched
}

func TestInitiateRegistrationKeepsChallengeOnDeliveryFailure(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	env.mailer.fail = errors.New("smtp: connection refused")
	err := env.reg.InitiateRegistration(ctx, "carol@example.com")
	require.ErrorIs(t, err, ErrDeliveryFailed)

	// The persisted challenge survives the failed dispatch and is usable.
	code := env.latestCode(t, "carol@example.com")
	env.mailer.fail = nil
	token, err := env.reg.CompleteRegistration(ctx, "carol@example.com", "s3cret-pass", code)
	require.NoError(t, err)
	require.NotEmpty(t, token)
}

func TestRetryInitiateSupersedesOlderChallenge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "dave@example.com"))
	first := env.latestCode(t, "dave@example.com")

	require.NoError(t, env.reg.InitiateRegistration(ctx, "dave@example.com"))
	second := env.latestCode(t, "dave@example.com")

	if first == second {
		t.Skip("codes collided; one in a million run")
	}

	// Only the latest challenge is reachable by validation.
	_, err := env.reg.CompleteRegistration(ctx, "dave@example.com", "s3cret-pass", first)
	require.ErrorIs(t, err, ErrOtpInvalid)

	_, err = env.reg.CompleteRegistration(ctx, "dave@example.com", "s3cret-pass", second)
	require.NoError(t, err)
}

func TestCompleteRegistrationRoundTrip(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "erin@example.com"))
	code := env.latestCode(t, "erin@example.com")

	token, err := env.reg.CompleteRegistration(ctx, "erin@example.com", "s3cret-pass", code)
	require.NoError(t, err)

	claims := env.verifyToken(t, token)
	require.Equal(t, "erin@example.com", claims.Subject)
	require.Equal(t, string(domain.RoleUser), claims.Role)

	// The fresh account can log in.
	loginToken, err := env.reg.Authenticate(ctx, Credentials{Email: "erin@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, "erin@example.com", env.verifyToken(t, loginToken).Subject)
}

func TestCompleteRegistrationStampsTimestamps(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "ivan@example.com"))
	code := env.latestCode(t, "ivan@example.com")

	before := time.Now().UTC()
	_, err := env.reg.CompleteRegistration(ctx, "ivan@example.com", "s3cret-pass", code)
	require.NoError(t, err)

	user, err := env.store.Users().GetUserByEmail(ctx, "ivan@example.com")
	require.NoError(t, err)
	require.False(t, user.CreatedAt.IsZero())
	require.False(t, user.UpdatedAt.IsZero())
	require.WithinDuration(t, before, user.CreatedAt, time.Minute)
	require.Equal(t, user.CreatedAt, user.UpdatedAt)
}

func TestCompleteRegistrationRejectsConsumedCode(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "frank@example.com"))
	code := env.latestCode(t, "frank@example.com")

	_, err := env.reg.CompleteRegistration(ctx, "frank@example.com", "s3cret-pass", code)
	require.NoError(t, err)

	// Replaying a consumed code fails, though here the email being taken
	// is observed first.
	_, err = env.reg.CompleteRegistration(ctx, "frank@example.com", "other-pass", code)
	require.ErrorIs(t, err, ErrEmailAlreadyRegistered)

	// For a different account the consumed code is simply gone.
	_, err = env.otp.Validate(ctx, "frank@example.com", code)
	require.ErrorIs(t, err, ErrOtpNotFound)
}

func TestCompleteRegistrationWithoutChallenge(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	_, err := env.reg.CompleteRegistration(ctx, "ghost@example.com", "s3cret-pass", "123456")
	require.ErrorIs(t, err, ErrOtpNotFound)

	// Nothing was created.
	exists, err := env.store.Users().ExistsByEmail(ctx, "ghost@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestCompleteRegistrationWrongCodeLeavesChallengeActive(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "grace@example.com"))
	code := env.latestCode(t, "grace@example.com")

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}

	_, err := env.reg.CompleteRegistration(ctx, "grace@example.com", "s3cret-pass", wrong)
	require.ErrorIs(t, err, ErrOtpInvalid)

	// The correct code still works afterwards.
	_, err = env.reg.CompleteRegistration(ctx, "grace@example.com", "s3cret-pass", code)
	require.NoError(t, err)
}

func TestAuthenticateInvalidCredentials(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)

	require.NoError(t, env.reg.InitiateRegistration(ctx, "heidi@example.com"))
	code := env.latestCode(t, "heidi@example.com")
	_, err := env.reg.CompleteRegistration(ctx, "heidi@example.com", "s3cret-pass", code)
	require.NoError(t, err)

	// Wrong password and unknown email yield the same error.
	_, err = env.reg.Authenticate(ctx, Credentials{Email: "heidi@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = env.reg.Authenticate(ctx, Credentials{Email: "nobody@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// Missing fields match no strategy.
	_, err = env.reg.Authenticate(ctx, Credentials{Email: "heidi@example.com"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
