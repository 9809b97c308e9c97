package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/internal/auth/store/drivers/sqlite"
	"github.com/twineproject/twine/pkg/idx"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestUser(email string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:           idx.New().String(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdHNhbHQ$aGFzaGhhc2g",
		Role:         domain.RoleUser,
		Enabled:      true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsersRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := newTestUser("alice@example.com")
	require.NoError(t, st.Users().CreateUser(ctx, u))

	byID, err := st.Users().GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, byID.Email)
	require.Equal(t, domain.RoleUser, byID.Role)
	require.True(t, byID.Enabled)

	byEmail, err := st.Users().GetUserByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Equal(t, u.ID, byEmail.ID)

	exists, err := st.Users().ExistsByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = st.Users().ExistsByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestUsersNotFound(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Users().GetUserByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	require.NoError(t, st.Users().CreateUser(ctx, newTestUser("bob@example.com")))

	err := st.Users().CreateUser(ctx, newTestUser("bob@example.com"))
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func newTestChallenge(email, code string, expiresAt time.Time) domain.OtpChallenge {
	return domain.OtpChallenge{
		ID:        idx.New().String(),
		Email:     email,
		Code:      code,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
}

func TestOtpChallengeLatestWins(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	expires := time.Now().UTC().Add(5 * time.Minute)

	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, newTestChallenge("carol@example.com", "111111", expires)))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, newTestChallenge("carol@example.com", "222222", expires)))

	latest, err := st.OtpChallenges().GetLatestUnconsumed(ctx, "carol@example.com")
	require.NoError(t, err)
	require.Equal(t, "222222", latest.Code)
}

func TestOtpChallengeConsume(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	c := newTestChallenge("dave@example.com", "333333", time.Now().UTC().Add(5*time.Minute))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, c))

	require.NoError(t, st.OtpChallenges().MarkChallengeConsumed(ctx, c.ID))

	_, err := st.OtpChallenges().GetLatestUnconsumed(ctx, "dave@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestMarkChallengeConsumedOnlyOnce(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	c := newTestChallenge("ivan@example.com", "777777", time.Now().UTC().Add(5*time.Minute))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, c))

	require.NoError(t, st.OtpChallenges().MarkChallengeConsumed(ctx, c.ID))

	// A second consume of the same challenge finds nothing to flip.
	err := st.OtpChallenges().MarkChallengeConsumed(ctx, c.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	err = st.OtpChallenges().MarkChallengeConsumed(ctx, "no-such-id")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDeadChallenges(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	now := time.Now().UTC()

	expired := newTestChallenge("erin@example.com", "444444", now.Add(-time.Minute))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, expired))

	consumed := newTestChallenge("erin@example.com", "555555", now.Add(5*time.Minute))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, consumed))
	require.NoError(t, st.OtpChallenges().MarkChallengeConsumed(ctx, consumed.ID))

	alive := newTestChallenge("frank@example.com", "666666", now.Add(5*time.Minute))
	require.NoError(t, st.OtpChallenges().CreateChallenge(ctx, alive))

	deleted, err := st.OtpChallenges().DeleteDeadChallenges(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	got, err := st.OtpChallenges().GetLatestUnconsumed(ctx, "frank@example.com")
	require.NoError(t, err)
	require.Equal(t, "666666", got.Code)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := newTestUser("grace@example.com")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Users().CreateUser(ctx, u); err != nil {
			return err
		}
		return context.Canceled // force a rollback
	})
	require.Error(t, err)

	exists, err := st.Users().ExistsByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestWithTxCommits(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	u := newTestUser("heidi@example.com")
	err := st.WithTx(ctx, func(tx store.Tx) error {
		return tx.Users().CreateUser(ctx, u)
	})
	require.NoError(t, err)

	exists, err := st.Users().ExistsByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.True(t, exists)
}
