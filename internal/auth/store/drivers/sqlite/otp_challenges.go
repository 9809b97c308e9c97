package sqlite

import (
	"context"
	"time"

	"github.com/twineproject/twine/internal/auth/domain"
	"github.com/twineproject/twine/internal/auth/store"
)

type otpChallengesRepo struct {
	db dbtx
}

func (r *otpChallengesRepo) CreateChallenge(ctx context.Context, c domain.OtpChallenge) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (id, email, code, consumed, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Email, c.Code, c.Consumed, c.CreatedAt, c.ExpiresAt)
	return mapConstraint(err)
}

func (r *otpChallengesRepo) GetLatestUnconsumed(ctx context.Context, email string) (domain.OtpChallenge, error) {
	// ULIDs sort by creation time, so ordering by id breaks ties within
	// the same created_at second.
	row := r.db.QueryRowContext(ctx,
		`SELECT id, email, code, consumed, created_at, expires_at
		 FROM otp_challenges
		 WHERE email = ? AND consumed = 0
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, email)

	var c domain.OtpChallenge
	err := row.Scan(&c.ID, &c.Email, &c.Code, &c.Consumed, &c.CreatedAt, &c.ExpiresAt)
	if err != nil {
		return domain.OtpChallenge{}, mapNotFound(err)
	}
	return c, nil
}

func (r *otpChallengesRepo) MarkChallengeConsumed(ctx context.Context, id string) error {
	// The consumed guard makes this a compare-and-set, so two callers
	// racing over the same challenge cannot both consume it.
	res, err := r.db.ExecContext(ctx,
		`UPDATE otp_challenges SET consumed = 1 WHERE id = ? AND consumed = 0`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *otpChallengesRepo) DeleteDeadChallenges(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE consumed = 1 OR expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
