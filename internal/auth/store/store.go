package store

import (
	"context"
	"errors"
	"time"

	"github.com/twineproject/twine/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for
// now) implement this. It exposes sub-repositories to keep concerns tidy
// and testable, and to stop callers from accidentally nesting
// transactions.
type Store interface {
	Users() Users
	OtpChallenges() OtpChallenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes a function within a transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn returns nil, the transaction is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during login and registration checks.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// ExistsByEmail reports whether an account already holds the email.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// CreateUser inserts a new user (id is provided by app via ULID).
	// Returns ErrAlreadyExists when the email is already taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash (argon2) and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID string, newHash string) error
}

type OtpChallenges interface {
	// CreateChallenge writes a freshly generated challenge.
	CreateChallenge(ctx context.Context, c domain.OtpChallenge) error

	// GetLatestUnconsumed returns the most recently created unconsumed
	// challenge for the email, expired or not. Expiry is the service's
	// call to make.
	GetLatestUnconsumed(ctx context.Context, email string) (domain.OtpChallenge, error)

	// MarkChallengeConsumed flips consumed so the code cannot be reused.
	MarkChallengeConsumed(ctx context.Context, id string) error

	// DeleteDeadChallenges removes consumed and expired rows (housekeeping).
	DeleteDeadChallenges(ctx context.Context, now time.Time) (int64, error)
}
