package domain

import "time"

// Role is the coarse authorization level baked into issued tokens.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User is a registered account. Email is the login identifier and is
// unique. Accounts only come into existence after the email challenge
// has been passed, so there is no "pending" state here.
type User struct {
	ID           string
	Email        string
	PasswordHash string // argon2 encoded
	Role         Role
	Enabled      bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
