package domain

import "time"

// OtpChallenge is a one-time verification code emailed during
// registration. A challenge stays valid until it is consumed or its
// ExpiresAt passes; a newer challenge for the same email supersedes the
// older ones because lookups always take the latest unconsumed row.
type OtpChallenge struct {
	ID        string
	Email     string
	Code      string
	Consumed  bool
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the challenge is past its validity window.
func (c OtpChallenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}
