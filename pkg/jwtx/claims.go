package jwtx

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAccessTokenTTL is the default lifetime for access tokens.
const DefaultAccessTokenTTL = 24 * time.Hour

// Claims are the access-token claims issued by this service. The token is a
// self-contained bearer credential: everything the authorization boundary
// needs is inside it, there is no server-side session table.
type Claims struct {
	jwt.RegisteredClaims

	// Role the account holds, e.g. "USER" or "ADMIN".
	Role string `json:"role,omitempty"`

	// Email mirrors the subject. Kept as an explicit claim so resource
	// servers don't need to know the subject happens to be an email.
	Email string `json:"email,omitempty"`
}

// NewAccessClaims builds minimally-correct claims for an account.
// The subject is the account email.
func NewAccessClaims(email, role string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        NewJTI(),
		},
		Role:  role,
		Email: email,
	}
}

// NewJTI returns a URL-safe random identifier for the "jti" claim. A
// failing entropy source panics rather than issuing predictable ids.
func NewJTI() string {
	var b [20]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic("jwtx: entropy source failed: " + err.Error())
	}
	return base64.RawURLEncoding.EncodeToString(b[:])
}

// ValidateIssuer checks if the issuer matches expected value.
func (c *Claims) ValidateIssuer(expected string) error {
	if expected == "" {
		return nil // nothing to enforce
	}
	if c.Issuer != expected {
		return ErrIssuer
	}
	return nil
}

// ValidateExpiry ensures the token hasn't expired (exp) and isn't used
// before it is valid (nbf).
func (c *Claims) ValidateExpiry() error {
	now := time.Now().UTC()

	if c.ExpiresAt != nil && now.After(c.ExpiresAt.Time) {
		return ErrExpired
	}
	if c.NotBefore != nil && now.Before(c.NotBefore.Time) {
		return ErrNotYetValid
	}
	return nil
}
