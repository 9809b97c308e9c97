package jwtx_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/jwtx"
)

const exampleIssuer = "https://auth.twine.test"

func TestNewJTI(t *testing.T) {
	first := jwtx.NewJTI()
	second := jwtx.NewJTI()

	require.NotEmpty(t, first)
	require.NotEqual(t, first, second)

	raw, err := base64.RawURLEncoding.DecodeString(first)
	require.NoError(t, err)
	require.Len(t, raw, 20)
}

func TestEdDSASignAndVerify(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	kid := "test-key-eddsa"

	signer, err := jwtx.NewSignerEdDSA(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "EdDSA", signer.Alg())
	require.Equal(t, kid, signer.KID())

	now := time.Now().UTC()
	claims := jwtx.NewAccessClaims("alice@example.com", "USER", 5*time.Minute, exampleIssuer, now)

	token, err := signer.Sign(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "OKP", jwks.Keys[0].Kty)
	require.Equal(t, "Ed25519", jwks.Keys[0].Crv)
	require.NotEmpty(t, jwks.Keys[0].X)

	verifier := jwtx.NewVerifierEdDSA(keyset, exampleIssuer)

	parsed, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", parsed.Subject)
	require.Equal(t, "alice@example.com", parsed.Email)
	require.Equal(t, "USER", parsed.Role)
	require.Equal(t, exampleIssuer, parsed.Issuer)
	require.NotEmpty(t, parsed.ID)
}

func TestES256SignAndVerify(t *testing.T) {
	pemKey, err := cryptox.GenerateES256Key()
	require.NoError(t, err)

	kid := "test-key-es256"

	signer, err := jwtx.NewSignerES256(kid, pemKey)
	require.NoError(t, err)
	require.NoError(t, signer.Validate())
	require.Equal(t, "ES256", signer.Alg())

	claims := jwtx.NewAccessClaims("bob@example.com", "ADMIN", time.Minute, exampleIssuer, time.Now().UTC())

	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	jwks := keyset.PublicJWKS()
	require.Len(t, jwks.Keys, 1)
	require.Equal(t, "EC", jwks.Keys[0].Kty)
	require.Equal(t, "P-256", jwks.Keys[0].Crv)

	parsed, err := jwtx.NewVerifierES256(keyset, exampleIssuer).Verify(token)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", parsed.Subject)
	require.Equal(t, "ADMIN", parsed.Role)
}

func TestVerifyFailsForWrongIssuer(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("iss-key", pemKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("carol@example.com", "USER", time.Minute, "https://someone-else", time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
	require.ErrorIs(t, err, jwtx.ErrIssuer)
}

func TestVerifyFailsForExpiredToken(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("exp-key", pemKey)
	require.NoError(t, err)

	// Issue a token that expired an hour ago.
	claims := jwtx.NewAccessClaims("dave@example.com", "USER", 30*time.Minute, exampleIssuer, time.Now().UTC().Add(-2*time.Hour))
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
	require.Error(t, err)
}

func TestVerifyFailsForUnknownKID(t *testing.T) {
	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("known-key", pemKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("erin@example.com", "USER", time.Minute, exampleIssuer, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	// Empty key set: the kid cannot resolve.
	keyset := jwtx.NewKeySet()
	_, err = jwtx.NewVerifierEdDSA(keyset, exampleIssuer).Verify(token)
	require.Error(t, err)
}

func TestVerifyRejectsAlgorithmConfusion(t *testing.T) {
	edKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	signer, err := jwtx.NewSignerEdDSA("confused-key", edKey)
	require.NoError(t, err)

	claims := jwtx.NewAccessClaims("frank@example.com", "USER", time.Minute, exampleIssuer, time.Now().UTC())
	token, err := signer.Sign(claims)
	require.NoError(t, err)

	keyset := jwtx.NewKeySet()
	require.NoError(t, keyset.AddSigner(signer))

	// An ES256 verifier must refuse an EdDSA-signed token outright.
	_, err = jwtx.NewVerifierES256(keyset, exampleIssuer).Verify(token)
	require.Error(t, err)
}
