package app

import (
	"fmt"
	"log/slog"

	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/idx"
	"github.com/twineproject/twine/pkg/jwtx"
)

// InitAuthKeys generates an ephemeral signing key for the configured
// algorithm and builds the KeySet and verifier around it. The key lives
// only in memory, so every issued token dies with the process; fine for a
// service whose token TTL is short relative to deploy cadence.
//
// Supported algorithms: ES256, EdDSA.
func InitAuthKeys(cfg Config, logger *slog.Logger) (jwtx.Signer, *jwtx.KeySet, jwtx.Verifier, error) {
	kid := idx.New().String()

	var (
		signer jwtx.Signer
		err    error
	)

	switch cfg.Algorithm {
	case "ES256":
		var pemKey []byte
		pemKey, err = cryptox.GenerateES256Key()
		if err == nil {
			signer, err = jwtx.NewSignerES256(kid, pemKey)
		}
	case "EdDSA":
		var pemKey []byte
		pemKey, err = cryptox.GenerateEd25519Key()
		if err == nil {
			signer, err = jwtx.NewSignerEdDSA(kid, pemKey)
		}
	default:
		return nil, nil, nil, fmt.Errorf("unsupported signing algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to generate %s signing key: %w", cfg.Algorithm, err)
	}

	if err := signer.Validate(); err != nil {
		return nil, nil, nil, err
	}

	keys := jwtx.NewKeySet()
	if err := keys.AddSigner(signer); err != nil {
		return nil, nil, nil, err
	}

	var verifier jwtx.Verifier
	switch cfg.Algorithm {
	case "ES256":
		verifier = jwtx.NewCommonES256(keys, cfg.Issuer)
	default:
		verifier = jwtx.NewCommonEdDSA(keys, cfg.Issuer)
	}

	logger.Info("signing key generated",
		"algorithm", cfg.Algorithm,
		"kid", signer.KID(),
	)

	return signer, keys, verifier, nil
}
