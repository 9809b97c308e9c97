package cryptox

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
)

// DecimalAlphabet is the alphabet used for numeric one-time codes.
const DecimalAlphabet = "0123456789"

// GenerateCode draws length characters uniformly from alphabet using the
// provided entropy source. The source must be cryptographically strong
// (crypto/rand.Reader in production); codes gate account creation and must
// resist prediction.
func GenerateCode(entropy io.Reader, alphabet string, length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("cryptox: code length must be positive, got %d", length)
	}
	if alphabet == "" {
		return "", fmt.Errorf("cryptox: code alphabet must not be empty")
	}

	code := make([]byte, length)
	max := big.NewInt(int64(len(alphabet)))
	for i := range code {
		n, err := rand.Int(entropy, max)
		if err != nil {
			return "", fmt.Errorf("cryptox: failed to generate random code: %w", err)
		}
		code[i] = alphabet[n.Int64()]
	}
	return string(code), nil
}
