package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"os"
	"path/filepath"
)

// LoadOrCreatePepper loads the password pepper from a file, generating and
// persisting a new one on first run. The pepper must survive restarts or
// every stored password hash becomes unverifiable.
func LoadOrCreatePepper(path string) (string, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", err
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		raw := make([]byte, keyLength)
		if _, err := rand.Read(raw); err != nil {
			return "", err
		}
		pepper := base64.RawURLEncoding.EncodeToString(raw)

		if err := os.WriteFile(path, []byte(pepper), 0600); err != nil {
			return "", err
		}
		return pepper, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
