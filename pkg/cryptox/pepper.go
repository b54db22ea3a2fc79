package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreatePepper reads the pepper stored at path, generating and
// persisting a new one on first start. An empty path disables peppering.
func LoadOrCreatePepper(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := loadOrCreateSecret(path, func() ([]byte, error) {
		raw := make([]byte, keyLength)
		if _, err := rand.Read(raw); err != nil {
			return nil, err
		}
		return []byte(base64.RawURLEncoding.EncodeToString(raw)), nil
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// loadOrCreateSecret returns the contents of path, calling generate and
// writing its result with 0600 permissions when the file does not exist yet.
func loadOrCreateSecret(path string, generate func() ([]byte, error)) ([]byte, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(path)
	if err == nil {
		return b, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	b, err = generate()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, b, 0600); err != nil {
		return nil, err
	}
	return b, nil
}
