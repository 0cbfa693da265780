package credential

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/99designs/keyring"

	"github.com/nhle/planbatch/internal/model"
)

const serviceName = "planbatch"

// Keys lists the credentials the app knows how to use.
var Keys = []string{model.SecretSheetsAPIKey, model.SecretIngestURL}

// IsKnown reports whether key is one of Keys.
func IsKnown(key string) bool {
	for _, k := range Keys {
		if k == key {
			return true
		}
	}
	return false
}

// open is replaced in tests with an in-memory keyring.
var open = openKeyring

// openKeyring returns a configured keyring instance.
func openKeyring() (keyring.Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(model.ConfigDir(), "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("planbatch-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return ring, nil
}

// Get retrieves a credential value by key from the system keyring.
func Get(key string) (string, error) {
	ring, err := open()
	if err != nil {
		return "", err
	}

	item, err := ring.Get(key)
	if err != nil {
		return "", fmt.Errorf("getting credential %q: %w", key, err)
	}

	return string(item.Data), nil
}

// Lookup is Get for optional credentials: a missing key or an unusable
// keyring both report ok=false.
func Lookup(key string) (string, bool) {
	v, err := Get(key)
	if err != nil || v == "" {
		return "", false
	}
	return v, true
}

// Set stores a credential value by key in the system keyring.
func Set(key string, value string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Set(keyring.Item{
		Key:   key,
		Data:  []byte(value),
		Label: serviceName + " " + key,
	})
	if err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}

	return nil
}

// Delete removes a credential by key from the system keyring. Deleting a
// key that is not stored is not an error.
func Delete(key string) error {
	ring, err := open()
	if err != nil {
		return err
	}

	err = ring.Remove(key)
	if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("deleting credential %q: %w", key, err)
	}

	return nil
}
