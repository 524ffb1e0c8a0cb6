// Package credential keeps the API bearer token in the system keyring.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/99designs/keyring"
)

const (
	serviceName = "notifications"
	tokenKey    = "api-token"
)

// ErrNoToken is returned when no token has been saved, or the saved one is blank.
var ErrNoToken = errors.New("no API token stored")

// openRing is swapped for an in-memory ring in tests.
var openRing = func() (keyring.Keyring, error) {
	return keyring.Open(keyring.Config{
		ServiceName: serviceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  "~/.config/notifications/credentials",
		FilePasswordFunc:         keyring.FixedStringPrompt("notifications-file-key"),
		KeychainTrustApplication: true,
	})
}

func ring() (keyring.Keyring, error) {
	r, err := openRing()
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return r, nil
}

// Token returns the saved API token, or ErrNoToken.
func Token() (string, error) {
	r, err := ring()
	if err != nil {
		return "", err
	}
	item, err := r.Get(tokenKey)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", fmt.Errorf("reading API token: %w", err)
	}
	t := strings.TrimSpace(string(item.Data))
	if t == "" {
		return "", ErrNoToken
	}
	return t, nil
}

// SaveToken stores token, replacing any previous one.
func SaveToken(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrNoToken
	}
	r, err := ring()
	if err != nil {
		return err
	}
	if err := r.Set(keyring.Item{
		Key:   tokenKey,
		Data:  []byte(token),
		Label: "Notification center API token",
	}); err != nil {
		return fmt.Errorf("saving API token: %w", err)
	}
	return nil
}

// ClearToken removes the saved token. Clearing when nothing is saved succeeds.
func ClearToken() error {
	r, err := ring()
	if err != nil {
		return err
	}
	if err := r.Remove(tokenKey); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("removing API token: %w", err)
	}
	return nil
}
