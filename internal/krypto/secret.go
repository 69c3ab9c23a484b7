package krypto

import (
	"errors"
	"fmt"
	"log/slog"
)

// SecretMarker is a string we can look for in logs to see if the app
// is accidentally exposing secrets.
const SecretMarker = "<!SECRET_REDACTED!>"

// ErrEmptySecret is returned when a secret is required but none was provided.
var ErrEmptySecret = errors.New("empty secret")

// Secret is arbitrary sensitive data that needs to be passed
// around but not exposed. Things like signing keys or SMTP passwords.
type Secret struct {
	value []byte
}

// NewSecret creates a new secret.
func NewSecret(raw string) Secret {
	return Secret{
		value: []byte(raw),
	}
}

// ParseSecret is like NewSecret but rejects empty input.
func ParseSecret(raw string) (Secret, error) {
	if raw == "" {
		return Secret{}, ErrEmptySecret
	}
	return NewSecret(raw), nil
}

// IsZero reports whether the secret holds no data.
func (k Secret) IsZero() bool {
	return len(k.value) == 0
}

func (k Secret) Format(f fmt.State, verb rune) {
	f.Write([]byte(SecretMarker))
}

func (k Secret) MarshalText() ([]byte, error) {
	return []byte(SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (k Secret) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}

// SecretValue returns the secret as a byte slice. This is provided
// as an escape hatch for cases where the secret needs to be provided
// to third party packages or libraries.
func (k Secret) SecretValue() []byte {
	return k.value
}
