package auth

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"log/slog"

	"github.com/willemschots/emailauth/internal/krypto"
	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt cost used for new hashes.
	PasswordCost = 10

	// bcrypt ignores everything after 72 bytes, we reject it instead.
	maxPasswordBytes = 72
)

var ErrInvalidPassword = errors.New("invalid password")

// Password is a plaintext password.
//
// It should never be persisted, logged or exposed in any other way. To
// protect ourselves from accidentally doing so, the type implements
// several common interfaces that would allow it to be used inappropriately.
//
// There are only two operations allowed on a Password:
// - Converting it to a hash.
// - Comparing it with an existing hash to see if they match.
type Password struct {
	plain []byte
}

// ParsePassword creates a new Password from a plaintext string.
// It errors if the password is empty or longer than 72 bytes.
func ParsePassword(pwd string) (Password, error) {
	if len(pwd) == 0 || len(pwd) > maxPasswordBytes {
		return Password{}, ErrInvalidPassword
	}

	return Password{
		plain: []byte(pwd),
	}, nil
}

// Match reports whether the password matches the hash. Malformed
// hashes never match.
func (p Password) Match(h PasswordHash) bool {
	return bcrypt.CompareHashAndPassword(h, p.plain) == nil
}

// Hash hashes the password with bcrypt and a random salt.
func (p Password) Hash() (PasswordHash, error) {
	h, err := bcrypt.GenerateFromPassword(p.plain, PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return PasswordHash(h), nil
}

func (p Password) Format(f fmt.State, verb rune) {
	f.Write([]byte(krypto.SecretMarker))
}

func (p Password) MarshalText() ([]byte, error) {
	return []byte(krypto.SecretMarker), nil
}

// LogValue implements the slog.LogValuer interface.
func (p Password) LogValue() slog.Value {
	return slog.StringValue(krypto.SecretMarker)
}

// PasswordHash is a bcrypt hash in its modular crypt format ("$2a$10$...").
type PasswordHash []byte

// String returns the hash in its modular crypt format.
func (h PasswordHash) String() string {
	return string(h)
}

// Value implements the driver.Valuer interface.
func (h PasswordHash) Value() (driver.Value, error) {
	return string(h), nil
}

// Scan implements the sql.Scanner interface.
func (h *PasswordHash) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*h = PasswordHash(v)
	case []byte:
		*h = append(PasswordHash(nil), v...)
	default:
		return fmt.Errorf("unsupported type %T for password hash", src)
	}
	return nil
}
