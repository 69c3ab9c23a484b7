package auth

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/errorz"
	"github.com/willemschots/emailauth/internal/krypto"
)

// Account is a registered email address with its password and
// verification state.
type Account struct {
	ID                uuid.UUID
	Email             email.Address
	PasswordHash      PasswordHash
	VerificationToken krypto.Token
	IsVerified        bool
	// ExpiresAt is the moment the verification token expires.
	// Nil means it never expires.
	ExpiresAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Credentials are the email and password a client provides
// to register or log in.
type Credentials struct {
	Email    email.Address
	Password Password
}

// ParseCredentials validates raw credentials. It returns an errorz.InvalidInput
// with an errorz.Keyed error for every invalid field.
func ParseCredentials(rawEmail, rawPassword string) (Credentials, error) {
	var (
		c    Credentials
		errs errorz.InvalidInput
		err  error
	)

	c.Email, err = email.ParseAddress(rawEmail)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "email", Err: err})
	}

	c.Password, err = ParsePassword(rawPassword)
	if err != nil {
		errs = append(errs, errorz.Keyed{Key: "password", Err: err})
	}

	if len(errs) > 0 {
		return Credentials{}, errs
	}

	return c, nil
}

// Session is the result of a successful login.
type Session struct {
	// Token is the signed credential the client presents on later requests.
	Token     string
	AccountID uuid.UUID
	Email     email.Address
}

// IsInvalidInput reports whether err is caused by invalid client input.
func IsInvalidInput(err error) bool {
	var invalid errorz.InvalidInput
	return errors.As(err, &invalid)
}
