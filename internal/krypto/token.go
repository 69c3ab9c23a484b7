package krypto

import (
	"errors"
	"log/slog"

	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

// Token is a random verification token that is sent via email.
//
// Tokens are random version 4 UUIDs in their canonical string form. The only
// time a token should be exposed in plaintext is as part of the link in the
// email to the user, so a Token redacts itself in logs.
type Token string

// NewToken creates a new random token.
func NewToken() (Token, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return Token(id.String()), nil
}

// ParseToken parses a token from a string. Only canonical
// (lowercase, hyphenated) version 4 UUIDs are accepted.
func ParseToken(raw string) (Token, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", ErrInvalidToken
	}

	if id.Version() != 4 || id.String() != raw {
		return "", ErrInvalidToken
	}

	return Token(raw), nil
}

// String returns the string representation of the token.
// As opposed to a password this is allowed, we need to embed the
// token in emails.
func (t Token) String() string {
	return string(t)
}

// LogValue implements the slog.LogValuer interface.
func (t Token) LogValue() slog.Value {
	return slog.StringValue(SecretMarker)
}
