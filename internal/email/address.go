package email

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail indicates an email address is not valid.
var ErrInvalidEmail = errors.New("invalid email address")

// Address is a bare email address such as "alice@example.com".
//
// The only normalisation applied is trimming surrounding whitespace, see
// NormalizeAddress. Casing is kept as entered: "Alice@example.com" and
// "alice@example.com" are different accounts.
type Address string

// NormalizeAddress returns raw in the form addresses are stored and
// compared in.
func NormalizeAddress(raw string) string {
	return strings.TrimSpace(raw)
}

// ParseAddress normalizes raw and checks it's shaped like a bare email address.
// Names and comments ("Alice <alice@example.com>") are rejected.
// It does not check the address exists.
func ParseAddress(raw string) (Address, error) {
	normalized := NormalizeAddress(raw)

	parsed, err := mail.ParseAddress(normalized)
	if err != nil || parsed.Address != normalized {
		return "", ErrInvalidEmail
	}

	return Address(normalized), nil
}

// Equal reports whether a and other are the same address, byte for byte.
func (a Address) Equal(other Address) bool {
	return a == other
}

func (a *Address) UnmarshalText(text []byte) error {
	addr, err := ParseAddress(string(text))
	if err != nil {
		return err
	}

	*a = addr

	return nil
}
