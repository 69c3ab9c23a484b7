package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/krypto"
)

var ErrInvalidCredential = errors.New("invalid credential")

// Claims are the claims in a session credential.
type Claims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// CredentialIssuer signs session credentials (HS256 JWTs) after a
// successful login. Credentials carry no expiry.
type CredentialIssuer struct {
	secret krypto.Secret

	// NowFunc is used for the issued at claim.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

// NewCredentialIssuer creates an issuer signing with secret.
func NewCredentialIssuer(secret krypto.Secret) (*CredentialIssuer, error) {
	if secret.IsZero() {
		return nil, krypto.ErrEmptySecret
	}

	return &CredentialIssuer{
		secret:  secret,
		NowFunc: time.Now,
	}, nil
}

// Issue signs a credential for the account.
func (i *CredentialIssuer) Issue(accountID uuid.UUID, addr email.Address) (string, error) {
	claims := Claims{
		ID:    accountID.String(),
		Email: string(addr),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(i.NowFunc()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret.SecretValue())
	if err != nil {
		return "", fmt.Errorf("failed to sign credential: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature of a credential and returns its claims.
func (i *CredentialIssuer) Parse(raw string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return i.secret.SecretValue(), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, errors.Join(ErrInvalidCredential, err)
	}

	if !token.Valid {
		return nil, ErrInvalidCredential
	}

	return claims, nil
}
