package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/krypto"
)

// AccountFilter is used to filter accounts.
// Returned accounts must match all the provided fields.
// If a field is empty, it's ignored.
type AccountFilter struct {
	IDs    []uuid.UUID
	Emails []email.Address
	Tokens []krypto.Token
}

// Store provides access to the account store.
type Store interface {
	// CreateAccount stores a new account. It returns errorz.ErrConstraintViolated
	// if the ID, email or verification token is already taken.
	CreateAccount(ctx context.Context, a *Account) error
	// FindAccounts returns the accounts matching the filter, ordered by ID.
	// It returns an empty slice if none match.
	FindAccounts(ctx context.Context, filter *AccountFilter) ([]Account, error)
	// VerifyAccount marks an unverified account as verified. It returns
	// errorz.ErrNotFound if no unverified account with the ID exists.
	VerifyAccount(ctx context.Context, id uuid.UUID, at time.Time) error
}
