package db

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/auth"
	"github.com/willemschots/emailauth/internal/db"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/errorz"
	"github.com/willemschots/emailauth/internal/krypto"
)

// The query builders below are shared by the SQLite and PostgreSQL stores,
// only the placeholder style differs.

const accountColumns = `id, email, password_hash, verification_token, is_verified, expires_at, created_at, updated_at`

// InsertAccountQuery builds the query that inserts a.
func InsertAccountQuery(p db.Placeholder, a *auth.Account) (string, []any, error) {
	if a.ID == uuid.Nil {
		return "", nil, fmt.Errorf("zero uuid provided: %w", errorz.ErrConstraintViolated)
	}

	q := db.NewQuery(p)
	q.Unsafe(`INSERT INTO accounts (` + accountColumns + `) VALUES (`)
	q.Params(
		a.ID,
		string(a.Email),
		a.PasswordHash,
		string(a.VerificationToken),
		a.IsVerified,
		a.ExpiresAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	q.Unsafe(`)`)

	s, params := q.Get()
	return s, params, nil
}

// SelectAccountsQuery builds the query that selects the accounts matching f.
func SelectAccountsQuery(p db.Placeholder, f *auth.AccountFilter) (string, []any) {
	q := db.NewQuery(p)
	q.Unsafe(`SELECT ` + accountColumns + ` FROM accounts WHERE 1=1`)

	if len(f.IDs) > 0 {
		q.Unsafe(` AND id IN (`)
		q.Params(anySlice(f.IDs)...)
		q.Unsafe(`)`)
	}

	if len(f.Emails) > 0 {
		q.Unsafe(` AND email IN (`)
		q.Params(stringSlice(f.Emails)...)
		q.Unsafe(`)`)
	}

	if len(f.Tokens) > 0 {
		q.Unsafe(` AND verification_token IN (`)
		q.Params(stringSlice(f.Tokens)...)
		q.Unsafe(`)`)
	}

	q.Unsafe(` ORDER BY id ASC`)

	return q.Get()
}

// VerifyAccountQuery builds the conditional update that verifies an account.
// It affects no rows if the account is already verified.
func VerifyAccountQuery(p db.Placeholder, id uuid.UUID, at time.Time) (string, []any) {
	q := db.NewQuery(p)
	q.Unsafe(`UPDATE accounts SET is_verified = `)
	q.Param(true)
	q.Unsafe(`, updated_at = `)
	q.Param(at)
	q.Unsafe(` WHERE id = `)
	q.Param(id)
	q.Unsafe(` AND is_verified = `)
	q.Param(false)

	return q.Get()
}

// Scanner is implemented by both database/sql and pgx rows.
type Scanner interface {
	Scan(dest ...any) error
}

// ScanAccount scans a row selected by SelectAccountsQuery.
func ScanAccount(row Scanner) (auth.Account, error) {
	var (
		a         auth.Account
		emailAddr string
		token     string
	)

	err := row.Scan(&a.ID, &emailAddr, &a.PasswordHash, &token, &a.IsVerified, &a.ExpiresAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return auth.Account{}, errorz.MapDBErr(err)
	}

	a.Email = email.Address(emailAddr)
	a.VerificationToken = krypto.Token(token)

	return a, nil
}

func stringSlice[T ~string](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, string(v))
	}
	return out
}

func anySlice[T any](s []T) []any {
	out := make([]any, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	return out
}
