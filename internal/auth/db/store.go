// Package db implements the account store on SQLite.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/auth"
	"github.com/willemschots/emailauth/internal/db"
	"github.com/willemschots/emailauth/internal/errorz"
)

// Store is responsible for interacting with a SQLite database.
type Store struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

// New creates a new Store. readDB and writeDB may be the same pool.
func New(readDB, writeDB *sql.DB) *Store {
	return &Store{
		readDB:  readDB,
		writeDB: writeDB,
	}
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a *auth.Account) error {
	q, params, err := InsertAccountQuery(db.Question, a)
	if err != nil {
		return err
	}

	_, err = s.writeDB.ExecContext(ctx, q, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

// FindAccounts queries for accounts based on the provided filter.
// It returns an empty slice if no accounts are found.
func (s *Store) FindAccounts(ctx context.Context, filter *auth.AccountFilter) ([]auth.Account, error) {
	q, params := SelectAccountsQuery(db.Question, filter)

	rows, err := s.readDB.QueryContext(ctx, q, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	out := make([]auth.Account, 0)
	for rows.Next() {
		a, err := ScanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	if err := rows.Err(); err != nil {
		return nil, errorz.MapDBErr(err)
	}

	return out, nil
}

// VerifyAccount marks the account as verified if it isn't already.
// It returns errorz.ErrNotFound if no unverified account was updated.
func (s *Store) VerifyAccount(ctx context.Context, id uuid.UUID, at time.Time) error {
	q, params := VerifyAccountQuery(db.Question, id, at)

	result, err := s.writeDB.ExecContext(ctx, q, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if rows == 0 {
		return fmt.Errorf("unverified account not found: %w", errorz.ErrNotFound)
	}

	return nil
}

// Ping checks the database connections.
func (s *Store) Ping(ctx context.Context) error {
	err := s.readDB.PingContext(ctx)
	if err != nil {
		return err
	}
	return s.writeDB.PingContext(ctx)
}
