// Package pg implements the account store on PostgreSQL.
package pg

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/willemschots/emailauth/internal/auth"
	authdb "github.com/willemschots/emailauth/internal/auth/db"
	"github.com/willemschots/emailauth/internal/db"
	"github.com/willemschots/emailauth/internal/errorz"
)

// Pool is the subset of *pgxpool.Pool used by the store.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
}

// Store is responsible for interacting with a PostgreSQL database.
type Store struct {
	pool Pool
}

// New creates a new Store.
func New(pool Pool) *Store {
	return &Store{
		pool: pool,
	}
}

// Connect opens a connection pool and checks it can reach the database.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return pool, nil
}

// CreateAccount inserts a new account.
func (s *Store) CreateAccount(ctx context.Context, a *auth.Account) error {
	q, params, err := authdb.InsertAccountQuery(db.Dollar, a)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, q, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	return nil
}

// FindAccounts queries for accounts based on the provided filter.
// It returns an empty slice if no accounts are found.
func (s *Store) FindAccounts(ctx context.Context, filter *auth.AccountFilter) ([]auth.Account, error) {
	q, params := authdb.SelectAccountsQuery(db.Dollar, filter)

	rows, err := s.pool.Query(ctx, q, params...)
	if err != nil {
		return nil, errorz.MapDBErr(err)
	}
	defer rows.Close()

	out := make([]auth.Account, 0)
	for rows.Next() {
		a, err := authdb.ScanAccount(rows)
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
	q, params := authdb.VerifyAccountQuery(db.Dollar, id, at)

	tag, err := s.pool.Exec(ctx, q, params...)
	if err != nil {
		return errorz.MapDBErr(err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("unverified account not found: %w", errorz.ErrNotFound)
	}

	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
