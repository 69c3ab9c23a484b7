package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/willemschots/emailauth/migrations"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate applies the embedded PostgreSQL migrations using goose.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	// closing db leaves pool open.
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	return migrate(ctx, db)
}

func migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Postgres)
	err := goose.SetDialect("pgx")
	if err != nil {
		return err
	}

	err = gooseUpContext(ctx, db, ".")
	if err != nil {
		return fmt.Errorf("failed to run postgres migrations: %w", err)
	}

	return nil
}
