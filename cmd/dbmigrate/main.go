package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/willemschots/emailauth/internal"
	"github.com/willemschots/emailauth/internal/auth/pg"
	"github.com/willemschots/emailauth/internal/db"
	"github.com/willemschots/emailauth/internal/db/migrate"
	"github.com/willemschots/emailauth/migrations"
)

const helpText = `Usage: dbmigrate [sqlite3|postgres] [dsn]`

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintln(os.Stderr, helpText)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*60)
	defer cancel()

	err := run(ctx, os.Stdout, os.Args[1], os.Args[2])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		cancel()
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, driver, dsn string) error {
	switch driver {
	case "sqlite3":
		return migrateSQLite(ctx, w, dsn)
	case "postgres":
		return migratePostgres(ctx, w, dsn)
	default:
		return fmt.Errorf("unknown driver %q\n%s", driver, helpText)
	}
}

func migrateSQLite(ctx context.Context, w io.Writer, dsn string) error {
	sqlDB, err := db.OpenSQLite(dsn, true)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer sqlDB.Close()

	meta := migrate.Metadata{
		AppVersion: internal.Version(),
		Timestamp:  time.Now(),
	}

	ran, err := migrate.RunFS(ctx, sqlDB, migrations.SQLite, meta)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, m := range ran {
		fmt.Fprintf(w, "%d: %s\n", m.Sequence, m.Filename)
	}

	return nil
}

func migratePostgres(ctx context.Context, w io.Writer, dsn string) error {
	pool, err := pg.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	defer pool.Close()

	err = pg.Migrate(ctx, pool)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, "postgres migrations applied")
	return nil
}
