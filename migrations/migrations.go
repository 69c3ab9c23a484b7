// Package migrations embeds the database schema migrations.
//
// SQLite migrations are plain .sql files applied in numeric order by
// internal/db/migrate. PostgreSQL migrations are goose files.
package migrations

import (
	"embed"
	"io/fs"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

//go:embed postgres/*.sql
var postgresFS embed.FS

var (
	SQLite   fs.FS
	Postgres fs.FS
)

func init() {
	var err error

	SQLite, err = fs.Sub(sqliteFS, "sqlite")
	if err != nil {
		panic("failed to subtree sqlite migrations FS " + err.Error())
	}

	Postgres, err = fs.Sub(postgresFS, "postgres")
	if err != nil {
		panic("failed to subtree postgres migrations FS " + err.Error())
	}
}
