package db

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite needs a few options to work well with the auth service:
// - WAL mode so that reads and writes don't block each other.
// - A busy timeout, the duration a connection will wait for a lock.
// - Immediate transactions for writers to prevent locking issues.
const (
	writeOptions = "?_journal_mode=wal&_busy_timeout=5000&_txlock=immediate"
	readOptions  = "?_journal_mode=wal&_busy_timeout=5000&_query_only=true"
)

// OpenSQLite opens a pool of SQLite connections. Different settings
// are appropriate for reading and writing, so this function needs to know
// what the sql.DB will be used for.
//
// See this comment for more information:
// https://github.com/mattn/go-sqlite3/issues/1179#issuecomment-1638083995
func OpenSQLite(dbFile string, write bool) (*sql.DB, error) {
	optsPostfix := readOptions
	if write {
		optsPostfix = writeOptions
	}

	db, err := sql.Open("sqlite3", dbFile+optsPostfix)
	if err != nil {
		return nil, err
	}

	if write {
		// a single connection for writing, it is never closed.
		// this also keeps :memory: databases alive.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
	}

	return db, nil
}
