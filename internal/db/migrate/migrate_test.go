package migrate_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/willemschots/emailauth/internal/db/migrate"
	"github.com/willemschots/emailauth/internal/db/testdb"
)

const (
	createTable = `CREATE TABLE test_table (id INTEGER PRIMARY KEY);`
	insertRow   = `INSERT INTO test_table DEFAULT VALUES;`
)

func sqlFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func Test_RunFS(t *testing.T) {
	t.Run("ok, empty dir", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		got, err := migrate.RunFS(context.Background(), db, fstest.MapFS{}, meta(t, "v1.0.0", "2024-03-20T14:56:00Z"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		assertMigrations(t, got, []migrate.Migration{})
		assertTable(t, db, []migrate.Migration{})
	})

	t.Run("ok, subdirs and other files are skipped", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		fsys := sqlFS(map[string]string{
			"2_create_test_table.sql":     createTable,
			"README.md":                   "not a migration",
			"subdir/1_should_not_run.sql": "SELECT nonsense;",
		})

		m := meta(t, "v1.0.0", "2024-03-20T14:56:00Z")
		got, err := migrate.RunFS(context.Background(), db, fsys, m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []migrate.Migration{
			{Sequence: 0, Filename: "2_create_test_table.sql", Metadata: m},
		}
		assertMigrations(t, got, want)
		assertTable(t, db, want)
		assertNrOfRowsInTestTable(t, db, 0)
	})

	t.Run("ok, files run in numeric order", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		fsys := sqlFS(map[string]string{
			"10_add_row.sql":     insertRow,
			"9_create_table.sql": createTable,
			"11_add_another.sql": insertRow,
		})

		m := meta(t, "v1.0.0", "2024-03-20T14:56:00Z")
		got, err := migrate.RunFS(context.Background(), db, fsys, m)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := []migrate.Migration{
			{Sequence: 0, Filename: "9_create_table.sql", Metadata: m},
			{Sequence: 1, Filename: "10_add_row.sql", Metadata: m},
			{Sequence: 2, Filename: "11_add_another.sql", Metadata: m},
		}
		assertMigrations(t, got, want)
		assertNrOfRowsInTestTable(t, db, 2)
	})

	t.Run("ok, progression of migrations", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		metas := []migrate.Metadata{
			meta(t, "v1.0.0", "2024-03-20T14:56:00Z"),
			meta(t, "v2.0.0", "2024-04-20T14:56:00Z"),
			meta(t, "v3.0.0", "2024-05-20T14:56:00Z"),
		}

		files := map[string]string{
			"1_create_test_table.sql": createTable,
		}

		migrations := []migrate.Migration{
			{Sequence: 0, Filename: "1_create_test_table.sql", Metadata: metas[0]},
			{Sequence: 1, Filename: "2_add_row_to_test_table.sql", Metadata: metas[1]},
			{Sequence: 2, Filename: "3_add_another_row.sql", Metadata: metas[2]},
			{Sequence: 3, Filename: "4_and_one_more.sql", Metadata: metas[2]},
		}

		t.Run("run_1", func(t *testing.T) {
			got, err := migrate.RunFS(context.Background(), db, sqlFS(files), metas[0])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertMigrations(t, got, migrations[:1])
			assertTable(t, db, migrations[:1])
			assertNrOfRowsInTestTable(t, db, 0)
		})

		t.Run("run_2", func(t *testing.T) {
			files["2_add_row_to_test_table.sql"] = insertRow

			got, err := migrate.RunFS(context.Background(), db, sqlFS(files), metas[1])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertMigrations(t, got, migrations[1:2])
			assertTable(t, db, migrations[:2])
			assertNrOfRowsInTestTable(t, db, 1)
		})

		t.Run("run_3", func(t *testing.T) {
			files["3_add_another_row.sql"] = insertRow
			files["4_and_one_more.sql"] = insertRow

			got, err := migrate.RunFS(context.Background(), db, sqlFS(files), metas[2])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertMigrations(t, got, migrations[2:4])
			assertTable(t, db, migrations[:4])
			assertNrOfRowsInTestTable(t, db, 3)
		})

		t.Run("run_4, nothing new", func(t *testing.T) {
			got, err := migrate.RunFS(context.Background(), db, sqlFS(files), metas[2])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			assertMigrations(t, got, []migrate.Migration{})
			assertTable(t, db, migrations[:4])
		})
	})

	t.Run("fail, error in migration rolls back", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		files := map[string]string{
			"1_create_test_table.sql": createTable,
		}

		_, err := migrate.RunFS(context.Background(), db, sqlFS(files), meta(t, "v1.0.0", "2024-03-20T14:56:00Z"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		files["2_add_row.sql"] = insertRow
		files["3_insert_with_typo.sql"] = `INSERT INTO test_tabel DEFAULT VALUES;`

		_, err = migrate.RunFS(context.Background(), db, sqlFS(files), meta(t, "v2.0.0", "2024-04-20T14:56:00Z"))

		var mErr migrate.MigrationError
		if !errors.As(err, &mErr) {
			t.Fatalf("got %T, want %T", err, mErr)
		}

		if mErr.Sequence != 2 || mErr.Filename != "3_insert_with_typo.sql" {
			t.Errorf("got %v, want sequence 2 for 3_insert_with_typo.sql", mErr)
		}

		// 2_add_row.sql ran in the same transaction and was rolled back.
		assertNrOfRowsInTestTable(t, db, 0)
	})

	mismatchTests := map[string]map[string]string{
		"fail, migration file that was executed was removed": {
			"1_create_test_table.sql": createTable,
		},
		"fail, migration file that was executed was renamed": {
			"1_create_test_table.sql": createTable,
			"2_renamed.sql":           insertRow,
		},
	}

	for name, second := range mismatchTests {
		t.Run(name, func(t *testing.T) {
			db := testdb.RunUnmigratedWhile(t, true)

			first := sqlFS(map[string]string{
				"1_create_test_table.sql": createTable,
				"2_add_row.sql":           insertRow,
			})

			_, err := migrate.RunFS(context.Background(), db, first, meta(t, "v1.0.0", "2024-03-20T14:56:00Z"))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			_, err = migrate.RunFS(context.Background(), db, sqlFS(second), meta(t, "v2.0.0", "2024-04-20T14:56:00Z"))
			if !errors.Is(err, migrate.ErrMigrationsMismatch) {
				t.Fatalf("got %v, want %v (via errors.Is)", err, migrate.ErrMigrationsMismatch)
			}

			assertNrOfRowsInTestTable(t, db, 1)
		})
	}

	t.Run("fail, filename without number", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		fsys := sqlFS(map[string]string{
			"create_test_table.sql": createTable,
		})

		_, err := migrate.RunFS(context.Background(), db, fsys, meta(t, "v1.0.0", "2024-03-20T14:56:00Z"))
		if !errors.Is(err, migrate.ErrInvalidFilename) {
			t.Fatalf("got %v, want %v (via errors.Is)", err, migrate.ErrInvalidFilename)
		}
	})
}

func Test_QueryMigrations(t *testing.T) {
	t.Run("fail, no table", func(t *testing.T) {
		db := testdb.RunUnmigratedWhile(t, true)

		_, err := migrate.QueryMigrations(context.Background(), db)
		if !errors.Is(err, migrate.ErrNoTable) {
			t.Fatalf("got %v, want %v (via errors.Is)", err, migrate.ErrNoTable)
		}
	})
}

func assertTable(t *testing.T, db *sql.DB, want []migrate.Migration) {
	t.Helper()

	got, err := migrate.QueryMigrations(context.Background(), db)
	if err != nil {
		t.Fatalf("failed to query migrations: %v", err)
	}

	assertMigrations(t, got, want)
}

func assertMigrations(t *testing.T, got, want []migrate.Migration) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("got\n%+v\nwant\n%+v\n", got, want)
	}

	for i := range got {
		if !got[i].Equal(want[i]) {
			t.Errorf("got\n%+v\nwant\n%+v\n", got, want)
		}
	}
}

// assertNrOfRowsInTestTable checks the number of rows in test_table,
// some migrations add rows to it.
func assertNrOfRowsInTestTable(t *testing.T, db *sql.DB, want int) {
	t.Helper()

	var got int
	err := db.QueryRow("SELECT COUNT(*) FROM test_table").Scan(&got)
	if err != nil {
		t.Fatalf("failed to scan test_table: %v", err)
	}

	if got != want {
		t.Errorf("got %d, want %d", got, want)
	}
}

func meta(t *testing.T, version, ts string) migrate.Metadata {
	t.Helper()

	v, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("failed to parse time: %v", err)
	}

	return migrate.Metadata{AppVersion: version, Timestamp: v}
}
