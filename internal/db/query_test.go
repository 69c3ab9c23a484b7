package db_test

import (
	"reflect"
	"testing"

	"github.com/willemschots/emailauth/internal/db"
)

func Test_Query(t *testing.T) {
	build := func(q *db.Query) {
		q.Unsafe("SELECT id FROM accounts WHERE email = ")
		q.Param("alice@example.com")
		q.Unsafe(" AND id IN (")
		q.Params("a", "b")
		q.Unsafe(")")
	}

	tests := map[string]struct {
		query *db.Query
		want  string
	}{
		"ok, zero value uses question marks": {
			query: &db.Query{},
			want:  "SELECT id FROM accounts WHERE email = ? AND id IN (?, ?)",
		},
		"ok, question marks": {
			query: db.NewQuery(db.Question),
			want:  "SELECT id FROM accounts WHERE email = ? AND id IN (?, ?)",
		},
		"ok, numbered dollars": {
			query: db.NewQuery(db.Dollar),
			want:  "SELECT id FROM accounts WHERE email = $1 AND id IN ($2, $3)",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			build(tc.query)

			got, params := tc.query.Get()
			if got != tc.want {
				t.Errorf("got query\n%s\nwant\n%s", got, tc.want)
			}

			wantParams := []any{"alice@example.com", "a", "b"}
			if !reflect.DeepEqual(params, wantParams) {
				t.Errorf("got params %v, want %v", params, wantParams)
			}
		})
	}
}
