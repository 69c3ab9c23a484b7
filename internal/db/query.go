package db

import (
	"strconv"
	"strings"
)

// Placeholder is the bind parameter style of a database driver.
type Placeholder int

const (
	// Question uses ? for every parameter, as SQLite does.
	Question Placeholder = iota
	// Dollar uses numbered $1, $2... parameters, as PostgreSQL does.
	Dollar
)

// Query helps build SQL queries using bind parameters.
// Use Unsafe to construct parts of a query and use Param to add bind parameters.
// The final query and parameters can be retrieved using the Get method.
//
// The zero value is ready to use and uses the Question placeholder style.
type Query struct {
	Placeholder Placeholder
	b           strings.Builder
	params      []any
}

// NewQuery returns a query using the given placeholder style.
func NewQuery(p Placeholder) *Query {
	return &Query{Placeholder: p}
}

// Unsafe writes a non-parameterized part of a query.
func (q *Query) Unsafe(s string) {
	q.b.WriteString(s)
}

// Param writes a parameterized part of a query.
func (q *Query) Param(v any) {
	q.params = append(q.params, v)
	q.writePlaceholder()
}

// Params writes multiple parameterized parts of a query separated by commas.
func (q *Query) Params(v ...any) {
	for i, p := range v {
		if i > 0 {
			q.b.WriteString(", ")
		}
		q.Param(p)
	}
}

// Get returns the constructed query and parameter values.
func (q *Query) Get() (string, []any) {
	return q.b.String(), q.params
}

func (q *Query) writePlaceholder() {
	switch q.Placeholder {
	case Dollar:
		q.b.WriteString("$")
		q.b.WriteString(strconv.Itoa(len(q.params)))
	default:
		q.b.WriteString("?")
	}
}
