package web

import (
	"context"
	"net/http"
)

// mapper is a generic HTTP handler that maps requests to target
// function calls and writes the output to the response.
type mapper[IN, OUT any] struct {
	s      *Server
	op     string
	req    func(*http.Request) (IN, error)
	target func(context.Context, IN) (OUT, error)
	res    func(result[IN, OUT]) error
}

// result is the result of a successful request.
// it contains all relevant data because we can't know
// in advance what we will need to construct a response.
type result[IN, OUT any] struct {
	s   *Server
	r   *http.Request
	w   http.ResponseWriter
	in  IN
	out OUT
}

// newHandler creates a HTTP Handler that:
// 1. Maps the JSON request body to a value of input type IN.
// 2. Calls the target func with that value.
// 3. Writes the output of type OUT as JSON with status 200.
//
// Errors are written using the server error handler, op names
// the operation in logs and metrics.
func newHandler[IN, OUT any](s *Server, op string, targetFunc func(context.Context, IN) (OUT, error)) *mapper[IN, OUT] {
	return &mapper[IN, OUT]{
		s:      s,
		op:     op,
		req:    decodeJSON[IN],
		target: targetFunc,
		res: func(r result[IN, OUT]) error {
			r.s.writeJSON(r.w, http.StatusOK, r.out)
			return nil
		},
	}
}

// request overwrites the function that maps the request to the input type.
func (m *mapper[IN, OUT]) request(fn func(r *http.Request) (IN, error)) *mapper[IN, OUT] {
	m.req = fn
	return m
}

func (m *mapper[IN, OUT]) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	in, err := m.req(r)
	if err != nil {
		m.s.handleError(w, r, m.op, err)
		return
	}

	out, err := m.target(r.Context(), in)
	if err != nil {
		m.s.handleError(w, r, m.op, err)
		return
	}

	err = m.res(result[IN, OUT]{
		s:   m.s,
		r:   r,
		w:   w,
		in:  in,
		out: out,
	})
	if err != nil {
		m.s.handleError(w, r, m.op, err)
		return
	}
}
