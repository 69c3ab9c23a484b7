package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/willemschots/emailauth/internal/auth"
	"github.com/willemschots/emailauth/internal/metrics"
)

// AuthService is the account lifecycle the server exposes.
type AuthService interface {
	Register(ctx context.Context, c auth.Credentials) (auth.Outcome, error)
	VerifyEmail(ctx context.Context, token string) (auth.Outcome, error)
	Login(ctx context.Context, c auth.Credentials) (auth.Session, auth.Outcome, error)
}

// Pinger checks whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ServerDeps are the dependencies for the server.
type ServerDeps struct {
	Logger      *slog.Logger
	AuthService AuthService
	Store       Pinger
	// Metrics is optional, without it /metrics is not served.
	Metrics *metrics.Metrics
}

// ServerConfig is the configuration for the server.
type ServerConfig struct {
	// AllowedOrigin is sent in Access-Control-Allow-Origin. Defaults to "*".
	AllowedOrigin string
}

type Server struct {
	deps    *ServerDeps
	router  *mux.Router
	handler http.Handler
}

func NewServer(deps *ServerDeps, cfg ServerConfig) *Server {
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}

	s := &Server{
		deps:   deps,
		router: mux.NewRouter(),
	}

	// The API endpoints are created using newHandler, which maps between
	// HTTP requests, target functions and JSON responses.
	api := s.router.PathPrefix("/api/auth").Subrouter()

	api.Handle("/sendVerificationEmail",
		newHandler(s, opRegister, s.register).request(credentialsRequest),
	).Methods(http.MethodPost)

	api.Handle("/verify/{verificationToken}",
		newHandler(s, opVerify, s.verifyEmail).request(tokenRequest),
	).Methods(http.MethodGet)

	api.Handle("/login",
		newHandler(s, opLogin, s.login).request(credentialsRequest),
	).Methods(http.MethodPost)

	s.router.Handle("/healthz",
		newHandler(s, opHealth, s.health).request(noRequest),
	).Methods(http.MethodGet)

	if deps.Metrics != nil {
		s.router.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, messageResponse{Message: "Not found"})
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, messageResponse{Message: "Method not allowed"})
	})

	// Wrap the router with global middlewares. CORS is outermost so
	// preflight requests never reach the router.
	middlewares := []func(http.Handler) http.Handler{
		cors(cfg.AllowedOrigin),
	}
	s.handler = s.router
	for i := len(middlewares) - 1; i >= 0; i-- {
		s.handler = middlewares[i](s.handler)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) handleError(w http.ResponseWriter, r *http.Request, op string, err error) {
	if auth.IsInvalidInput(err) {
		s.deps.Metrics.ObserveOutcome(op, "invalid_input")
		s.writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Invalid input"})
		return
	}

	// Log the route template, the path of the verify route contains a token.
	route := r.URL.Path
	if cr := mux.CurrentRoute(r); cr != nil {
		if tmpl, tErr := cr.GetPathTemplate(); tErr == nil {
			route = tmpl
		}
	}

	s.deps.Logger.ErrorContext(r.Context(), "server error", "operation", op, "method", r.Method, "route", route, "error", err)
	s.writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgServerError})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		// headers are already written, all we can do is log.
		s.deps.Logger.Error("failed to write response", "error", err)
	}
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
