package web

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/willemschots/emailauth/internal/auth"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/errorz"
)

const (
	opRegister = "register"
	opVerify   = "verify"
	opLogin    = "login"
	opHealth   = "health"

	msgServerError = "Server error"

	// request bodies only carry an email and a password.
	maxBodyBytes = 64 << 10
)

// messages are the client facing texts for every outcome.
var messages = map[auth.Outcome]string{
	auth.OutcomeVerificationSent:  "Verification email sent",
	auth.OutcomeAlreadyRegistered: "Email already registered",
	auth.OutcomeInvalidToken:      "Invalid token",
	auth.OutcomeAlreadyVerified:   "Email already verified",
	auth.OutcomeExpired:           "Token expired",
	auth.OutcomeVerified:          "Email verified",
	auth.OutcomeUnknownEmail:      "Email not registered",
	auth.OutcomeNotVerified:       "Email not verified",
	auth.OutcomeBadCredentials:    "Incorrect password",
	auth.OutcomeLoginSuccess:      "Login successful",
	auth.OutcomeTransientError:    msgServerError,
}

type messageResponse struct {
	Message string `json:"message"`
}

type loginResponse struct {
	Message string        `json:"message"`
	Token   string        `json:"token,omitempty"`
	ID      *uuid.UUID    `json:"id,omitempty"`
	Email   email.Address `json:"email,omitempty"`
}

func (s *Server) register(ctx context.Context, c auth.Credentials) (messageResponse, error) {
	outcome, err := s.deps.AuthService.Register(ctx, c)
	s.deps.Metrics.ObserveOutcome(opRegister, outcome.String())
	if err != nil {
		return messageResponse{}, err
	}

	return messageResponse{Message: messages[outcome]}, nil
}

func (s *Server) verifyEmail(ctx context.Context, token string) (messageResponse, error) {
	outcome, err := s.deps.AuthService.VerifyEmail(ctx, token)
	s.deps.Metrics.ObserveOutcome(opVerify, outcome.String())
	if err != nil {
		return messageResponse{}, err
	}

	return messageResponse{Message: messages[outcome]}, nil
}

func (s *Server) login(ctx context.Context, c auth.Credentials) (loginResponse, error) {
	session, outcome, err := s.deps.AuthService.Login(ctx, c)
	s.deps.Metrics.ObserveOutcome(opLogin, outcome.String())
	if err != nil {
		return loginResponse{}, err
	}

	resp := loginResponse{Message: messages[outcome]}
	if outcome == auth.OutcomeLoginSuccess {
		resp.Token = session.Token
		resp.ID = &session.AccountID
		resp.Email = session.Email
	}

	return resp, nil
}

func (s *Server) health(ctx context.Context, _ struct{}) (messageResponse, error) {
	err := s.deps.Store.Ping(ctx)
	if err != nil {
		return messageResponse{}, fmt.Errorf("store unreachable: %w", err)
	}

	return messageResponse{Message: "ok"}, nil
}

// decodeJSON is the default way to map a request body to IN.
func decodeJSON[IN any](r *http.Request) (IN, error) {
	var in IN

	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&in)
	if err != nil {
		return in, errorz.InvalidInput{errorz.Keyed{Key: "body", Err: err}}
	}

	return in, nil
}

// credentialsRequest maps a {"email", "password"} body to validated credentials.
func credentialsRequest(r *http.Request) (auth.Credentials, error) {
	body, err := decodeJSON[struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}](r)
	if err != nil {
		return auth.Credentials{}, err
	}

	return auth.ParseCredentials(body.Email, body.Password)
}

// tokenRequest takes the raw token from the path, the service decides
// whether it is valid.
func tokenRequest(r *http.Request) (string, error) {
	return mux.Vars(r)["verificationToken"], nil
}

func noRequest(*http.Request) (struct{}, error) {
	return struct{}{}, nil
}
