package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/errorz"
	"github.com/willemschots/emailauth/internal/krypto"
)

// VerifyEmailTemplate is the name of the verification email template.
const VerifyEmailTemplate = "verify-email"

// ErrInvalidWorkerTimeout is returned by NewService when the worker timeout is not positive.
var ErrInvalidWorkerTimeout = errors.New("worker timeout must be positive")

// Notifier is used to send templated emails.
type Notifier interface {
	SendMessage(ctx context.Context, template string, to email.Address, data any) error
}

// ErrFunc is a function that handles errors.
type ErrFunc func(error)

// ServiceConfig is the configuration for the Service.
type ServiceConfig struct {
	// WorkerTimeout is the max duration worker goroutines are allowed
	// to take before they are cancelled.
	WorkerTimeout time.Duration
	// TokenTTL is the duration a verification token is valid.
	// Zero means tokens never expire.
	TokenTTL time.Duration
	// VerifyURL is the base URL the verification token is appended to.
	VerifyURL string
}

// VerifyEmailData is the data passed to the verification email template.
type VerifyEmailData struct {
	Link string
}

// Service is the type that provides the main rules for registration,
// email verification and login.
type Service struct {
	store      Store
	notifier   Notifier
	issuer     *CredentialIssuer
	wg         *sync.WaitGroup
	errHandler ErrFunc
	cfg        ServiceConfig

	// comparisonHash is used to compare passwords when no account was found.
	comparisonHash PasswordHash

	// NowFunc is used to get the current time.
	// Exposed for testing purposes.
	NowFunc func() time.Time
}

func NewService(s Store, notifier Notifier, issuer *CredentialIssuer, errHandler ErrFunc, cfg ServiceConfig) (*Service, error) {
	if cfg.WorkerTimeout <= 0 {
		return nil, ErrInvalidWorkerTimeout
	}

	tok, err := krypto.NewToken()
	if err != nil {
		return nil, err
	}

	pwd, err := ParsePassword(tok.String())
	if err != nil {
		return nil, err
	}

	hash, err := pwd.Hash()
	if err != nil {
		return nil, err
	}

	svc := &Service{
		store:          s,
		notifier:       notifier,
		issuer:         issuer,
		wg:             &sync.WaitGroup{},
		errHandler:     errHandler,
		cfg:            cfg,
		comparisonHash: hash,
		NowFunc:        time.Now,
	}

	return svc, nil
}

// Wait waits for all open workers to finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Register creates an unverified account for the credentials and sends a
// verification email. The email is sent in a separate goroutine, failures
// are reported to the error handler.
func (s *Service) Register(ctx context.Context, c Credentials) (Outcome, error) {
	accounts, err := s.store.FindAccounts(ctx, &AccountFilter{
		Emails: []email.Address{c.Email},
	})
	if err != nil {
		return OutcomeTransientError, err
	}

	if _, ok := accountByEmail(accounts, c.Email); ok {
		return OutcomeAlreadyRegistered, nil
	}

	pwdHash, err := c.Password.Hash()
	if err != nil {
		return OutcomeTransientError, err
	}

	token, err := krypto.NewToken()
	if err != nil {
		return OutcomeTransientError, err
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return OutcomeTransientError, err
	}

	now := s.NowFunc()
	account := Account{
		ID:                id,
		Email:             c.Email,
		PasswordHash:      pwdHash,
		VerificationToken: token,
		IsVerified:        false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if s.cfg.TokenTTL > 0 {
		expiresAt := now.Add(s.cfg.TokenTTL)
		account.ExpiresAt = &expiresAt
	}

	err = s.store.CreateAccount(ctx, &account)
	if errors.Is(err, errorz.ErrConstraintViolated) {
		// another request registered the same email first.
		return OutcomeAlreadyRegistered, nil
	}
	if err != nil {
		return OutcomeTransientError, err
	}

	s.sendVerification(account.Email, account.VerificationToken)

	return OutcomeVerificationSent, nil
}

func (s *Service) sendVerification(to email.Address, token krypto.Token) {
	// Waiting for the email to be sent would slow down the response.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		wCtx, cancel := context.WithTimeout(context.Background(), s.cfg.WorkerTimeout)
		defer cancel()

		err := s.notifier.SendMessage(wCtx, VerifyEmailTemplate, to, VerifyEmailData{
			Link: s.cfg.VerifyURL + token.String(),
		})
		if err != nil {
			s.errHandler(fmt.Errorf("failed to send verification email: %w", err))
		}
	}()
}

// VerifyEmail marks the account owning the raw token as verified.
func (s *Service) VerifyEmail(ctx context.Context, raw string) (Outcome, error) {
	token, err := krypto.ParseToken(raw)
	if err != nil {
		return OutcomeInvalidToken, nil
	}

	accounts, err := s.store.FindAccounts(ctx, &AccountFilter{
		Tokens: []krypto.Token{token},
	})
	if err != nil {
		return OutcomeTransientError, err
	}

	if len(accounts) != 1 {
		return OutcomeInvalidToken, nil
	}

	account := accounts[0]
	if account.IsVerified {
		return OutcomeAlreadyVerified, nil
	}

	now := s.NowFunc()
	if account.ExpiresAt != nil && now.After(*account.ExpiresAt) {
		return OutcomeExpired, nil
	}

	err = s.store.VerifyAccount(ctx, account.ID, now)
	if errors.Is(err, errorz.ErrNotFound) {
		// a concurrent request verified it first.
		return OutcomeAlreadyVerified, nil
	}
	if err != nil {
		return OutcomeTransientError, err
	}

	return OutcomeVerified, nil
}

// Login checks the credentials and issues a session credential
// for verified accounts.
func (s *Service) Login(ctx context.Context, c Credentials) (Session, Outcome, error) {
	accounts, err := s.store.FindAccounts(ctx, &AccountFilter{
		Emails: []email.Address{c.Email},
	})
	if err != nil {
		return Session{}, OutcomeTransientError, err
	}

	account, ok := accountByEmail(accounts, c.Email)
	if !ok {
		// Compare to a hash anyway, so the password check costs the same.
		_ = c.Password.Match(s.comparisonHash)
		return Session{}, OutcomeUnknownEmail, nil
	}

	if !account.IsVerified {
		return Session{}, OutcomeNotVerified, nil
	}

	if !c.Password.Match(account.PasswordHash) {
		return Session{}, OutcomeBadCredentials, nil
	}

	token, err := s.issuer.Issue(account.ID, account.Email)
	if err != nil {
		return Session{}, OutcomeTransientError, err
	}

	return Session{
		Token:     token,
		AccountID: account.ID,
		Email:     account.Email,
	}, OutcomeLoginSuccess, nil
}

// accountByEmail returns the account with exactly addr, stores may match
// addresses more loosely.
func accountByEmail(accounts []Account, addr email.Address) (Account, bool) {
	for _, a := range accounts {
		if a.Email.Equal(addr) {
			return a, true
		}
	}
	return Account{}, false
}
