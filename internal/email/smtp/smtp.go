// Package smtp sends emails through an SMTPS account, for example a
// Gmail account with an app password.
package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/url"

	"github.com/dajohi/goemail"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/krypto"
)

// Settings contains the SMTP account settings.
type Settings struct {
	// Host is the host:port of the SMTPS server.
	Host     string
	Username string
	Password krypto.Secret
	// Name is the display name used in the From header. Optional.
	Name string
}

// Sender is an email sender that delivers emails over SMTPS.
type Sender struct {
	client *goemail.SMTP
	name   string
}

// NewSender creates a new sender. It does not connect to the server,
// connections are made for every Send.
func NewSender(s Settings) (*Sender, error) {
	if s.Host == "" || s.Username == "" || s.Password.IsZero() {
		return nil, errors.New("smtp host, username and password are required")
	}

	hostname, _, err := net.SplitHostPort(s.Host)
	if err != nil {
		return nil, fmt.Errorf("invalid smtp host %q: %w", s.Host, err)
	}

	u := url.URL{
		Scheme: "smtps",
		User:   url.UserPassword(s.Username, string(s.Password.SecretValue())),
		Host:   s.Host,
	}

	client, err := goemail.NewSMTP(u.String(), &tls.Config{
		ServerName: hostname,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		// the error could contain the url, which includes the password.
		return nil, errors.New("failed to create smtp client")
	}

	return &Sender{
		client: client,
		name:   s.Name,
	}, nil
}

// Send sends a plaintext email. goemail has no context support, so ctx is
// only checked before the message is handed off.
func (s *Sender) Send(ctx context.Context, from, recipient email.Address, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := goemail.NewMessage(string(from), subject, body)
	if s.name != "" {
		msg.SetName(s.name)
	}
	msg.AddTo(string(recipient))

	err := s.client.Send(msg)
	if err != nil {
		return fmt.Errorf("failed to send email over smtp: %w", err)
	}

	return nil
}
