package email

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// TemplateElement is used by a renderer to identify the different parts of an email template.
type TemplateElement string

const (
	ElementSubject TemplateElement = "subject"
	ElementBody    TemplateElement = "body"
)

// Renderer is responsible for rendering email templates.
type Renderer interface {
	Render(w io.Writer, name string, element TemplateElement, data any) error
}

// Sender is responsible for actually sending an email.
type Sender interface {
	Send(ctx context.Context, sender, recipient Address, subject, body string) error
}

// ServiceConfig is the configuration for the Service.
type ServiceConfig struct {
	// From is the address emails are sent from.
	From Address
}

// Service provides the main functionality for sending emails.
type Service struct {
	renderer Renderer
	sender   Sender
	cfg      ServiceConfig
}

func NewService(renderer Renderer, sender Sender, cfg ServiceConfig) *Service {
	return &Service{
		renderer: renderer,
		sender:   sender,
		cfg:      cfg,
	}
}

// SendMessage renders the subject and body of the named template with data
// and sends the result to recipient.
func (s *Service) SendMessage(ctx context.Context, name string, recipient Address, data any) error {
	subject, err := s.render(name, ElementSubject, data)
	if err != nil {
		return err
	}

	body, err := s.render(name, ElementBody, data)
	if err != nil {
		return err
	}

	err = s.sender.Send(ctx, s.cfg.From, recipient, subject, body)
	if err != nil {
		return fmt.Errorf("failed to send %q email: %w", name, err)
	}

	return nil
}

func (s *Service) render(name string, element TemplateElement, data any) (string, error) {
	var b strings.Builder
	err := s.renderer.Render(&b, name, element, data)
	if err != nil {
		return "", fmt.Errorf("failed to render %s of %q email: %w", element, name, err)
	}

	return strings.TrimSpace(b.String()), nil
}
