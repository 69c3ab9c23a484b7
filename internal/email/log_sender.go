package email

import (
	"context"
	"log/slog"
)

// LogSender is a Sender that logs the email to the logger instead of sending it.
// Note that this is not meant for production use as it logs the email addresses
// and all email contents, verification links included.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a new LogSender.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{
		logger: logger,
	}
}

// Send logs the email to the logger.
func (s *LogSender) Send(ctx context.Context, from, recipient Address, subject, body string) error {
	s.logger.InfoContext(ctx, "send email",
		slog.Group("email",
			"from", from,
			"recipient", recipient,
			"subject", subject,
			"body", body,
		),
	)
	return nil
}
