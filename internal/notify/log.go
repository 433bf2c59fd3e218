package notify

import (
	"context"
	"log/slog"
)

// LogMailer writes mail to the log instead of sending it. Used in
// development and tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, template string, locals map[string]string) error {
	m.Logger.Info("mail (dev transport)",
		"to", to,
		"template", template,
		"locals", locals,
	)
	return nil
}

// LogSMS writes SMS messages to the log instead of sending them.
type LogSMS struct {
	Logger *slog.Logger
}

func (s *LogSMS) Send(ctx context.Context, phone, message string) error {
	s.Logger.Info("sms (dev transport)",
		"phone", phone,
		"message", message,
	)
	return nil
}
