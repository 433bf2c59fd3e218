package notify

import "context"

// Mailer delivers a templated email. Implementations render the named
// template with the given locals and send it to a single recipient.
// Delivery is fire-and-forget from the caller's perspective; an error
// means the gateway refused the message.
type Mailer interface {
	Send(ctx context.Context, to, template string, locals map[string]string) error
}

// SMSSender delivers a short text message to a phone number.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// Template names used by the credential flows.
const (
	TemplateActivation   = "activation"
	TemplateLostPassword = "lost-password"
	TemplateEmailChange  = "email-change"
)
