package notify

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"text/template"
)

// Default message bodies per template. Callers can override Subjects and
// Bodies on the mailer to customise wording without touching the flows.
var defaultSubjects = map[string]string{
	TemplateActivation:   "Activate your account",
	TemplateLostPassword: "Reset your password",
	TemplateEmailChange:  "Confirm your new email address",
}

var defaultBodies = map[string]string{
	TemplateActivation:   "Hello,\n\nUse this code to activate your account: {{.ticket}}\n",
	TemplateLostPassword: "Hello,\n\nUse this code to reset your password: {{.ticket}}\n\nIf you did not request this, you can ignore this message.\n",
	TemplateEmailChange:  "Hello,\n\nUse this code to confirm your new email address: {{.ticket}}\n",
}

// SMTPMailer sends templated mail through a plain SMTP relay.
type SMTPMailer struct {
	Addr string // host:port
	From string
	Auth smtp.Auth // nil for an open relay

	// Subjects and Bodies override the defaults per template name.
	Subjects map[string]string
	Bodies   map[string]string
}

func (m *SMTPMailer) Send(ctx context.Context, to, name string, locals map[string]string) error {
	subject, body, err := m.render(name, locals)
	if err != nil {
		return err
	}

	msg := bytes.Buffer{}
	fmt.Fprintf(&msg, "From: %s\r\n", m.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	// net/smtp has no context support; the dial honours the default TCP
	// timeout and callers treat failures as gateway errors.
	if err := smtp.SendMail(m.Addr, m.Auth, m.From, []string{to}, msg.Bytes()); err != nil {
		return fmt.Errorf("notify: smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) render(name string, locals map[string]string) (subject, body string, err error) {
	subject = defaultSubjects[name]
	if s, ok := m.Subjects[name]; ok {
		subject = s
	}

	raw, ok := defaultBodies[name]
	if b, override := m.Bodies[name]; override {
		raw = b
		ok = true
	}
	if !ok {
		return "", "", fmt.Errorf("notify: unknown template %q", name)
	}

	tpl, err := template.New(name).Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("notify: parse template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, locals); err != nil {
		return "", "", fmt.Errorf("notify: render template %q: %w", name, err)
	}
	return subject, buf.String(), nil
}
