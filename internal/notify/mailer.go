// Package notify sends transactional email for the store.
package notify

import (
	"fmt"
	"net/smtp"
	"strings"
)

// MailerConfig holds SMTP connection settings.
type MailerConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer delivers plain-text email over SMTP.
type Mailer struct {
	cfg MailerConfig
}

// NewMailer constructs a Mailer.
func NewMailer(cfg MailerConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

// Send delivers one message. Blocking; called from the worker, not from
// request handlers.
func (m *Mailer) Send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&msg, "To: %s\r\n", to)
	fmt.Fprintf(&msg, "Subject: %s\r\n", subject)
	msg.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	msg.WriteString(body)

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{to}, []byte(msg.String())); err != nil {
		return fmt.Errorf("notify: send mail to %s: %w", to, err)
	}
	return nil
}
