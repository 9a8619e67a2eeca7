package mail

import (
	"fmt"
	"net/smtp"

	"go-storefront/pkg/config"
)

// Transport attempts delivery of one message and reports the outcome.
// Callers record the result; they never retry here.
type Transport interface {
	Send(to, subject, body string) error
}

// SMTPTransport delivers through a plain SMTP relay.
type SMTPTransport struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPTransport(cfg config.SmtpConfig) *SMTPTransport {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: auth,
		from: cfg.From,
	}
}

func (t *SMTPTransport) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", t.from, to, subject, body)
	return smtp.SendMail(t.addr, t.auth, t.from, []string{to}, []byte(msg))
}
