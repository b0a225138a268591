package mail

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gopkg.in/gomail.v2"
)

// Mailer delivers out-of-band notifications (OTP and reset codes).
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through an SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer creates a mailer for the given relay.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// Send delivers a plain-text message.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", MaskEmail(to), err)
	}
	return nil
}

// LogMailer logs deliveries instead of sending them. Used in dev mode.
// The body (which carries the OTP) is never logged.
type LogMailer struct{}

// Send logs the delivery with a masked recipient.
func (LogMailer) Send(_ context.Context, to, subject, _ string) error {
	log.Printf("mail (dev): to=%s subject=%q", MaskEmail(to), subject)
	return nil
}

// MaskEmail masks the local part of an address for logging (e.g., a****e@x.com).
func MaskEmail(email string) string {
	at := strings.Index(email, "@")
	if at <= 2 {
		return "****" + email[maxInt(at, 0):]
	}
	return email[:1] + strings.Repeat("*", at-2) + email[at-1:]
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
