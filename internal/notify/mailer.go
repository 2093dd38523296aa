// Package notify – mailer
//
// This file defines the Mailer abstraction and its SMTP implementation built
// on gomail. The dispatcher depends only on the interface so tests can swap in
// a recording fake.
package notify

import (
	"context"

	"github.com/rs/zerolog/log"
	gomail "gopkg.in/gomail.v2"
)

// Message is one outbound email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer sends a single message. Implementations must be safe for concurrent
// use.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPMailer sends mail through an SMTP relay using gomail.
type SMTPMailer struct {
	From   string
	dialer *gomail.Dialer
}

// NewSMTPMailer constructs an SMTPMailer for the given relay. Username and
// password may be empty for unauthenticated relays.
func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		From:   from,
		dialer: gomail.NewDialer(host, port, username, password),
	}
}

// LogMailer is the development fallback used when no SMTP relay is
// configured: it logs the would-be delivery and reports success.
type LogMailer struct{}

// Send logs the message instead of delivering it.
func (LogMailer) Send(ctx context.Context, msg Message) error {
	log.Info().
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Msg("mail delivery skipped (SMTP disabled)")
	return nil
}

// Send delivers one message. The context is consulted before dialing; gomail
// itself does not support cancellation mid-send.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	mail := gomail.NewMessage()
	mail.SetHeader("From", m.From)
	mail.SetHeader("To", msg.To)
	mail.SetHeader("Subject", msg.Subject)
	mail.SetBody("text/html", msg.Body)
	return m.dialer.DialAndSend(mail)
}
