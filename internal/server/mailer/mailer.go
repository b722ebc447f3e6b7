// Package mailer delivers transactional mail such as verification links.
package mailer

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/contactbook/internal/logging"
	"github.com/wneessen/go-mail"
)

type Sender interface {
	Send(ctx context.Context, to, subject, html string) error
}

// SMTPConfig points at an authenticated SMTP relay (mailjet by default).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender opens one connection per message.
type SMTPSender struct {
	cfg SMTPConfig
}

func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

var dialAndSend = func(ctx context.Context, c *mail.Client, msgs ...*mail.Msg) error {
	return c.DialAndSendWithContext(ctx, msgs...)
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, html string) error {
	msg, err := s.newMessage(to, subject, html)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := dialAndSend(ctx, client, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (s *SMTPSender) newMessage(to, subject, html string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", s.cfg.From, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, html)
	return msg, nil
}

// LogSender records that a message was dropped instead of sending it. Used
// when no SMTP credentials are configured. The body is never logged since it
// carries verification tokens.
type LogSender struct {
	log logging.Logger
}

func NewLogSender(log logging.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(ctx context.Context, to, subject, html string) error {
	s.log.Info(ctx, "mail not sent, smtp disabled", "to", to, "subject", subject, "body_bytes", len(html))
	return nil
}
