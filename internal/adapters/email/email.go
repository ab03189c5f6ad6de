// Package email sends transactional mail for notifications.
package email

import (
	"context"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"github.com/taskmaster/kanban/internal/infrastructure/config"
	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/ports"
)

// SMTPSender delivers through an SMTP relay. A connection is opened per
// message; notification mail volume does not justify pooling.
type SMTPSender struct {
	cfg    config.EmailConfig
	logger *logger.Logger
}

func NewSMTPSender(cfg config.EmailConfig, log *logger.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, logger: log.WithComponent("email")}
}

func (s *SMTPSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	m := mail.NewMsg()
	if err := m.From(s.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Debugw("Email sent", "to", msg.To, "subject", msg.Subject)
	return nil
}

func (s *SMTPSender) options() []mail.Option {
	timeout := s.cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(timeout),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if s.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// LogSender writes mail to the log instead of sending it. It is used when
// email delivery is disabled.
type LogSender struct {
	logger *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{logger: log.WithComponent("email")}
}

func (s *LogSender) Send(ctx context.Context, msg ports.EmailMessage) error {
	s.logger.Infow("Email delivery disabled, logging message",
		"to", msg.To,
		"subject", msg.Subject,
		"body", msg.Body,
	)
	return nil
}

// New picks the sender for cfg.
func New(cfg config.EmailConfig, log *logger.Logger) ports.EmailChannel {
	if !cfg.Enabled {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg, log)
}
