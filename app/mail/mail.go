package mail

import (
	"context"
	"fmt"
	"log/slog"

	gomail "github.com/wneessen/go-mail"

	"github.com/teachmeskills/todo-api/config"
)

// Sender delivers a single plain-text message. Delivery is best effort for
// callers: a failed send must never fail the request that triggered it.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPSender sends mail through the configured SMTP relay. The client is
// built once at startup, so bad SMTP settings fail the boot instead of the
// first registration.
type SMTPSender struct {
	cfg    config.MailConfig
	client *gomail.Client
	logger *slog.Logger
}

func NewSMTPSender(cfg config.MailConfig, logger *slog.Logger) (*SMTPSender, error) {
	opts := []gomail.Option{gomail.WithPort(cfg.Port)}
	if cfg.Account != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Account),
			gomail.WithPassword(cfg.Password),
		)
	}
	client, err := gomail.NewClient(cfg.Server, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &SMTPSender{cfg: cfg, client: client, logger: logger}, nil
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.cfg.SenderName, s.cfg.SenderEmail); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", to, err)
	}
	s.logger.InfoContext(ctx, "Mail sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}

// NoopSender is used when mail is disabled in configuration.
type NoopSender struct{}

func (NoopSender) Send(ctx context.Context, to, subject, body string) error {
	return nil
}

// NewSender picks the concrete sender based on configuration.
func NewSender(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	if !cfg.Enabled {
		return NoopSender{}, nil
	}
	return NewSMTPSender(cfg, logger)
}
