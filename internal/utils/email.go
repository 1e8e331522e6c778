package utils

import (
	"context"

	"github.com/pkg/errors"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"nexusmart/internal/config"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// NewMailer returns an SMTP mailer, or a mailer that only logs when no SMTP
// host is configured.
func NewMailer(cfg *config.Config, logger *zap.Logger) (Mailer, error) {
	if cfg.SMTPHost == "" {
		logger.Warn("⚠️ SMTP_HOST not set, emails will only be logged")
		return NewLogMailer(logger), nil
	}
	return NewSMTPMailer(cfg, logger)
}

type SMTPMailer struct {
	client *mail.Client
	from   string
	logger *zap.Logger
}

func NewSMTPMailer(cfg *config.Config, logger *zap.Logger) (*SMTPMailer, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if cfg.SMTPUsername != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthLogin),
			mail.WithUsername(cfg.SMTPUsername),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}
	client, err := mail.NewClient(cfg.SMTPHost, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create smtp client")
	}
	return &SMTPMailer{client: client, from: cfg.MailFrom, logger: logger}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	msg := mail.NewMsg()
	if err := msg.From(m.from); err != nil {
		return errors.Wrap(err, "set sender")
	}
	if err := msg.To(to); err != nil {
		return errors.Wrap(err, "set recipient")
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	m.logger.Info("📤 sending email", zap.String("to", to), zap.String("subject", subject))
	if err := m.client.DialAndSendWithContext(ctx, msg); err != nil {
		return errors.Wrapf(err, "send email to %s", to)
	}
	return nil
}

type LogMailer struct {
	logger *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, htmlBody string) error {
	m.logger.Info("📧 email (not sent)", zap.String("to", to), zap.String("subject", subject), zap.Int("bytes", len(htmlBody)))
	return nil
}

func NewLogMailer(logger *zap.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}
