package mail

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/jordan-wright/email"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/config"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
)

// SMTPMailer delivers lifecycle emails through an SMTP relay.
type SMTPMailer struct {
	from   string
	logger *zap.Logger
	send   func(e *email.Email) error
}

// NewSMTPMailer builds a mailer for cfg. Authentication is only attempted
// when a username is configured.
func NewSMTPMailer(cfg config.MailSettings, logger *zap.Logger) *SMTPMailer {
	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}

	return &SMTPMailer{
		from:   cfg.From,
		logger: logger,
		send: func(e *email.Email) error {
			return e.Send(addr, auth)
		},
	}
}

// SendVerificationEmail implements port.Mailer.
func (m *SMTPMailer) SendVerificationEmail(ctx context.Context, recipient, verificationURL string) error {
	msg, err := verificationMessage(verificationURL)
	if err != nil {
		return err
	}
	return m.deliver(ctx, recipient, msg)
}

// SendPasswordResetEmail implements port.Mailer.
func (m *SMTPMailer) SendPasswordResetEmail(ctx context.Context, recipient, resetURL string) error {
	msg, err := passwordResetMessage(resetURL)
	if err != nil {
		return err
	}
	return m.deliver(ctx, recipient, msg)
}

// SendPasswordChangeConfirmation implements port.Mailer.
func (m *SMTPMailer) SendPasswordChangeConfirmation(ctx context.Context, recipient string) error {
	msg, err := passwordChangedMessage()
	if err != nil {
		return err
	}
	return m.deliver(ctx, recipient, msg)
}

func (m *SMTPMailer) deliver(ctx context.Context, recipient string, msg message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = m.from
	e.To = []string{recipient}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Text)
	e.HTML = msg.HTML

	if err := m.send(e); err != nil {
		return fmt.Errorf("smtp send %q: %w", msg.Subject, err)
	}

	m.logger.Debug("email sent",
		zap.String("to", logger.MaskEmail(recipient)),
		zap.String("subject", msg.Subject),
	)
	return nil
}

var _ port.Mailer = (*SMTPMailer)(nil)
