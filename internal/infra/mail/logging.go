package mail

import (
	"context"

	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
)

// LoggingMailer records outgoing mail instead of delivering it. Links are
// logged in full so local development can follow them, which is why
// configuration refuses it in production.
type LoggingMailer struct {
	logger *zap.Logger
}

// NewLoggingMailer constructs a mailer backed by structured logging.
func NewLoggingMailer(logger *zap.Logger) *LoggingMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingMailer{logger: logger}
}

// SendVerificationEmail implements port.Mailer.
func (m *LoggingMailer) SendVerificationEmail(ctx context.Context, recipient, verificationURL string) error {
	m.log(ctx, "verification", recipient, zap.String("url", verificationURL))
	return nil
}

// SendPasswordResetEmail implements port.Mailer.
func (m *LoggingMailer) SendPasswordResetEmail(ctx context.Context, recipient, resetURL string) error {
	m.log(ctx, "password_reset", recipient, zap.String("url", resetURL))
	return nil
}

// SendPasswordChangeConfirmation implements port.Mailer.
func (m *LoggingMailer) SendPasswordChangeConfirmation(ctx context.Context, recipient string) error {
	m.log(ctx, "password_changed", recipient)
	return nil
}

func (m *LoggingMailer) log(ctx context.Context, kind, recipient string, extra ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("kind", kind),
		zap.String("to", logger.MaskEmail(recipient)),
	}, extra...)
	logger.WithContext(m.logger, ctx).Info("email dispatched (logging mailer)", fields...)
}

var _ port.Mailer = (*LoggingMailer)(nil)
