package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/logger"
)

// StubPublisher logs events instead of sending them to Kafka. Used when no
// brokers are configured.
type StubPublisher struct {
	logger *zap.Logger
}

// NewStubPublisher constructs a log-only event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType, accountID string, at time.Time, fields ...zap.Field) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	base := []zap.Field{
		zap.String("event_type", eventType),
		zap.String("account_id", accountID),
		zap.Time("timestamp", at.UTC()),
	}
	p.logger.Info("stub event published", append(base, fields...)...)
}

// PublishAccountRegistered logs account.registered events.
func (p *StubPublisher) PublishAccountRegistered(_ context.Context, event domain.AccountRegisteredEvent) error {
	p.logEvent(EventAccountRegistered, "", event.RegisteredAt,
		zap.String("email", logger.MaskEmail(event.Email)),
		zap.String("username", event.Username),
		zap.Time("expires_at", event.ExpiresAt),
	)
	return nil
}

// PublishAccountVerified logs account.verified events.
func (p *StubPublisher) PublishAccountVerified(_ context.Context, event domain.AccountVerifiedEvent) error {
	p.logEvent(EventAccountVerified, event.AccountID, event.VerifiedAt,
		zap.String("email", logger.MaskEmail(event.Email)),
	)
	return nil
}

// PublishSession logs session.started and session.ended events.
func (p *StubPublisher) PublishSession(_ context.Context, event domain.SessionEvent) error {
	eventType := EventSessionStarted
	if event.Action == domain.SessionActionLogout {
		eventType = EventSessionEnded
	}
	p.logEvent(eventType, event.AccountID, event.OccurredAt, zap.String("action", event.Action))
	return nil
}

// PublishPasswordResetRequested logs account.password.reset_requested events.
func (p *StubPublisher) PublishPasswordResetRequested(_ context.Context, event domain.PasswordResetRequestedEvent) error {
	p.logEvent(EventPasswordResetRequested, event.AccountID, event.RequestedAt, zap.Time("expires_at", event.ExpiresAt))
	return nil
}

// PublishPasswordChanged logs account.password.changed events.
func (p *StubPublisher) PublishPasswordChanged(_ context.Context, event domain.PasswordChangedEvent) error {
	p.logEvent(EventPasswordChanged, event.AccountID, event.ChangedAt, zap.String("source", event.Source))
	return nil
}

// PublishAccountDeleted logs account.deleted events.
func (p *StubPublisher) PublishAccountDeleted(_ context.Context, event domain.AccountDeletedEvent) error {
	p.logEvent(EventAccountDeleted, event.AccountID, event.DeletedAt)
	return nil
}

var _ port.EventPublisher = (*StubPublisher)(nil)
