package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/core/port"
	"github.com/ssuresh1228/finapp/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types, prefixed with the configured topic prefix on the wire.
const (
	EventAccountRegistered      = "account.registered"
	EventAccountVerified        = "account.verified"
	EventSessionStarted         = "session.started"
	EventSessionEnded           = "session.ended"
	EventPasswordResetRequested = "account.password.reset_requested"
	EventPasswordChanged        = "account.password.changed"
	EventAccountDeleted         = "account.deleted"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	AccountID string            `json:"account_id,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventID, eventType, accountID string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	if eventID == "" {
		eventID = uuid.NewString()
	}

	metadata := map[string]string{
		"service":     p.appCfg.Name,
		"environment": p.appCfg.Env,
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		metadata["trace_id"] = sc.TraceID().String()
	}

	body, err := json.Marshal(eventEnvelope{
		EventID:   eventID,
		EventType: eventType,
		AccountID: accountID,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata:  metadata,
	})
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(body),
	}
	if accountID != "" {
		message.Key = sarama.StringEncoder(accountID)
	}

	select {
	case p.producer.Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishAccountRegistered publishes account.registered events.
func (p *EventPublisher) PublishAccountRegistered(ctx context.Context, event domain.AccountRegisteredEvent) error {
	payload := struct {
		Email        string    `json:"email"`
		Username     string    `json:"username"`
		RegisteredAt time.Time `json:"registered_at"`
		ExpiresAt    time.Time `json:"expires_at"`
	}{
		Email:        event.Email,
		Username:     event.Username,
		RegisteredAt: event.RegisteredAt.UTC(),
		ExpiresAt:    event.ExpiresAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventAccountRegistered, "", event.RegisteredAt, payload)
}

// PublishAccountVerified publishes account.verified events.
func (p *EventPublisher) PublishAccountVerified(ctx context.Context, event domain.AccountVerifiedEvent) error {
	payload := struct {
		AccountID  string    `json:"account_id"`
		Email      string    `json:"email"`
		Username   string    `json:"username"`
		VerifiedAt time.Time `json:"verified_at"`
	}{
		AccountID:  event.AccountID,
		Email:      event.Email,
		Username:   event.Username,
		VerifiedAt: event.VerifiedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventAccountVerified, event.AccountID, event.VerifiedAt, payload)
}

// PublishSession publishes session.started or session.ended depending on the action.
func (p *EventPublisher) PublishSession(ctx context.Context, event domain.SessionEvent) error {
	eventType := EventSessionStarted
	if event.Action == domain.SessionActionLogout {
		eventType = EventSessionEnded
	}

	payload := struct {
		AccountID  string     `json:"account_id"`
		Action     string     `json:"action"`
		OccurredAt time.Time  `json:"occurred_at"`
		ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	}{
		AccountID:  event.AccountID,
		Action:     event.Action,
		OccurredAt: event.OccurredAt.UTC(),
		ExpiresAt:  event.ExpiresAt,
	}
	return p.publish(ctx, event.EventID, eventType, event.AccountID, event.OccurredAt, payload)
}

// PublishPasswordResetRequested publishes account.password.reset_requested events.
func (p *EventPublisher) PublishPasswordResetRequested(ctx context.Context, event domain.PasswordResetRequestedEvent) error {
	payload := struct {
		AccountID   string    `json:"account_id"`
		RequestedAt time.Time `json:"requested_at"`
		ExpiresAt   time.Time `json:"expires_at"`
	}{
		AccountID:   event.AccountID,
		RequestedAt: event.RequestedAt.UTC(),
		ExpiresAt:   event.ExpiresAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventPasswordResetRequested, event.AccountID, event.RequestedAt, payload)
}

// PublishPasswordChanged publishes account.password.changed events.
func (p *EventPublisher) PublishPasswordChanged(ctx context.Context, event domain.PasswordChangedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		ChangedAt time.Time `json:"changed_at"`
		Source    string    `json:"source"`
	}{
		AccountID: event.AccountID,
		ChangedAt: event.ChangedAt.UTC(),
		Source:    event.Source,
	}
	return p.publish(ctx, event.EventID, EventPasswordChanged, event.AccountID, event.ChangedAt, payload)
}

// PublishAccountDeleted publishes account.deleted events.
func (p *EventPublisher) PublishAccountDeleted(ctx context.Context, event domain.AccountDeletedEvent) error {
	payload := struct {
		AccountID string    `json:"account_id"`
		Email     string    `json:"email"`
		DeletedAt time.Time `json:"deleted_at"`
	}{
		AccountID: event.AccountID,
		Email:     event.Email,
		DeletedAt: event.DeletedAt.UTC(),
	}
	return p.publish(ctx, event.EventID, EventAccountDeleted, event.AccountID, event.DeletedAt, payload)
}

var _ port.EventPublisher = (*EventPublisher)(nil)
