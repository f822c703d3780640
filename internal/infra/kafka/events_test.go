package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ssuresh1228/finapp/internal/core/domain"
	"github.com/ssuresh1228/finapp/internal/infra/config"
)

type fakeAsyncProducer struct {
	input  chan *sarama.ProducerMessage
	errors chan *sarama.ProducerError
}

func newFakeAsyncProducer() *fakeAsyncProducer {
	return &fakeAsyncProducer{
		input:  make(chan *sarama.ProducerMessage, 1),
		errors: make(chan *sarama.ProducerError, 1),
	}
}

func (f *fakeAsyncProducer) AsyncClose() { close(f.errors) }

func (f *fakeAsyncProducer) Close() error {
	close(f.errors)
	return nil
}

func (f *fakeAsyncProducer) Input() chan<- *sarama.ProducerMessage { return f.input }

func (f *fakeAsyncProducer) Successes() <-chan *sarama.ProducerMessage { return nil }

func (f *fakeAsyncProducer) Errors() <-chan *sarama.ProducerError { return f.errors }

func (f *fakeAsyncProducer) IsTransactional() bool { return false }

func (f *fakeAsyncProducer) BeginTxn() error { return nil }

func (f *fakeAsyncProducer) CommitTxn() error { return nil }

func (f *fakeAsyncProducer) AbortTxn() error { return nil }

func (f *fakeAsyncProducer) AddOffsetsToTxn(offsets map[string][]*sarama.PartitionOffsetMetadata, groupID string) error {
	return nil
}

func (f *fakeAsyncProducer) AddMessageToTxn(msg *sarama.ConsumerMessage, groupID string, metadata *string) error {
	return nil
}

func (f *fakeAsyncProducer) TxnStatus() sarama.ProducerTxnStatusFlag {
	return sarama.ProducerTxnStatusFlag(0)
}

func newTestPublisher(t *testing.T) (*fakeAsyncProducer, *EventPublisher) {
	t.Helper()

	async := newFakeAsyncProducer()
	producer := newProducer(async, config.KafkaSettings{TopicPrefix: "finapp"}, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = producer.Close() })

	return async, NewEventPublisher(producer, config.AppSettings{Name: "finapp", Env: "test"}, zaptest.NewLogger(t))
}

func receiveEnvelope(t *testing.T, async *fakeAsyncProducer) (*sarama.ProducerMessage, map[string]any) {
	t.Helper()

	select {
	case msg := <-async.input:
		bytes, err := msg.Value.Encode()
		if err != nil {
			t.Fatalf("Value.Encode returned error: %v", err)
		}
		var envelope map[string]any
		if err := json.Unmarshal(bytes, &envelope); err != nil {
			t.Fatalf("failed to unmarshal envelope: %v", err)
		}
		return msg, envelope
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message on async producer input channel")
		return nil, nil
	}
}

func TestPublishAccountVerified(t *testing.T) {
	async, publisher := newTestPublisher(t)

	verifiedAt := time.Date(2025, 10, 31, 12, 0, 0, 0, time.UTC)
	event := domain.AccountVerifiedEvent{
		EventID:    "event-123",
		AccountID:  "acc-789",
		Email:      "jane@example.com",
		Username:   "jane",
		VerifiedAt: verifiedAt,
	}

	if err := publisher.PublishAccountVerified(context.Background(), event); err != nil {
		t.Fatalf("PublishAccountVerified returned error: %v", err)
	}

	msg, envelope := receiveEnvelope(t, async)
	if msg.Topic != "finapp.account.verified" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if key, _ := msg.Key.Encode(); string(key) != event.AccountID {
		t.Fatalf("unexpected message key: %s", key)
	}
	if got := envelope["event_id"]; got != event.EventID {
		t.Fatalf("unexpected event_id: %v", got)
	}
	if got := envelope["account_id"]; got != event.AccountID {
		t.Fatalf("unexpected account_id: %v", got)
	}
	if got := envelope["timestamp"]; got != verifiedAt.Format(time.RFC3339Nano) {
		t.Fatalf("unexpected timestamp: %v", got)
	}

	payload, ok := envelope["payload"].(map[string]any)
	if !ok {
		t.Fatalf("payload not a map: %T", envelope["payload"])
	}
	if payload["email"] != event.Email || payload["username"] != event.Username {
		t.Fatalf("unexpected payload: %v", payload)
	}

	metadata, ok := envelope["metadata"].(map[string]any)
	if !ok {
		t.Fatalf("envelope metadata not a map: %T", envelope["metadata"])
	}
	if metadata["service"] != "finapp" || metadata["environment"] != "test" {
		t.Fatalf("unexpected metadata: %v", metadata)
	}
}

func TestPublishSessionTopics(t *testing.T) {
	async, publisher := newTestPublisher(t)
	now := time.Now().UTC()

	if err := publisher.PublishSession(context.Background(), domain.SessionEvent{
		AccountID:  "acc-1",
		Action:     domain.SessionActionLogin,
		OccurredAt: now,
	}); err != nil {
		t.Fatalf("PublishSession returned error: %v", err)
	}
	msg, envelope := receiveEnvelope(t, async)
	if msg.Topic != "finapp.session.started" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
	if id, _ := envelope["event_id"].(string); id == "" {
		t.Fatal("expected generated event_id")
	}

	if err := publisher.PublishSession(context.Background(), domain.SessionEvent{
		AccountID:  "acc-1",
		Action:     domain.SessionActionLogout,
		OccurredAt: now,
	}); err != nil {
		t.Fatalf("PublishSession returned error: %v", err)
	}
	msg, _ = receiveEnvelope(t, async)
	if msg.Topic != "finapp.session.ended" {
		t.Fatalf("unexpected topic: %s", msg.Topic)
	}
}

func TestPublishRespectsContextCancellation(t *testing.T) {
	async, publisher := newTestPublisher(t)
	// Fill the buffered input so the next send blocks.
	async.input <- &sarama.ProducerMessage{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := publisher.PublishAccountDeleted(ctx, domain.AccountDeletedEvent{AccountID: "acc-1"})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTopicName(t *testing.T) {
	p := &Producer{cfg: config.KafkaSettings{TopicPrefix: "finapp"}}
	if got := p.TopicName("account.deleted"); got != "finapp.account.deleted" {
		t.Fatalf("unexpected topic: %s", got)
	}
	if got := p.TopicName("finapp.account.deleted"); got != "finapp.account.deleted" {
		t.Fatalf("prefix applied twice: %s", got)
	}

	p.cfg.TopicPrefix = ""
	if got := p.TopicName("account.deleted"); got != "account.deleted" {
		t.Fatalf("unexpected topic without prefix: %s", got)
	}
}

func TestStubPublisherMasksEmail(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	stub := NewStubPublisher(zap.New(core))

	if err := stub.PublishAccountRegistered(context.Background(), domain.AccountRegisteredEvent{
		Email:    "john.doe@example.com",
		Username: "john",
	}); err != nil {
		t.Fatalf("PublishAccountRegistered returned error: %v", err)
	}

	entries := logs.FilterField(zap.String("event_type", EventAccountRegistered)).All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["email"]; got != "joh***@example.com" {
		t.Fatalf("expected masked email, got %v", got)
	}
}
