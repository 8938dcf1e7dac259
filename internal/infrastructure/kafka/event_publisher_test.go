package kafka_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/fintrack/pkg/kafka"
)

type mockProducer struct {
	publishFunc func(ctx context.Context, topic string, msgs ...pkgkafka.Message) error
	topic       string
	messages    []pkgkafka.Message
}

func (m *mockProducer) Publish(ctx context.Context, topic string, msgs ...pkgkafka.Message) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, topic, msgs...)
	}
	m.topic = topic
	m.messages = append(m.messages, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestEventPublisher_Publish(t *testing.T) {
	producer := &mockProducer{}
	pub := kafka.NewEventPublisher(producer, "fintrack.loan-events", discardLogger())

	paidOff := event.NewLoanPaidOff("loan-001", "owner-001", decimal.NewFromInt(1010), decimal.NewFromInt(10))
	deleted := event.NewLoanDeleted("loan-001", "owner-001")

	require.NoError(t, pub.Publish(context.Background(), paidOff, deleted))

	assert.Equal(t, "fintrack.loan-events", producer.topic)
	require.Len(t, producer.messages, 2)

	msg := producer.messages[0]
	assert.Equal(t, "loan-001", string(msg.Key))
	assert.Equal(t, event.TypeLoanPaidOff, msg.Headers["event_type"])
	assert.Equal(t, paidOff.EventID(), msg.Headers["event_id"])
	assert.Equal(t, "owner-001", msg.Headers["owner_id"])

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, event.TypeLoanPaidOff, body["event_type"])
	assert.Equal(t, "loan-001", body["aggregate_id"])
	assert.Equal(t, "1010", body["total_paid"])
}

func TestEventPublisher_NoEvents(t *testing.T) {
	producer := &mockProducer{
		publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			t.Fatal("producer must not be called without events")
			return nil
		},
	}
	pub := kafka.NewEventPublisher(producer, "topic", discardLogger())
	assert.NoError(t, pub.Publish(context.Background()))
}

func TestEventPublisher_ProducerError(t *testing.T) {
	producer := &mockProducer{
		publishFunc: func(context.Context, string, ...pkgkafka.Message) error {
			return errors.New("leader not available")
		},
	}
	pub := kafka.NewEventPublisher(producer, "topic", discardLogger())

	err := pub.Publish(context.Background(), event.NewLoanDeleted("loan-001", "owner-001"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish events to topic topic")
}
