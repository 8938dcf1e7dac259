//go:build integration

package kafka_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/fintrack/internal/domain/event"
	"github.com/bibbank/fintrack/internal/infrastructure/kafka"
	pkgkafka "github.com/bibbank/fintrack/pkg/kafka"
	"github.com/bibbank/fintrack/pkg/testutil"
)

func TestEventPublisher_RoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := testutil.StartKafka(ctx, t)
	cfg := broker.Config("fintrack-it")
	const topic = "fintrack.loan-events.it"
	broker.CreateTopics(ctx, t, topic)

	producer, err := pkgkafka.NewProducer(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = producer.Close() })

	var (
		mu       sync.Mutex
		received []pkgkafka.Message
		got      = make(chan struct{})
	)
	consumer, err := pkgkafka.NewConsumer(cfg, topic, func(_ context.Context, msg pkgkafka.Message) error {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, msg)
		if len(received) == 1 {
			close(got)
		}
		return nil
	}, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = consumer.Close() })

	consumeCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = consumer.Start(consumeCtx) }()

	pub := kafka.NewEventPublisher(producer, topic, discardLogger())
	require.NoError(t, pub.Publish(ctx, event.NewLoanDeleted("loan-it", "owner-it")))

	select {
	case <-got:
	case <-ctx.Done():
		t.Fatal("timed out waiting for event")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "loan-it", string(received[0].Key))
	assert.Equal(t, event.TypeLoanDeleted, received[0].Headers["event_type"])
}
