// internal/events/events_test.go
package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finance-tracker/internal/domain"
)

func sampleTransaction() *domain.Transaction {
	return &domain.Transaction{
		ID:          12,
		AccountName: "Aylin",
		Amount:      decimal.RequireFromString("50"),
		Category:    "Income",
		Version:     3,
	}
}

func TestNewEvent(t *testing.T) {
	now := time.Date(2025, 2, 10, 12, 0, 0, 0, time.FixedZone("TRT", 3*3600))

	e := NewEvent(TypeTransactionUpdated, sampleTransaction(), now)

	_, err := uuid.Parse(e.ID)
	assert.NoError(t, err)
	assert.Equal(t, TypeTransactionUpdated, e.Type)
	assert.Equal(t, int64(12), e.TransactionID)
	assert.Equal(t, "Aylin", e.AccountName)
	assert.Equal(t, int64(3), e.Version)
	assert.Equal(t, time.UTC, e.OccurredAt.Location())

	other := NewEvent(TypeTransactionUpdated, sampleTransaction(), now)
	assert.NotEqual(t, e.ID, other.ID, "every event gets its own id")
}

func TestNewPublishing(t *testing.T) {
	e := NewEvent(TypeTransactionCreated, sampleTransaction(), time.Date(2025, 2, 10, 9, 0, 0, 0, time.UTC))

	msg, err := newPublishing(e)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp091.Persistent, msg.DeliveryMode)
	assert.Equal(t, e.ID, msg.MessageId)
	assert.Equal(t, "transaction.created", msg.Type)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "transaction.created", decoded["type"])
	assert.Equal(t, float64(12), decoded["transaction_id"])
	assert.Equal(t, "Aylin", decoded["account_name"])
	assert.Equal(t, "2025-02-10T09:00:00Z", decoded["occurred_at"])
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{}))
	assert.NoError(t, p.Close())
}

// TestAMQPPublisherRoundTrip needs a RabbitMQ broker at FINANCE_AMQP_TEST_URL.
func TestAMQPPublisherRoundTrip(t *testing.T) {
	url := os.Getenv("FINANCE_AMQP_TEST_URL")
	if url == "" {
		t.Skip("set FINANCE_AMQP_TEST_URL to run against a RabbitMQ broker")
	}
	exchange := "finance.transactions.test"

	pub, err := NewAMQPPublisher(url, exchange, slogDiscard())
	require.NoError(t, err)
	defer pub.Close()

	conn, err := amqp091.Dial(url)
	require.NoError(t, err)
	defer conn.Close()
	ch, err := conn.Channel()
	require.NoError(t, err)
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	require.NoError(t, err)
	require.NoError(t, ch.QueueBind(q.Name, "transaction.*", exchange, false, nil))
	deliveries, err := ch.Consume(q.Name, "", true, true, false, false, nil)
	require.NoError(t, err)

	e := NewEvent(TypeTransactionDeleted, sampleTransaction(), time.Now())
	require.NoError(t, pub.Publish(context.Background(), e))

	select {
	case d := <-deliveries:
		assert.Equal(t, e.ID, d.MessageId)
		assert.Equal(t, "transaction.deleted", d.RoutingKey)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
