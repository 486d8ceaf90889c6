// internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"finance-tracker/internal/domain"
)

// Type names a transaction lifecycle change.
type Type string

const (
	TypeTransactionCreated Type = "transaction.created"
	TypeTransactionUpdated Type = "transaction.updated"
	TypeTransactionDeleted Type = "transaction.deleted"
)

// Event is published after a transaction change has been committed.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	AccountName   string    `json:"account_name"`
	Version       int64     `json:"version"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// NewEvent describes a change of t at now.
func NewEvent(eventType Type, t *domain.Transaction, now time.Time) Event {
	return Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		TransactionID: t.ID,
		AccountName:   t.AccountName,
		Version:       t.Version,
		OccurredAt:    now.UTC(),
	}
}

// Publisher delivers change events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
