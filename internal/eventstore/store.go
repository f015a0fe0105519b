package eventstore

import (
	"context"
	"time"
)

// Event is one recorded fact about an audit run.
type Event interface {
	ID() int64
	RunID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
	Metadata() map[string]string
}

// Store persists and retrieves audit events.
type Store interface {
	// Append adds an event to the store, keeping its timestamp.
	Append(ctx context.Context, event Event) error

	// GetByRunID retrieves all events of one audit run in insertion order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	Close() error
}
