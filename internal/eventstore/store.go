package eventstore

import (
	"context"
	"time"
)

// Store persists and retrieves run events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error

	// GetByRunID retrieves all events of one run in append order.
	GetByRunID(ctx context.Context, runID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// Close closes the store and releases resources.
	Close() error
}

// Record appends a typed event.
func Record(ctx context.Context, s Store, e Event) error {
	return s.Append(ctx, e.RunID(), e.Type(), e.Payload(), e.Metadata())
}
