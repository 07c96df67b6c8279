// Package eventstore records an append-only history of build events in SQLite
// so past builds can be inspected with the history command.
package eventstore

import (
	"context"
	"time"
)

// Store defines the interface for persisting and retrieving events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, e Event) error

	// GetByBuildID retrieves all events for a specific build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// LatestBuildID returns the build that appended the most recent event,
	// or ErrNoBuilds when the store is empty.
	LatestBuildID(ctx context.Context) (string, error)

	// Close closes the store and releases resources.
	Close() error
}
