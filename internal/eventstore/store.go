// Package eventstore persists build events in SQLite and projects them into a
// build history. It is an audit log only; staleness decisions never read it.
package eventstore

import "context"

// Store is an append-only log of build events.
type Store interface {
	Append(ctx context.Context, e Event) error

	// GetByBuildID returns the events of one build in append order.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// RecentBuilds returns the events of the limit most recently started
	// builds in append order. A limit <= 0 returns every event.
	RecentBuilds(ctx context.Context, limit int) ([]Event, error)

	Close() error
}
