// Package store defines where per-budget throttle state lives.
// The engine depends on the Store and Record interfaces only, so a
// mock or an alternative backend can be swapped in without touching
// the decision logic.
package store

import (
	"context"
	"errors"

	domain "github.com/donaldgifford/gcp-budget-notifier/pkg/types"
)

// ErrNotFound is returned when no state has been saved for a key yet.
var ErrNotFound = errors.New("alert state not found")

// ErrStale is returned by Save when the record already holds an equal or
// higher threshold for the same interval, saved by a concurrent invocation.
var ErrStale = errors.New("alert state superseded")

// Store opens the state record for a budget.
type Store interface {
	// Open binds to the record for key, creating it when it does not exist.
	// Opening the same key twice yields the same underlying record.
	Open(ctx context.Context, key domain.StateKey) (Record, error)
	// Get reads the latest state for key without creating anything.
	Get(ctx context.Context, key domain.StateKey) (*domain.AlertState, error)
	Ping(ctx context.Context) error
	Close() error
}

// Record is an append-only, versioned holder of one budget's AlertState.
type Record interface {
	// Name identifies the record in the backend.
	Name() string
	// Load returns the latest saved state, or ErrNotFound.
	Load(ctx context.Context) (*domain.AlertState, error)
	// Save appends state as the new latest version and returns its name.
	// Backends that can check the latest version atomically return ErrStale
	// instead of lowering the threshold within an interval.
	Save(ctx context.Context, state *domain.AlertState) (string, error)
}
