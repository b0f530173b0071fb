package state

import (
	"context"
	"time"
)

// Record is the minimal unit of state persisted for one supervised provider
// process. Name is the provider's logical name and is unique in the table.
// StartedAt is UTC and serializes as RFC 3339.
type Record struct {
	Name      string    `json:"name"`
	PID       int       `json:"pid"`
	StartedAt time.Time `json:"startTime"`
}

// Store persists the full name -> Record table between invocations of the
// tool. The supervisor is the only writer; it always saves the whole table.
type Store interface {
	// Load returns the persisted table. A missing backing file or empty
	// database yields an empty map, not an error.
	Load(ctx context.Context) (map[string]Record, error)
	// Save replaces the persisted table with the given one.
	Save(ctx context.Context, table map[string]Record) error
	Close() error
}
