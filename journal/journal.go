// Package journal provides append-only, per-identity event logs used to make
// actor state recoverable: an identity's log is replayed through its pure
// apply routine on every (re)start. Logs are independent per identity and
// guarantee append-then-read-back consistency; no cross-identity coordination
// exists or is needed.
package journal

import (
	"context"
	"encoding/json"
)

// Entry is one persisted event in its wire envelope. Type tags the event so
// any variant round-trips losslessly through Data.
type Entry struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Journal is the persistence provider contract: append durably, return all
// prior entries for an identity in original append order, and discard a log
// once its identity is terminally done with it.
type Journal interface {
	// Append durably adds an entry to the identity's log. It returns once
	// the entry is appended and depends on no other identity's state.
	Append(ctx context.Context, persistenceID string, entry Entry) error

	// Load returns every entry previously appended for the identity, in
	// append order. A missing log yields an empty slice, not an error.
	Load(ctx context.Context, persistenceID string) ([]Entry, error)

	// Delete removes the identity's log.
	Delete(ctx context.Context, persistenceID string) error
}
