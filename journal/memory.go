package journal

import (
	"context"
	"sync"

	"github.com/tidwall/btree"
)

// MemoryJournal keeps logs in memory, ordered by persistence ID. Suitable for
// tests and for runs where durability across process boundaries is not
// required.
type MemoryJournal struct {
	mu   sync.Mutex
	logs *btree.Map[string, []Entry]
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		logs: btree.NewMap[string, []Entry](10),
	}
}

// Append adds an entry to the identity's log.
func (m *MemoryJournal) Append(ctx context.Context, persistenceID string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, _ := m.logs.Get(persistenceID)
	m.logs.Set(persistenceID, append(log, entry))
	return nil
}

// Load returns a copy of the identity's log in append order.
func (m *MemoryJournal) Load(ctx context.Context, persistenceID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	log, ok := m.logs.Get(persistenceID)
	if !ok {
		return nil, nil
	}
	out := make([]Entry, len(log))
	copy(out, log)
	return out, nil
}

// Delete removes the identity's log.
func (m *MemoryJournal) Delete(ctx context.Context, persistenceID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logs.Delete(persistenceID)
	return nil
}

// IDs returns the identities with a log, in sorted order.
func (m *MemoryJournal) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.logs.Keys()
}
