// Package audittest provides an in-memory audit sink for tests.
package audittest

import (
	"context"
	"sync"

	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
)

// Memory keeps entries in a slice.
type Memory struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (m *Memory) Record(_ context.Context, e domain.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
}

// Entries returns a copy of what was recorded so far.
func (m *Memory) Entries() []domain.AuditEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.AuditEntry(nil), m.entries...)
}

// Actions lists the recorded actions in order.
func (m *Memory) Actions() []domain.AuditAction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.AuditAction, len(m.entries))
	for i, e := range m.entries {
		out[i] = e.Action
	}
	return out
}
