package history

import (
	"context"
	"sync"
)

// MemoryStore keeps calculations in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []Calculation // newest first
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save replaces any calculation with the same id and puts calc first.
func (m *MemoryStore) Save(_ context.Context, calc Calculation) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	items := make([]Calculation, 0, len(m.items)+1)
	items = append(items, calc)
	for _, item := range m.items {
		if item.ID != calc.ID {
			items = append(items, item)
		}
	}
	m.items = items
	return nil
}

// Get returns the calculation with the given id.
func (m *MemoryStore) Get(_ context.Context, id int64) (Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, item := range m.items {
		if item.ID == id {
			return item, nil
		}
	}
	return Calculation{}, ErrNotFound
}

// List returns a copy of all calculations, newest first.
func (m *MemoryStore) List(_ context.Context) ([]Calculation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Calculation, len(m.items))
	copy(out, m.items)
	return out, nil
}

// Delete removes the calculation with the given id.
func (m *MemoryStore) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, item := range m.items {
		if item.ID == id {
			m.items = append(m.items[:i:i], m.items[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Clear removes every calculation.
func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items = nil
	return nil
}

// Trim keeps the newest keep calculations.
func (m *MemoryStore) Trim(_ context.Context, keep int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keep = max(keep, 0)
	if len(m.items) <= keep {
		return 0, nil
	}
	removed := len(m.items) - keep
	m.items = m.items[:keep:keep]
	return removed, nil
}
