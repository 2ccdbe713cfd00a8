package cache

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps entries in a map. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*Entry)}
}

// Get implements Store.
func (m *MemoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return copyEntry(entry), nil
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, entry *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[entry.Key] = copyEntry(entry)
	return nil
}

// Touch implements Store.
func (m *MemoryStore) Touch(ctx context.Context, key string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[key]
	if !ok {
		return ErrNotFound
	}
	entry.LastUsed = at
	return nil
}

// Delete implements Store.
func (m *MemoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
	return nil
}

// PruneOlderThan implements Store.
func (m *MemoryStore) PruneOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var deleted int64
	for key, entry := range m.entries {
		if entry.LastUsed.Before(cutoff) {
			delete(m.entries, key)
			deleted++
		}
	}
	return deleted, nil
}

// PruneToCount implements Store.
func (m *MemoryStore) PruneToCount(ctx context.Context, max int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if max < 0 || len(m.entries) <= max {
		return 0, nil
	}

	entries := make([]*Entry, 0, len(m.entries))
	for _, entry := range m.entries {
		entries = append(entries, entry)
	}
	// Most recently used first.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].LastUsed.After(entries[j].LastUsed)
	})

	var deleted int64
	for _, entry := range entries[max:] {
		delete(m.entries, entry.Key)
		deleted++
	}
	return deleted, nil
}

// Count implements Store.
func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	return nil
}

func copyEntry(e *Entry) *Entry {
	cp := *e
	cp.Dependencies = append([]Dependency(nil), e.Dependencies...)
	return &cp
}
