package dictionary

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"japanesedict/model"
)

// MemoryIndex keeps entries in memory, indexed by every spelling and reading.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries map[int]model.Entry
	byKey   map[string][]int
}

var _ Store = (*MemoryIndex)(nil)

// NewMemoryIndex returns an empty index.
func NewMemoryIndex(entries ...model.Entry) *MemoryIndex {
	m := &MemoryIndex{
		entries: make(map[int]model.Entry),
		byKey:   make(map[string][]int),
	}
	_ = m.Write(context.Background(), entries)
	return m
}

// Write upserts entries by ID.
func (m *MemoryIndex) Write(_ context.Context, entries []model.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		if old, ok := m.entries[e.ID]; ok {
			m.unindex(old)
		}
		m.entries[e.ID] = e
		for _, k := range e.Keys() {
			m.byKey[k] = append(m.byKey[k], e.ID)
		}
	}
	return nil
}

func (m *MemoryIndex) unindex(e model.Entry) {
	for _, k := range e.Keys() {
		ids := m.byKey[k][:0]
		for _, id := range m.byKey[k] {
			if id != e.ID {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			delete(m.byKey, k)
			continue
		}
		m.byKey[k] = ids
	}
}

// LookupExact returns the entries matching any span without duplicates,
// common entries first.
func (m *MemoryIndex) LookupExact(ctx context.Context, spans []string, limit int) ([]model.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []model.Entry
	seen := make(map[int]bool)
	for _, span := range spans {
		for _, id := range m.byKey[span] {
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, m.entries[id])
		}
	}
	slices.SortFunc(out, compareEntries)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func compareEntries(a, b model.Entry) int {
	if a.Common != b.Common {
		if a.Common {
			return -1
		}
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}

// Count returns the number of entries.
func (m *MemoryIndex) Count(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}
