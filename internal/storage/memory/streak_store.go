package memory

import (
	"context"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// StreakStore is an in-memory implementation of storage.StreakStore.
type StreakStore struct {
	mu   sync.RWMutex
	data map[string]domain.StreakEntry
}

// NewStreakStore creates a new in-memory streak store.
func NewStreakStore() *StreakStore {
	return &StreakStore{
		data: make(map[string]domain.StreakEntry),
	}
}

// Load returns a copy of every entry.
func (s *StreakStore) Load(_ context.Context) (map[string]domain.StreakEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make(map[string]domain.StreakEntry, len(s.data))
	for k, v := range s.data {
		result[k] = v
	}
	return result, nil
}

// Save replaces all entries.
func (s *StreakStore) Save(_ context.Context, entries map[string]domain.StreakEntry) error {
	data := make(map[string]domain.StreakEntry, len(entries))
	for k, v := range entries {
		if k == "" {
			continue
		}
		data[k] = v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = data
	return nil
}

// Prune removes entries last seen before cutoff.
func (s *StreakStore) Prune(_ context.Context, cutoff string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return storage.PruneStreaks(s.data, cutoff), nil
}

var _ storage.StreakStore = (*StreakStore)(nil)
