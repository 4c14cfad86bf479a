package memory

import (
	"context"
	"sort"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu   sync.RWMutex
	data map[string][]domain.SnapshotRow // keyed by date
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		data: make(map[string][]domain.SnapshotRow),
	}
}

// SaveSnapshot stores rows for date, replacing any previous snapshot.
func (s *SnapshotStore) SaveSnapshot(_ context.Context, date string, rows []domain.SnapshotRow) error {
	if date == "" {
		return storage.ErrInvalidInput
	}

	rowsCopy := make([]domain.SnapshotRow, len(rows))
	copy(rowsCopy, rows)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[date] = rowsCopy
	return nil
}

// GetSnapshot returns the rows for date. Returns ErrNotFound if absent.
func (s *SnapshotStore) GetSnapshot(_ context.Context, date string) ([]domain.SnapshotRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, ok := s.data[date]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.SnapshotRow, len(rows))
	copy(result, rows)
	return result, nil
}

// ListDates returns all stored dates, ascending.
func (s *SnapshotStore) ListDates(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.data))
	for d := range s.data {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates, nil
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)
