package memory

import (
	"context"
	"sort"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/idhash"
	"trendbuild/internal/storage"
)

// CheckStore is an in-memory implementation of storage.CheckStore.
// Re-inserting a check with the same identity, cycle and timestamp is a no-op.
type CheckStore struct {
	mu   sync.RWMutex
	data map[string][]*domain.CheckRecord // keyed by URL
	seen map[string]struct{}              // check IDs
}

// NewCheckStore creates a new in-memory check store.
func NewCheckStore() *CheckStore {
	return &CheckStore{
		data: make(map[string][]*domain.CheckRecord),
		seen: make(map[string]struct{}),
	}
}

// InsertBulk appends checks, skipping ones already stored.
func (s *CheckStore) InsertBulk(_ context.Context, checks []*domain.CheckRecord) error {
	for _, c := range checks {
		if c == nil || c.URL == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range checks {
		id := idhash.ComputeCheckID(c.URL, c.CycleID, c.Timestamp)
		if _, dup := s.seen[id]; dup {
			continue
		}
		s.seen[id] = struct{}{}

		cCopy := *c
		if c.DeltaShares != nil {
			d := *c.DeltaShares
			cCopy.DeltaShares = &d
		}
		s.data[c.URL] = append(s.data[c.URL], &cCopy)
	}
	return nil
}

// GetByIdentity returns every check for url, ordered by timestamp ASC.
func (s *CheckStore) GetByIdentity(_ context.Context, url string) ([]*domain.CheckRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	checks := s.data[url]
	result := make([]*domain.CheckRecord, 0, len(checks))
	for _, c := range checks {
		cCopy := *c
		result = append(result, &cCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.Before(result[j].Timestamp)
	})
	return result, nil
}

var _ storage.CheckStore = (*CheckStore)(nil)
