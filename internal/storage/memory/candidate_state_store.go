package memory

import (
	"context"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// CandidateStateStore is an in-memory implementation of storage.CandidateStateStore.
type CandidateStateStore struct {
	mu    sync.RWMutex
	state *domain.CandidateState
}

// NewCandidateStateStore creates a new in-memory candidate state store.
func NewCandidateStateStore() *CandidateStateStore {
	return &CandidateStateStore{}
}

// Load returns a deep copy of the stored state, or an empty state.
func (s *CandidateStateStore) Load(_ context.Context) (*domain.CandidateState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state == nil {
		return &domain.CandidateState{}, nil
	}
	return s.state.Clone(), nil
}

// Save replaces the stored state with a deep copy of state.
func (s *CandidateStateStore) Save(_ context.Context, state *domain.CandidateState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state.Clone()
	return nil
}

var _ storage.CandidateStateStore = (*CandidateStateStore)(nil)
