package file

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// CandidateStateStore keeps the tracker state in one JSON document.
type CandidateStateStore struct {
	mu     sync.Mutex
	path   string
	logger zerolog.Logger
}

// NewCandidateStateStore creates a candidate state store under dir.
func NewCandidateStateStore(dir string, logger *zerolog.Logger) *CandidateStateStore {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &CandidateStateStore{
		path:   filepath.Join(dir, StateFile),
		logger: l.With().Str("component", "state_file").Logger(),
	}
}

// Load returns the stored state. A missing or corrupt file is a cold start.
func (s *CandidateStateStore) Load(_ context.Context) (*domain.CandidateState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var state domain.CandidateState
	if _, err := readJSON(s.path, &state); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("candidate state unreadable, cold start")
		return &domain.CandidateState{}, nil
	}
	return state.Clone(), nil
}

// Save replaces the state file.
func (s *CandidateStateStore) Save(_ context.Context, state *domain.CandidateState) error {
	if state == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeJSON(s.path, state)
}

var _ storage.CandidateStateStore = (*CandidateStateStore)(nil)
