package postgres

import (
	"context"
	"fmt"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// CandidateStateStore keeps the tracker state as one JSONB document.
type CandidateStateStore struct {
	pool   *Pool
	logger zerolog.Logger
}

// NewCandidateStateStore creates a new CandidateStateStore.
func NewCandidateStateStore(pool *Pool, logger *zerolog.Logger) *CandidateStateStore {
	l := zerolog.Nop()
	if logger != nil {
		l = *logger
	}
	return &CandidateStateStore{
		pool:   pool,
		logger: l.With().Str("component", "state_postgres").Logger(),
	}
}

// Compile-time interface check.
var _ storage.CandidateStateStore = (*CandidateStateStore)(nil)

// Load returns the stored state. A missing row or an undecodable document
// loads as an empty state.
func (s *CandidateStateStore) Load(ctx context.Context) (state *domain.CandidateState, err error) {
	start := time.Now()
	defer func() { observe("load_candidate_state", start, err) }()

	var data []byte
	err = s.pool.QueryRow(ctx, `SELECT state FROM candidate_state WHERE id = 1`).Scan(&data)
	if err != nil {
		if isNotFoundError(err) {
			return &domain.CandidateState{}, nil
		}
		return nil, fmt.Errorf("load candidate state: %w", err)
	}

	var decoded domain.CandidateState
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.logger.Warn().Err(err).Msg("candidate state undecodable, cold start")
		return &domain.CandidateState{}, nil
	}
	return decoded.Clone(), nil
}

// Save upserts the state document.
func (s *CandidateStateStore) Save(ctx context.Context, state *domain.CandidateState) (err error) {
	if state == nil {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("save_candidate_state", start, err) }()

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode candidate state: %w", err)
	}

	query := `
		INSERT INTO candidate_state (id, state, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at
	`
	if _, err = s.pool.Exec(ctx, query, data); err != nil {
		return fmt.Errorf("save candidate state: %w", err)
	}
	return nil
}
