package memory

import (
	"context"
	"sort"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// RecommendationStore is an in-memory implementation of storage.RecommendationStore.
type RecommendationStore struct {
	mu   sync.RWMutex
	runs []domain.RunInfo
	data map[string][]domain.Recommendation // keyed by run ID
}

// NewRecommendationStore creates a new in-memory recommendation store.
func NewRecommendationStore() *RecommendationStore {
	return &RecommendationStore{
		data: make(map[string][]domain.Recommendation),
	}
}

// InsertBulk adds all recommendations of a run. Returns ErrDuplicateKey if the run exists.
func (s *RecommendationStore) InsertBulk(_ context.Context, run domain.RunInfo, recs []domain.Recommendation) error {
	if run.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[run.RunID]; exists {
		return storage.ErrDuplicateKey
	}

	recsCopy := make([]domain.Recommendation, len(recs))
	copy(recsCopy, recs)
	s.data[run.RunID] = recsCopy
	s.runs = append(s.runs, run)
	return nil
}

// GetByRun returns a run's recommendations. Returns ErrNotFound if absent.
func (s *RecommendationStore) GetByRun(_ context.Context, runID string) ([]*domain.StoredRecommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs, ok := s.data[runID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	run := s.runInfo(runID)

	result := make([]*domain.StoredRecommendation, 0, len(recs))
	for _, r := range recs {
		result = append(result, &domain.StoredRecommendation{Run: run, Recommendation: r})
	}
	return result, nil
}

// GetByIdentity returns every recommendation for url, ordered by run time ASC.
func (s *RecommendationStore) GetByIdentity(_ context.Context, url string) ([]*domain.StoredRecommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.StoredRecommendation
	for _, run := range s.runs {
		for _, r := range s.data[run.RunID] {
			if r.Record.URL == url {
				result = append(result, &domain.StoredRecommendation{Run: run, Recommendation: r})
			}
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Run.RunAt.Before(result[j].Run.RunAt)
	})
	return result, nil
}

// LatestRun returns the run with the latest RunAt. Returns ErrNotFound when empty.
func (s *RecommendationStore) LatestRun(_ context.Context) (domain.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return domain.RunInfo{}, storage.ErrNotFound
	}
	latest := s.runs[0]
	for _, run := range s.runs[1:] {
		if !run.RunAt.Before(latest.RunAt) {
			latest = run
		}
	}
	return latest, nil
}

func (s *RecommendationStore) runInfo(runID string) domain.RunInfo {
	for _, run := range s.runs {
		if run.RunID == runID {
			return run
		}
	}
	return domain.RunInfo{RunID: runID}
}

var _ storage.RecommendationStore = (*RecommendationStore)(nil)
