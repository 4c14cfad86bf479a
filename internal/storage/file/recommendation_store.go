package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

type runDocument struct {
	Run             domain.RunInfo          `json:"run"`
	Recommendations []domain.Recommendation `json:"recommendations"`
}

// RecommendationStore keeps one JSON document per refresh run.
type RecommendationStore struct {
	mu  sync.RWMutex
	dir string
}

// NewRecommendationStore creates a recommendation store under dir.
func NewRecommendationStore(dir string) *RecommendationStore {
	return &RecommendationStore{dir: filepath.Join(dir, runDir)}
}

func (s *RecommendationStore) path(runID string) (string, error) {
	if runID == "" || strings.ContainsAny(runID, `/\`) || runID == "." || runID == ".." {
		return "", storage.ErrInvalidInput
	}
	return filepath.Join(s.dir, runID+".json"), nil
}

// InsertBulk writes a run. Returns ErrDuplicateKey if the run exists.
func (s *RecommendationStore) InsertBulk(_ context.Context, run domain.RunInfo, recs []domain.Recommendation) error {
	path, err := s.path(run.RunID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(path); err == nil {
		return storage.ErrDuplicateKey
	}
	return writeJSON(path, runDocument{Run: run, Recommendations: recs})
}

// GetByRun returns a run's recommendations. Returns ErrNotFound if absent.
func (s *RecommendationStore) GetByRun(_ context.Context, runID string) ([]*domain.StoredRecommendation, error) {
	path, err := s.path(runID)
	if err != nil {
		return nil, storage.ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var doc runDocument
	found, err := readJSON(path, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, storage.ErrNotFound
	}
	return stored(doc, ""), nil
}

// GetByIdentity returns every recommendation for url, ordered by run time ASC.
func (s *RecommendationStore) GetByIdentity(_ context.Context, url string) ([]*domain.StoredRecommendation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.all()
	if err != nil {
		return nil, err
	}

	var result []*domain.StoredRecommendation
	for _, doc := range docs {
		result = append(result, stored(doc, url)...)
	}
	return result, nil
}

// LatestRun returns the run with the latest RunAt. Returns ErrNotFound when empty.
func (s *RecommendationStore) LatestRun(_ context.Context) (domain.RunInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs, err := s.all()
	if err != nil {
		return domain.RunInfo{}, err
	}
	if len(docs) == 0 {
		return domain.RunInfo{}, storage.ErrNotFound
	}
	return docs[len(docs)-1].Run, nil
}

// all reads every run document, ordered by run time ASC.
func (s *RecommendationStore) all() ([]runDocument, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var docs []runDocument
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		var doc runDocument
		if _, err := readJSON(filepath.Join(s.dir, e.Name()), &doc); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].Run.RunAt.Before(docs[j].Run.RunAt)
	})
	return docs, nil
}

func stored(doc runDocument, url string) []*domain.StoredRecommendation {
	var result []*domain.StoredRecommendation
	for _, r := range doc.Recommendations {
		if url != "" && r.Record.URL != url {
			continue
		}
		result = append(result, &domain.StoredRecommendation{Run: doc.Run, Recommendation: r})
	}
	return result
}

var _ storage.RecommendationStore = (*RecommendationStore)(nil)
