package reporting

import (
	"context"
	"fmt"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

// Generator rebuilds reports from stored run history.
type Generator struct {
	store    storage.RecommendationStore
	accounts Accounts
	now      func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(store storage.RecommendationStore, accounts Accounts) *Generator {
	return &Generator{
		store:    store,
		accounts: accounts,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate builds the report for runID, or for the latest run when runID
// is empty. Returns storage.ErrNotFound (wrapped) for an unknown run.
func (g *Generator) Generate(ctx context.Context, runID string) (*Report, error) {
	if runID == "" {
		latest, err := g.store.LatestRun(ctx)
		if err != nil {
			return nil, fmt.Errorf("latest run: %w", err)
		}
		runID = latest.RunID
	}

	stored, err := g.store.GetByRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", runID, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("load run %s: %w", runID, storage.ErrNotFound)
	}

	recs := make([]domain.Recommendation, len(stored))
	for i, s := range stored {
		recs[i] = s.Recommendation
	}
	return Build(stored[0].Run, recs, g.accounts, g.now()), nil
}
