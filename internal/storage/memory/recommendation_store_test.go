package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

func TestRecommendationStore_InsertAndQuery(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()

	day1 := domain.RunInfo{RunID: "run-1", RunDate: "2025-03-09", RunAt: time.Date(2025, 3, 9, 6, 0, 0, 0, time.UTC)}
	day2 := domain.RunInfo{RunID: "run-2", RunDate: "2025-03-10", RunAt: time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)}

	rec := func(url string, variants int) domain.Recommendation {
		return domain.Recommendation{Record: domain.MetricRecord{URL: url}, Variants: variants}
	}

	if err := store.InsertBulk(ctx, day2, []domain.Recommendation{rec("a", 7), rec("b", 0)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}
	if err := store.InsertBulk(ctx, day1, []domain.Recommendation{rec("a", 3)}); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	byRun, err := store.GetByRun(ctx, "run-2")
	if err != nil {
		t.Fatalf("GetByRun failed: %v", err)
	}
	if len(byRun) != 2 || byRun[0].Record.URL != "a" || byRun[0].Run.RunDate != "2025-03-10" {
		t.Errorf("unexpected run-2 contents: %+v", byRun)
	}

	history, err := store.GetByIdentity(ctx, "a")
	if err != nil {
		t.Fatalf("GetByIdentity failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history rows, got %d", len(history))
	}
	if history[0].Variants != 3 || history[1].Variants != 7 {
		t.Errorf("history not ordered by run time: %d then %d", history[0].Variants, history[1].Variants)
	}

	latest, err := store.LatestRun(ctx)
	if err != nil {
		t.Fatalf("LatestRun failed: %v", err)
	}
	if latest.RunID != "run-2" {
		t.Errorf("expected latest run-2, got %s", latest.RunID)
	}
}

func TestRecommendationStore_DuplicateRun(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()
	run := domain.RunInfo{RunID: "run-1"}

	if err := store.InsertBulk(ctx, run, nil); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	err := store.InsertBulk(ctx, run, nil)
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestRecommendationStore_Empty(t *testing.T) {
	store := NewRecommendationStore()
	ctx := context.Background()

	if _, err := store.LatestRun(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from LatestRun, got %v", err)
	}
	if _, err := store.GetByRun(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound from GetByRun, got %v", err)
	}
}
