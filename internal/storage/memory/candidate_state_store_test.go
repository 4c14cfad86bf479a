package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

func TestCandidateStateStore_EmptyLoad(t *testing.T) {
	store := NewCandidateStateStore()

	state, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state == nil || len(state.Candidates) != 0 {
		t.Errorf("expected empty state, got %+v", state)
	}
}

func TestCandidateStateStore_SaveIsolated(t *testing.T) {
	store := NewCandidateStateStore()
	ctx := context.Background()

	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	state := &domain.CandidateState{
		LastUpdated: &now,
		Candidates: []*domain.Candidate{
			{URL: "https://v/1", Checks: []domain.Check{{Timestamp: now, SharesPerHour: 9}}},
		},
	}
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	state.Candidates[0].Checks[0].SharesPerHour = 0

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := loaded.Candidates[0].Checks[0].SharesPerHour; got != 9 {
		t.Errorf("stored state shares caller memory: got %f", got)
	}
}

func TestCandidateStateStore_NilState(t *testing.T) {
	store := NewCandidateStateStore()

	err := store.Save(context.Background(), nil)
	if !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("Expected ErrInvalidInput, got %v", err)
	}
}
