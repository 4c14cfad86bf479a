package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trendbuild/internal/domain"
	"trendbuild/internal/storage"
)

func TestStreakStore_RoundTripAndPrune(t *testing.T) {
	ctx := context.Background()
	store := NewStreakStore(t.TempDir(), nil)

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)

	require.NoError(t, store.Save(ctx, map[string]domain.StreakEntry{
		"a": {Streak: 1, LastSeen: "2026-03-10"},
		"b": {Streak: 2, LastSeen: "2026-02-01"},
		"c": {Streak: 3},
	}))

	removed, err := store.Prune(ctx, "2026-03-07")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	loaded, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]domain.StreakEntry{
		"a": {Streak: 1, LastSeen: "2026-03-10"},
		"c": {Streak: 3},
	}, loaded)
}

func TestStreakStore_LegacyIntegerEntries(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	legacy := `{"https://x/1": 2, "https://x/2": {"streak": 1, "last_seen": "2026-03-01"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, StreakFile), []byte(legacy), 0o644))

	loaded, err := NewStreakStore(dir, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.StreakEntry{Streak: 2}, loaded["https://x/1"])
	assert.Equal(t, domain.StreakEntry{Streak: 1, LastSeen: "2026-03-01"}, loaded["https://x/2"])
}

func TestStreakStore_CorruptLoadsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StreakFile), []byte("{not json"), 0o644))

	loaded, err := NewStreakStore(dir, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCandidateStateStore(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewCandidateStateStore(dir, nil)

	state, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, state.Candidates)

	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	delta := 4.5
	in := &domain.CandidateState{
		LastUpdated: &now,
		Candidates: []*domain.Candidate{{
			URL:       "https://x/1",
			FirstSeen: now,
			Market:    domain.MarketBoth,
			Checks: []domain.Check{
				{Timestamp: now, AgeHours: 3, Momentum: 1200},
				{Timestamp: now.Add(15 * time.Minute), AgeHours: 3.2, Momentum: 1300, DeltaShares: &delta},
			},
			Alerted: true,
		}},
	}
	require.NoError(t, store.Save(ctx, in))

	out, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Candidates, 1)
	c := out.Candidates[0]
	assert.Equal(t, "https://x/1", c.URL)
	assert.True(t, c.Alerted)
	require.Len(t, c.Checks, 2)
	assert.Nil(t, c.Checks[0].DeltaShares)
	require.NotNil(t, c.Checks[1].DeltaShares)
	assert.InDelta(t, 4.5, *c.Checks[1].DeltaShares, 1e-9)
	assert.True(t, out.LastUpdated.Equal(now))
}

func TestCandidateStateStore_CorruptIsColdStart(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, StateFile), []byte("[1,2"), 0o644))

	state, err := NewCandidateStateStore(dir, nil).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Candidates)
	assert.Nil(t, state.LastUpdated)
}

func TestSnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotStore(t.TempDir())

	_, err := store.GetSnapshot(ctx, "2026-03-13")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	rows := []domain.SnapshotRow{
		{URL: "b", Market: domain.MarketUS, Momentum: 10},
		{URL: "a", Market: domain.MarketUK, Momentum: 20},
	}
	require.NoError(t, store.SaveSnapshot(ctx, "2026-03-13", rows))
	require.NoError(t, store.SaveSnapshot(ctx, "2026-03-12", rows[:1]))
	assert.ErrorIs(t, store.SaveSnapshot(ctx, "yesterday", rows), storage.ErrInvalidInput)

	got, err := store.GetSnapshot(ctx, "2026-03-13")
	require.NoError(t, err)
	assert.Equal(t, rows, got)

	dates, err := store.ListDates(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2026-03-12", "2026-03-13"}, dates)
}

func TestRecommendationStore(t *testing.T) {
	ctx := context.Background()
	store := NewRecommendationStore(t.TempDir())

	_, err := store.LatestRun(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	day1 := time.Date(2026, 3, 13, 9, 0, 0, 0, time.UTC)
	run1 := domain.RunInfo{RunID: "run-1", RunDate: "2026-03-13", RunAt: day1}
	run2 := domain.RunInfo{RunID: "run-2", RunDate: "2026-03-14", RunAt: day1.Add(24 * time.Hour)}
	rec := func(url string, variants int) domain.Recommendation {
		return domain.Recommendation{
			Record:   domain.MetricRecord{URL: url},
			Window:   domain.WindowActNow,
			Variants: variants,
		}
	}

	require.NoError(t, store.InsertBulk(ctx, run2, []domain.Recommendation{rec("a", 5), rec("b", 3)}))
	require.NoError(t, store.InsertBulk(ctx, run1, []domain.Recommendation{rec("a", 7)}))
	assert.ErrorIs(t, store.InsertBulk(ctx, run1, nil), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.InsertBulk(ctx, domain.RunInfo{RunID: "../x"}, nil), storage.ErrInvalidInput)

	latest, err := store.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)

	byRun, err := store.GetByRun(ctx, "run-2")
	require.NoError(t, err)
	require.Len(t, byRun, 2)
	assert.Equal(t, "a", byRun[0].Record.URL)
	assert.Equal(t, domain.WindowActNow, byRun[0].Window)

	history, err := store.GetByIdentity(ctx, "a")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 7, history[0].Variants)
	assert.Equal(t, 5, history[1].Variants)

	_, err = store.GetByRun(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCheckStore(t *testing.T) {
	ctx := context.Background()
	store := NewCheckStore(t.TempDir())
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, store.InsertBulk(ctx, []*domain.CheckRecord{
		{CycleID: "c2", URL: "a", Check: domain.Check{Timestamp: now.Add(time.Minute), Momentum: 2}},
		{CycleID: "c1", URL: "a", Check: domain.Check{Timestamp: now, Momentum: 1}},
		{CycleID: "c1", URL: "b", Check: domain.Check{Timestamp: now, Momentum: 9}},
	}))
	assert.ErrorIs(t, store.InsertBulk(ctx, []*domain.CheckRecord{{}}), storage.ErrInvalidInput)

	got, err := store.GetByIdentity(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c1", got[0].CycleID)
	assert.Equal(t, "c2", got[1].CycleID)

	none, err := NewCheckStore(t.TempDir()).GetByIdentity(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestLocker(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	locker := NewLocker(dir, time.Hour)

	unlock, err := locker.TryLock(ctx, "refresh")
	require.NoError(t, err)

	_, err = NewLocker(dir, time.Hour).TryLock(ctx, "refresh")
	assert.ErrorIs(t, err, storage.ErrLocked)

	other, err := locker.TryLock(ctx, "poll")
	require.NoError(t, err)
	other()

	unlock()
	unlock()

	again, err := locker.TryLock(ctx, "refresh")
	require.NoError(t, err)
	again()
}

func TestLocker_StaleLockIsTaken(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	path := filepath.Join(dir, "refresh"+lockDirSuffix)
	require.NoError(t, os.Mkdir(path, 0o755))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	unlock, err := NewLocker(dir, time.Hour).TryLock(ctx, "refresh")
	require.NoError(t, err)
	unlock()
}

func TestLocker_HeldLockDoesNotGoStale(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	staleAfter := 300 * time.Millisecond

	unlock, err := NewLocker(dir, staleAfter).TryLock(ctx, "refresh")
	require.NoError(t, err)

	// Outlive staleAfter while holding; the heartbeat keeps the mtime fresh.
	time.Sleep(3 * staleAfter)
	_, err = NewLocker(dir, staleAfter).TryLock(ctx, "refresh")
	assert.ErrorIs(t, err, storage.ErrLocked)

	unlock()
	again, err := NewLocker(dir, staleAfter).TryLock(ctx, "refresh")
	require.NoError(t, err)
	again()
}
