package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"trendbuild/internal/classify"
	"trendbuild/internal/decision"
	"trendbuild/internal/domain"
	"trendbuild/internal/extrapolation"
	"trendbuild/internal/feed"
	"trendbuild/internal/notify"
	"trendbuild/internal/reporting"
	"trendbuild/internal/storage"
	"trendbuild/internal/storage/memory"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type staticSource struct {
	records []domain.MetricRecord
	err     error
}

func (s staticSource) Records(context.Context) ([]domain.MetricRecord, error) {
	return s.records, s.err
}

type recordingSink struct {
	reports []*reporting.Report
	err     error
}

func (s *recordingSink) Render(_ context.Context, r *reporting.Report) error {
	s.reports = append(s.reports, r)
	return s.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	names  []string
	events []any
}

func (p *recordingPublisher) Publish(name string, v any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.names = append(p.names, name)
	p.events = append(p.events, v)
	return nil
}

type failingSnapshots struct {
	*memory.SnapshotStore
}

func (failingSnapshots) SaveSnapshot(context.Context, string, []domain.SnapshotRow) error {
	return errors.New("disk full")
}

type fixture struct {
	snapshots *memory.SnapshotStore
	streaks   *memory.StreakStore
	history   *memory.RecommendationStore
	locker    *memory.Locker
	sink      *recordingSink
	publisher *recordingPublisher
}

func newOrchestrator(src RecordSource, dryRun bool) (*Orchestrator, *fixture) {
	f := &fixture{
		snapshots: memory.NewSnapshotStore(),
		streaks:   memory.NewStreakStore(),
		history:   memory.NewRecommendationStore(),
		locker:    memory.NewLocker(),
		sink:      &recordingSink{},
		publisher: &recordingPublisher{},
	}
	engine := decision.NewEngine(decision.Options{
		Config:  decision.DefaultConfig(),
		Streaks: f.streaks,
		Locker:  f.locker,
	})
	o := New(Options{
		Source:          src,
		Snapshots:       f.snapshots,
		Engine:          engine,
		Recommendations: f.history,
		Extrapolation:   extrapolation.DefaultConfig(),
		Classify:        classify.DefaultConfig(),
		Accounts:        reporting.DefaultAccounts(),
		Sinks:           []Sink{f.sink},
		Publishers:      []notify.Publisher{f.publisher},
		DryRun:          dryRun,
		Now:             func() time.Time { return testNow },
	})
	return o, f
}

func record(url string, shares, likes, views float64, age time.Duration) domain.MetricRecord {
	return domain.MetricRecord{
		URL:       url,
		Shares:    shares,
		Likes:     likes,
		Views:     views,
		CreatedAt: testNow.Add(-age).Format(time.RFC3339),
		Author:    "creator",
		Market:    domain.MarketBoth,
	}
}

func batch() []domain.MetricRecord {
	return []domain.MetricRecord{
		record("https://example.com/v/1", 500, 4000, 90000, 6*time.Hour),
		record("https://example.com/v/2", 20, 300, 8000, 30*time.Hour),
		record("https://example.com/v/3", 1, 10, 100, 80*time.Hour),
	}
}

func TestRefresh_EmptyFeedAborts(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{}, false)

	_, err := o.Refresh(ctx)
	if !errors.Is(err, feed.ErrEmptyFeed) {
		t.Fatalf("expected ErrEmptyFeed, got %v", err)
	}

	if _, err := f.snapshots.GetSnapshot(ctx, "2026-03-10"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("snapshot saved after empty feed: %v", err)
	}
	entries, _ := f.streaks.Load(ctx)
	if len(entries) != 0 {
		t.Errorf("streaks = %d, want 0", len(entries))
	}
	if len(f.sink.reports) != 0 {
		t.Error("sink rendered after empty feed")
	}
}

func TestRefresh_FetchErrorAborts(t *testing.T) {
	o, f := newOrchestrator(staticSource{err: errors.New("apify down")}, false)

	if _, err := o.Refresh(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if len(f.publisher.names) != 0 {
		t.Error("run event published after fetch error")
	}
}

func TestRefresh_PersistsEverything(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)

	res, err := o.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.Run.RunDate != "2026-03-10" {
		t.Errorf("RunDate = %s", res.Run.RunDate)
	}
	if res.Records != 3 || len(res.Recommendations) != 3 {
		t.Fatalf("records = %d, recommendations = %d", res.Records, len(res.Recommendations))
	}
	if res.YesterdayRows != 0 || res.TwoDaysAgoRows != 0 {
		t.Errorf("history rows = %d/%d, want 0/0", res.YesterdayRows, res.TwoDaysAgoRows)
	}

	rows, err := f.snapshots.GetSnapshot(ctx, "2026-03-10")
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if len(rows) != 3 {
		t.Errorf("snapshot rows = %d, want 3", len(rows))
	}

	entries, err := f.streaks.Load(ctx)
	if err != nil {
		t.Fatalf("Load streaks: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("streak entries = %d, want 3", len(entries))
	}
	for url, e := range entries {
		if e.LastSeen != "2026-03-10" {
			t.Errorf("%s last seen = %s", url, e.LastSeen)
		}
	}

	stored, err := f.history.GetByRun(ctx, res.Run.RunID)
	if err != nil {
		t.Fatalf("GetByRun: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("history = %d, want 3", len(stored))
	}

	for i := 1; i < len(res.Recommendations); i++ {
		if res.Recommendations[i-1].OpportunityScore < res.Recommendations[i].OpportunityScore {
			t.Errorf("recommendations not in opportunity order at %d", i)
		}
	}
	for _, r := range res.Recommendations {
		if r.Velocity.HasHistory {
			t.Errorf("%s has history on first run", r.Record.URL)
		}
	}

	if len(f.sink.reports) != 1 {
		t.Fatalf("sink reports = %d, want 1", len(f.sink.reports))
	}
	if f.sink.reports[0].HasHistory {
		t.Error("report claims history on first run")
	}
	if len(f.publisher.names) != 1 || f.publisher.names[0] != EventRunCompleted {
		t.Errorf("published = %v", f.publisher.names)
	}
	ev, ok := f.publisher.events[0].(RunEvent)
	if !ok {
		t.Fatalf("event type = %T", f.publisher.events[0])
	}
	if ev.RunID != res.Run.RunID || ev.Records != 3 {
		t.Errorf("event = %+v", ev)
	}
}

func TestRefresh_UsesPriorSnapshots(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)

	url := "https://example.com/v/1"
	if err := f.snapshots.SaveSnapshot(ctx, "2026-03-09", []domain.SnapshotRow{{URL: url, Momentum: 100}}); err != nil {
		t.Fatal(err)
	}
	if err := f.snapshots.SaveSnapshot(ctx, "2026-03-08", []domain.SnapshotRow{{URL: url, Momentum: 50}}); err != nil {
		t.Fatal(err)
	}

	res, err := o.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if res.YesterdayRows != 1 || res.TwoDaysAgoRows != 1 {
		t.Errorf("history rows = %d/%d, want 1/1", res.YesterdayRows, res.TwoDaysAgoRows)
	}

	found := false
	for _, r := range res.Recommendations {
		if r.Record.URL != url {
			if r.Velocity.HasHistory {
				t.Errorf("%s has history without prior row", r.Record.URL)
			}
			continue
		}
		found = true
		if !r.Velocity.HasHistory {
			t.Error("expected history for tracked identity")
		}
	}
	if !found {
		t.Fatal("identity missing from recommendations")
	}
	if !res.Report.HasHistory {
		t.Error("report should note history")
	}
}

func TestRefresh_DryRunPersistsNothing(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, true)

	res, err := o.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(res.Recommendations) != 3 {
		t.Errorf("recommendations = %d, want 3", len(res.Recommendations))
	}
	if _, err := f.snapshots.GetSnapshot(ctx, "2026-03-10"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("dry run saved snapshot: %v", err)
	}
	entries, _ := f.streaks.Load(ctx)
	if len(entries) != 0 {
		t.Errorf("dry run saved %d streaks", len(entries))
	}
	if _, err := f.history.GetByRun(ctx, res.Run.RunID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("dry run recorded history: %v", err)
	}
	if len(f.sink.reports) != 1 {
		t.Error("dry run should still render")
	}

	// the streak lock is released after a dry run
	unlock, err := f.locker.TryLock(ctx, decision.StreakLockName)
	if err != nil {
		t.Fatalf("streak lock still held: %v", err)
	}
	unlock()
}

func TestRefresh_ExpiredStreaksSurviveUnpersistedRuns(t *testing.T) {
	expired := map[string]domain.StreakEntry{"https://old.example.com/v": {Streak: 1, LastSeen: "2026-02-01"}}

	tests := []struct {
		name    string
		dryRun  bool
		failing bool
		wantErr bool
	}{
		{"dry run", true, false, false},
		{"snapshot save fails", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			o, f := newOrchestrator(staticSource{records: batch()}, tt.dryRun)
			if tt.failing {
				o.snapshots = failingSnapshots{f.snapshots}
			}
			if err := f.streaks.Save(ctx, expired); err != nil {
				t.Fatal(err)
			}

			_, err := o.Refresh(ctx)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Refresh error = %v, wantErr %v", err, tt.wantErr)
			}

			entries, _ := f.streaks.Load(ctx)
			if len(entries) != 1 || entries["https://old.example.com/v"].LastSeen != "2026-02-01" {
				t.Errorf("streak cache changed: %+v", entries)
			}
		})
	}
}

func TestRefresh_CommitDropsExpiredStreaks(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)
	_ = f.streaks.Save(ctx, map[string]domain.StreakEntry{"https://old.example.com/v": {Streak: 1, LastSeen: "2026-02-01"}})

	if _, err := o.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	entries, _ := f.streaks.Load(ctx)
	if _, ok := entries["https://old.example.com/v"]; ok {
		t.Error("expired entry should be dropped by the committed save")
	}
	if len(entries) != 3 {
		t.Errorf("entries = %d, want 3", len(entries))
	}
}

func TestRefresh_SinkErrorIsNotFatal(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)
	f.sink.err = errors.New("disk full")

	res, err := o.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if len(res.Errors) != 1 {
		t.Errorf("errors = %v, want one", res.Errors)
	}
	if _, err := f.snapshots.GetSnapshot(ctx, "2026-03-10"); err != nil {
		t.Errorf("snapshot missing: %v", err)
	}
}

func TestRefresh_LockedStreakCache(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)

	unlock, err := f.locker.TryLock(ctx, decision.StreakLockName)
	if err != nil {
		t.Fatal(err)
	}
	defer unlock()

	_, err = o.Refresh(ctx)
	if !errors.Is(err, storage.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if _, err := f.snapshots.GetSnapshot(ctx, "2026-03-10"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("snapshot saved while locked: %v", err)
	}
}

func TestRefresh_StreaksCarryAcrossRuns(t *testing.T) {
	ctx := context.Background()
	o, f := newOrchestrator(staticSource{records: batch()}, false)

	if _, err := o.Refresh(ctx); err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	o.now = func() time.Time { return testNow.AddDate(0, 0, 1) }
	res, err := o.Refresh(ctx)
	if err != nil {
		t.Fatalf("second Refresh: %v", err)
	}
	if res.YesterdayRows != 3 {
		t.Errorf("yesterday rows = %d, want 3", res.YesterdayRows)
	}
	entries, _ := f.streaks.Load(ctx)
	for url, e := range entries {
		if e.LastSeen != "2026-03-11" {
			t.Errorf("%s last seen = %s, want 2026-03-11", url, e.LastSeen)
		}
	}
}
