package tracker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/feed"
	"trendbuild/internal/notify"
	"trendbuild/internal/observability"
	"trendbuild/internal/storage"
)

// LockName is the RunLocker name guarding the candidate state.
const LockName = "candidate-tracker"

// RecordSource supplies one cycle's batch of records.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.MetricRecord, error)
}

// Options configures a Tracker.
type Options struct {
	Config   Config
	Source   RecordSource
	State    storage.CandidateStateStore
	Checks   storage.CheckStore // optional check history
	Locker   storage.RunLocker
	Notifier notify.Notifier // optional
	Logger   *zerolog.Logger
	Now      func() time.Time
}

// Tracker runs poll cycles.
type Tracker struct {
	config   Config
	source   RecordSource
	state    storage.CandidateStateStore
	checks   storage.CheckStore
	locker   storage.RunLocker
	notifier notify.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a Tracker.
func New(opts Options) *Tracker {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notify.Nop{}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Tracker{
		config:   opts.Config,
		source:   opts.Source,
		state:    opts.State,
		checks:   opts.Checks,
		locker:   opts.Locker,
		notifier: notifier,
		logger:   logger.With().Str("component", "tracker").Logger(),
		now:      now,
	}
}

// CycleResult reports one finished poll cycle.
type CycleResult struct {
	Summary   domain.CycleSummary
	Alerts    []domain.Alert
	Evictions []Eviction
	Admitted  []string
}

// Poll runs one cycle: lock, fetch, load, advance, save, notify.
// A failed or empty fetch aborts before the state is touched.
func (t *Tracker) Poll(ctx context.Context) (*CycleResult, error) {
	unlock, err := t.locker.TryLock(ctx, LockName)
	if err != nil {
		return nil, fmt.Errorf("lock candidate state: %w", err)
	}
	defer unlock()

	cycleID := uuid.NewString()
	log := t.logger.With().Str("cycle_id", cycleID).Logger()

	records, err := t.source.Records(ctx)
	if err == nil && len(records) == 0 {
		err = feed.ErrEmptyFeed
	}
	if err != nil {
		observability.RecordTrackerCycle("aborted", 0)
		return nil, fmt.Errorf("fetch batch: %w", err)
	}

	prev, err := t.state.Load(ctx)
	if err != nil {
		observability.RecordTrackerCycle("failed", 0)
		return nil, fmt.Errorf("load candidate state: %w", err)
	}

	now := t.now().UTC()
	res := Advance(t.config, prev, records, now)

	if err := t.state.Save(ctx, res.State); err != nil {
		observability.RecordTrackerCycle("failed", 0)
		return nil, fmt.Errorf("save candidate state: %w", err)
	}

	if t.checks != nil && len(res.Checks) > 0 {
		for _, c := range res.Checks {
			c.CycleID = cycleID
		}
		if err := t.checks.InsertBulk(ctx, res.Checks); err != nil {
			log.Warn().Err(err).Int("checks", len(res.Checks)).Msg("check history not recorded")
		}
	}

	for _, e := range res.Evictions {
		observability.RecordEviction(e.Reason.String())
		log.Info().Str("url", e.URL).Str("reason", e.Reason.String()).Msg("candidate evicted")
	}
	observability.RecordAdmissions(len(res.Admitted))

	for _, a := range res.Alerts {
		observability.RecordAlert(a.Priority.String())
		log.Info().Str("url", a.URL).Str("priority", a.Priority.String()).Msg("alert")
		if err := t.notifier.NotifyAlert(ctx, a); err != nil {
			log.Warn().Err(err).Str("url", a.URL).Msg("alert notification failed")
		}
	}

	summary := res.Summary(cycleID, t.config.Capacity, now)
	if summary.Changed() {
		if err := t.notifier.NotifySummary(ctx, summary); err != nil {
			log.Warn().Err(err).Msg("summary notification failed")
		}
	}

	observability.RecordTrackerCycle("success", summary.TotalTracked)
	log.Info().
		Int("batch", len(records)).
		Int("admitted", summary.Admitted).
		Int("alerts", summary.AlertsSent).
		Int("removed", summary.Removed).
		Int("tracked", summary.TotalTracked).
		Msg("poll cycle complete")

	admitted := make([]string, len(res.Admitted))
	for i, c := range res.Admitted {
		admitted[i] = c.URL
	}
	return &CycleResult{
		Summary:   summary,
		Alerts:    res.Alerts,
		Evictions: res.Evictions,
		Admitted:  admitted,
	}, nil
}
