// Package orchestrator runs a full refresh: fetch → normalize → history →
// extrapolate → classify → decide → persist → sinks.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"trendbuild/internal/classify"
	"trendbuild/internal/decision"
	"trendbuild/internal/domain"
	"trendbuild/internal/extrapolation"
	"trendbuild/internal/feed"
	"trendbuild/internal/normalization"
	"trendbuild/internal/notify"
	"trendbuild/internal/observability"
	"trendbuild/internal/reporting"
	"trendbuild/internal/storage"
)

// EventRunCompleted is the event name published after a successful run.
const EventRunCompleted = "run_completed"

// RecordSource supplies today's merged batch of records.
type RecordSource interface {
	Records(ctx context.Context) ([]domain.MetricRecord, error)
}

// Sink renders a finished run (workbook, CSV, briefing).
type Sink interface {
	Render(ctx context.Context, report *reporting.Report) error
}

// Orchestrator coordinates one refresh run.
type Orchestrator struct {
	source          RecordSource
	snapshots       storage.SnapshotStore
	recommendations storage.RecommendationStore
	engine          *decision.Engine
	extrapolator    *extrapolation.Extrapolator
	classifier      *classify.Classifier
	accounts        reporting.Accounts
	sinks           []Sink
	publishers      []notify.Publisher
	dryRun          bool
	logger          zerolog.Logger
	now             func() time.Time
}

// Options for creating an Orchestrator.
type Options struct {
	// Required
	Source    RecordSource
	Snapshots storage.SnapshotStore
	Engine    *decision.Engine

	// Optional history; runs are not recorded when nil.
	Recommendations storage.RecommendationStore

	Extrapolation extrapolation.Config
	Classify      classify.Config
	Accounts      reporting.Accounts

	Sinks      []Sink
	Publishers []notify.Publisher

	// DryRun computes and renders but persists nothing.
	DryRun bool

	Logger *zerolog.Logger
	Now    func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		source:          opts.Source,
		snapshots:       opts.Snapshots,
		recommendations: opts.Recommendations,
		engine:          opts.Engine,
		extrapolator:    extrapolation.New(opts.Extrapolation),
		classifier:      classify.New(opts.Classify),
		accounts:        opts.Accounts,
		sinks:           opts.Sinks,
		publishers:      opts.Publishers,
		dryRun:          opts.DryRun,
		logger:          logger.With().Str("component", "orchestrator").Logger(),
		now:             now,
	}
}

// RunResult contains results from one refresh run.
type RunResult struct {
	Run             domain.RunInfo
	Records         int
	YesterdayRows   int // 0 when the snapshot was unavailable
	TwoDaysAgoRows  int
	Recommendations []domain.Recommendation // opportunity order
	Report          *reporting.Report
	Errors          []string // non-fatal sink and history failures
}

// RunEvent is the payload published after a successful run.
type RunEvent struct {
	RunID            string         `json:"run_id"`
	RunDate          string         `json:"run_date"`
	RunAt            time.Time      `json:"run_at"`
	Records          int            `json:"records"`
	BuildCount       int            `json:"build_count"`
	Windows          map[string]int `json:"windows"`
	HasHistory       bool           `json:"has_history"`
	TopOpportunities []string       `json:"top_opportunities"`
}

// Refresh executes one run. A failed or empty fetch aborts before anything
// is persisted; so does any failure up to and including the streak commit.
func (o *Orchestrator) Refresh(ctx context.Context) (*RunResult, error) {
	now := o.now().UTC()
	run := domain.RunInfo{
		RunID:   uuid.NewString(),
		RunDate: now.Format(domain.DateLayout),
		RunAt:   now,
	}
	log := o.logger.With().Str("run_id", run.RunID).Str("run_date", run.RunDate).Logger()
	result := &RunResult{Run: run}

	// Phase 1: fetch
	phase := o.phase(&log, "fetch")
	records, err := o.source.Records(ctx)
	if err == nil && len(records) == 0 {
		err = feed.ErrEmptyFeed
	}
	phase()
	if err != nil {
		observability.RecordRefreshRun("aborted")
		return nil, fmt.Errorf("phase fetch: %w", err)
	}
	result.Records = len(records)

	// Phase 2: normalize every record before any history lookup
	phase = o.phase(&log, "normalize")
	metrics := normalization.ComputeAll(records, now)
	phase()

	// Phase 3: history
	phase = o.phase(&log, "history")
	yesterday, err := o.lookup(ctx, now.AddDate(0, 0, -1))
	if err == nil {
		var twoDays *extrapolation.Lookup
		twoDays, err = o.lookup(ctx, now.AddDate(0, 0, -2))
		result.TwoDaysAgoRows = twoDays.Len()
		result.YesterdayRows = yesterday.Len()
		phase()
		if err == nil {
			return o.evaluate(ctx, &log, result, records, metrics, yesterday, twoDays)
		}
	}
	phase()
	observability.RecordRefreshRun("failed")
	return nil, fmt.Errorf("phase history: %w", err)
}

func (o *Orchestrator) evaluate(
	ctx context.Context,
	log *zerolog.Logger,
	result *RunResult,
	records []domain.MetricRecord,
	metrics []domain.NormalizedMetrics,
	yesterday, twoDays *extrapolation.Lookup,
) (*RunResult, error) {
	run := result.Run

	// Phase 4+5: extrapolate and classify
	phase := o.phase(log, "classify")
	recs := make([]domain.Recommendation, len(records))
	for i, r := range records {
		m := metrics[i]
		v := o.extrapolator.ForIdentity(r.URL, m.Momentum, yesterday, twoDays)
		recs[i] = domain.Recommendation{
			Record:   r,
			Metrics:  m,
			Velocity: v,
			Window: o.classifier.Classify(classify.Input{
				AgeHours:     m.AgeHours,
				Velocity:     v.Velocity,
				Momentum:     m.Momentum,
				Predicted24h: v.Predicted24h,
				HasHistory:   v.HasHistory,
			}),
		}
	}
	phase()

	// Phase 6: decide. The streak cache is loaded once, before any identity.
	phase = o.phase(log, "decide")
	session, err := o.engine.Begin(ctx, run.RunAt)
	if err != nil {
		phase()
		observability.RecordRefreshRun("failed")
		return nil, fmt.Errorf("phase decide: %w", err)
	}
	defer session.Abort()

	for i := range recs {
		rec := &recs[i]
		out := session.Evaluate(decision.Input{
			URL:        rec.Record.URL,
			Window:     rec.Window,
			Trajectory: rec.Velocity.Trajectory,
			AgeHours:   rec.Metrics.AgeHours,
			Momentum:   rec.Metrics.Momentum,
			Velocity:   rec.Velocity.Velocity,
		})
		rec.Variants = out.Variants
		rec.Streak = out.Streak
		rec.Stop = out.Stop
		rec.StopReason = out.Reason
		rec.OpportunityScore = decision.OpportunityScore(
			rec.Window, rec.Metrics.Momentum, rec.Velocity.Velocity, rec.Velocity.Predicted24h, rec.Metrics.AgeHours,
		)
	}
	decision.SortByOpportunity(recs)
	phase()

	// Phase 7: persist
	phase = o.phase(log, "persist")
	if o.dryRun {
		log.Info().Msg("dry run, nothing persisted")
	} else {
		rows := make([]domain.SnapshotRow, len(records))
		for i, r := range records {
			rows[i] = normalization.ToSnapshotRow(r, metrics[i])
		}
		if err := o.snapshots.SaveSnapshot(ctx, run.RunDate, rows); err != nil {
			phase()
			observability.RecordRefreshRun("failed")
			return nil, fmt.Errorf("phase persist: save snapshot: %w", err)
		}
		if err := session.Commit(ctx); err != nil {
			phase()
			observability.RecordRefreshRun("failed")
			return nil, fmt.Errorf("phase persist: %w", err)
		}
		if o.recommendations != nil {
			if err := o.recommendations.InsertBulk(ctx, run, recs); err != nil {
				log.Warn().Err(err).Msg("run history not recorded")
				result.Errors = append(result.Errors, fmt.Sprintf("history: %v", err))
			}
		}
	}
	phase()

	for _, r := range recs {
		observability.RecordRecommendation(r.Window.String(), r.StopReason.String(), r.Variants)
	}

	// Phase 8: sinks
	phase = o.phase(log, "sinks")
	report := reporting.Build(run, recs, o.accounts, o.now().UTC())
	for i, s := range o.sinks {
		if err := s.Render(ctx, report); err != nil {
			log.Error().Err(err).Int("sink", i).Msg("sink failed")
			observability.RecordNotificationError(fmt.Sprintf("sink_%d", i))
			result.Errors = append(result.Errors, fmt.Sprintf("sink %d: %v", i, err))
		}
	}
	event := newRunEvent(result, report)
	for _, p := range o.publishers {
		if err := p.Publish(EventRunCompleted, event); err != nil {
			log.Warn().Err(err).Msg("run event not published")
			observability.RecordNotificationError("run_event")
		}
	}
	phase()

	result.Recommendations = recs
	result.Report = report
	observability.RecordRefreshRun("success")
	log.Info().
		Int("records", result.Records).
		Int("yesterday_rows", result.YesterdayRows).
		Int("two_days_rows", result.TwoDaysAgoRows).
		Int("build", report.BuildCount()).
		Int("errors", len(result.Errors)).
		Msg("refresh complete")
	return result, nil
}

// lookup loads the snapshot for day. A missing snapshot is a nil lookup,
// which the extrapolator treats as unavailable history.
func (o *Orchestrator) lookup(ctx context.Context, day time.Time) (*extrapolation.Lookup, error) {
	date := day.Format(domain.DateLayout)
	rows, err := o.snapshots.GetSnapshot(ctx, date)
	if errors.Is(err, storage.ErrNotFound) {
		o.logger.Info().Str("date", date).Msg("no snapshot, history unavailable")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", date, err)
	}
	return extrapolation.NewLookup(rows), nil
}

// phase logs the start of a phase and returns a func recording its duration.
func (o *Orchestrator) phase(log *zerolog.Logger, name string) func() {
	start := time.Now()
	log.Debug().Str("phase", name).Msg("phase started")
	return func() {
		d := time.Since(start)
		observability.RecordRefreshPhase(name, d)
		log.Debug().Str("phase", name).Dur("duration", d).Msg("phase finished")
	}
}

func newRunEvent(result *RunResult, report *reporting.Report) RunEvent {
	windows := make(map[string]int, len(report.Windows))
	for _, w := range report.Windows {
		windows[w.Window.String()] = w.Count
	}
	var top []string
	for i, r := range report.Recommendations {
		if i == 5 {
			break
		}
		top = append(top, r.Record.URL)
	}
	return RunEvent{
		RunID:            result.Run.RunID,
		RunDate:          result.Run.RunDate,
		RunAt:            result.Run.RunAt,
		Records:          result.Records,
		BuildCount:       report.BuildCount(),
		Windows:          windows,
		HasHistory:       report.HasHistory,
		TopOpportunities: top,
	}
}
