// Package app wires configuration, logging, storage and notification sinks
// into the components each binary runs.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"trendbuild/internal/config"
	"trendbuild/internal/decision"
	"trendbuild/internal/feed"
	"trendbuild/internal/logging"
	"trendbuild/internal/notify"
	"trendbuild/internal/orchestrator"
	"trendbuild/internal/reporting"
	"trendbuild/internal/storage/backend"
	"trendbuild/internal/tracker"
)

// App is one binary's wired dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Stores *backend.Stores
}

// Bootstrap loads configuration from path (empty for the default search),
// builds the logger and opens storage.
func Bootstrap(ctx context.Context, path, binary string) (*App, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return New(ctx, cfg, binary)
}

// New wires an App from an already loaded configuration.
func New(ctx context.Context, cfg *config.Config, binary string) (*App, error) {
	logger := logging.New(cfg.Log).With().Str("binary", binary).Logger()

	stores, err := backend.Open(ctx, cfg.Storage, cfg.StreakTTL(), &logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return &App{Config: cfg, Logger: logger, Stores: stores}, nil
}

// Close releases storage.
func (a *App) Close() {
	if err := a.Stores.Close(); err != nil {
		a.Logger.Warn().Err(err).Msg("close storage")
	}
}

// Records returns the two-market feed.
func (a *App) Records() *feed.Markets {
	return feed.NewMarkets(a.Config.Feed, &a.Logger)
}

// Engine returns the streak-backed decision engine.
func (a *App) Engine() *decision.Engine {
	return decision.NewEngine(decision.Options{
		Config:  a.Config.Thresholds.Decision,
		Streaks: a.Stores.Streaks,
		Locker:  a.Stores.Locker,
		Logger:  &a.Logger,
	})
}

// RefreshOptions tunes one orchestrator.
type RefreshOptions struct {
	OutputDir  string
	DryRun     bool
	Now        func() time.Time
	Publishers []notify.Publisher
}

// Orchestrator builds the refresh run with the file sink rendering to
// opts.OutputDir (the configured output dir when empty).
func (a *App) Orchestrator(opts RefreshOptions) *orchestrator.Orchestrator {
	dir := opts.OutputDir
	if dir == "" {
		dir = a.Config.Output.Dir
	}
	return orchestrator.New(orchestrator.Options{
		Source:          a.Records(),
		Snapshots:       a.Stores.Snapshots,
		Engine:          a.Engine(),
		Recommendations: a.Stores.Recommendations,
		Extrapolation:   a.Config.Thresholds.Extrapolation,
		Classify:        a.Config.Thresholds.Classify,
		Accounts:        a.Config.Accounts,
		Sinks:           []orchestrator.Sink{&reporting.FileSink{Dir: dir, Logger: &a.Logger}},
		Publishers:      opts.Publishers,
		DryRun:          opts.DryRun,
		Logger:          &a.Logger,
		Now:             opts.Now,
	})
}

// Tracker builds the poll cycle runner.
func (a *App) Tracker(notifier notify.Notifier) *tracker.Tracker {
	return tracker.New(tracker.Options{
		Config:   a.Config.Thresholds.Tracker,
		Source:   a.Records(),
		State:    a.Stores.State,
		Checks:   a.Stores.Checks,
		Locker:   a.Stores.Locker,
		Notifier: notifier,
		Logger:   &a.Logger,
	})
}

// Sinks connects the configured notification sinks. hub may be nil.
func (a *App) Sinks(hub *notify.Hub) (*notify.Sinks, error) {
	return notify.Build(a.Config.Notify, hub, &a.Logger)
}

// SignalContext returns a context canceled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// Fatal logs err and exits with status 1.
func Fatal(logger zerolog.Logger, err error, msg string) {
	logger.Error().Err(err).Msg(msg)
	os.Exit(1)
}
