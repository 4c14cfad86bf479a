// Package main runs the long-lived service: the daily refresh and the
// tracker poll cycle on their own tickers, plus the dashboard API and the
// live alert websocket, all under one suture supervisor tree.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"trendbuild/internal/app"
	"trendbuild/internal/config"
	"trendbuild/internal/httpapi"
	"trendbuild/internal/logging"
	"trendbuild/internal/notify"
	"trendbuild/internal/supervisor"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.Server.Addr, "HTTP listen address")
	refreshInterval := flag.Duration("refresh-interval", cfg.Server.RefreshInterval, "Refresh run interval")
	pollInterval := flag.Duration("poll-interval", cfg.Server.PollInterval, "Tracker poll interval")
	runOnStart := flag.Bool("run-on-start", cfg.Server.RunOnStart, "Run the refresh and a poll cycle immediately")
	flag.Parse()

	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, "server")
	if err != nil {
		app.Fatal(logging.New(cfg.Log), err, "startup failed")
	}
	defer a.Close()
	logger := a.Logger

	hub := notify.NewHub(&logger)
	sinks, err := a.Sinks(hub)
	if err != nil {
		app.Fatal(logger, err, "connect notification sinks")
	}
	defer sinks.Close()

	orch := a.Orchestrator(app.RefreshOptions{Publishers: sinks.Publishers})
	trk := a.Tracker(sinks.Notifier)

	refresh := supervisor.NewTickerService("refresh", *refreshInterval, *runOnStart, func(ctx context.Context) error {
		_, err := orch.Refresh(ctx)
		return err
	}, &logger)
	poll := supervisor.NewTickerService("poll", *pollInterval, *runOnStart, func(ctx context.Context) error {
		_, err := trk.Poll(ctx)
		return err
	}, &logger)

	server := httpapi.NewServer(*addr, httpapi.Options{
		State:           a.Stores.State,
		Recommendations: a.Stores.Recommendations,
		Checks:          a.Stores.Checks,
		WebSocket:       hub,
		Jobs:            []httpapi.JobReporter{refresh, poll},
		Capacity:        cfg.Thresholds.Tracker.Capacity,
		Logger:          &logger,
	})

	tree := supervisor.NewTree(supervisor.TreeConfig{ShutdownTimeout: cfg.Server.ShutdownTimeout}, &logger)
	tree.AddJob(refresh)
	tree.AddJob(poll)
	tree.AddAPI(supervisor.NamedService{Name: "websocket-hub", Server: hub})
	tree.AddAPI(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	logger.Info().
		Str("addr", *addr).
		Dur("refresh_interval", *refreshInterval).
		Dur("poll_interval", *pollInterval).
		Str("storage", cfg.Storage.Backend.String()).
		Msg("server starting")

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("supervisor stopped")
	}
	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		logger.Warn().Int("services", len(report)).Msg("services did not stop in time")
	}
	logger.Info().Msg("server stopped")
}
