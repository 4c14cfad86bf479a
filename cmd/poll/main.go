// Package main runs one tracker poll cycle: refresh tracked candidates,
// evict stale ones, send alerts, admit new entrants.
package main

import (
	"fmt"
	"os"

	"trendbuild/internal/app"
	"trendbuild/internal/config"
	"trendbuild/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, "poll")
	if err != nil {
		app.Fatal(logging.New(cfg.Log), err, "startup failed")
	}
	defer a.Close()

	sinks, err := a.Sinks(nil)
	if err != nil {
		app.Fatal(a.Logger, err, "connect notification sinks")
	}
	defer sinks.Close()

	result, err := a.Tracker(sinks.Notifier).Poll(ctx)
	if err != nil {
		sinks.Close()
		a.Close()
		app.Fatal(a.Logger, err, "poll cycle failed")
	}

	s := result.Summary
	fmt.Printf("Cycle %s: tracking %d/%d, %d alerts, %d evicted, %d admitted\n",
		s.CycleID, s.TotalTracked, s.Capacity, s.AlertsSent, s.Removed, s.Admitted)
	for _, e := range result.Evictions {
		fmt.Printf("  evicted %s (%s)\n", e.URL, e.Reason)
	}
}
