// Package main runs one full refresh: fetch both markets, normalize,
// extrapolate against stored snapshots, classify, decide, persist, and
// render the workbook, CSV and daily briefing.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trendbuild/internal/app"
	"trendbuild/internal/config"
	"trendbuild/internal/domain"
	"trendbuild/internal/logging"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	date := flag.String("date", "", "Run date YYYY-MM-DD (default today, UTC)")
	outputDir := flag.String("output-dir", cfg.Output.Dir, "Output directory for generated files")
	dryRun := flag.Bool("dry-run", false, "Compute and render without persisting snapshots, streaks or history")
	flag.Parse()

	var runDay *time.Time
	if *date != "" {
		d, err := time.Parse(domain.DateLayout, *date)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid -date %q: %v\n", *date, err)
			os.Exit(2)
		}
		runDay = &d
	}

	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, "pipeline")
	if err != nil {
		app.Fatal(logging.New(cfg.Log), err, "startup failed")
	}
	defer a.Close()

	sinks, err := a.Sinks(nil)
	if err != nil {
		app.Fatal(a.Logger, err, "connect notification sinks")
	}
	defer sinks.Close()

	opts := app.RefreshOptions{
		OutputDir:  *outputDir,
		DryRun:     *dryRun,
		Publishers: sinks.Publishers,
	}
	if runDay != nil {
		opts.Now = func() time.Time {
			now := time.Now().UTC()
			return time.Date(runDay.Year(), runDay.Month(), runDay.Day(),
				now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)
		}
	}

	result, err := a.Orchestrator(opts).Refresh(ctx)
	if err != nil {
		a.Close()
		app.Fatal(a.Logger, err, "refresh failed")
	}

	fmt.Printf("Run %s (%s)\n", result.Run.RunID, result.Run.RunDate)
	fmt.Printf("  Records:        %d\n", result.Records)
	fmt.Printf("  Yesterday rows: %d\n", result.YesterdayRows)
	fmt.Printf("  Two-days rows:  %d\n", result.TwoDaysAgoRows)
	fmt.Printf("  Build today:    %d\n", result.Report.BuildCount())
	for _, w := range result.Report.Windows {
		fmt.Printf("    %-24s %d\n", w.Window.Label(), w.Count)
	}
	if len(result.Errors) > 0 {
		fmt.Printf("  Errors: %d\n", len(result.Errors))
		for _, e := range result.Errors {
			fmt.Printf("    - %s\n", e)
		}
	}
	if *dryRun {
		fmt.Println("  (dry run: nothing persisted)")
	} else {
		fmt.Printf("  Output: %s/\n", *outputDir)
	}
}
