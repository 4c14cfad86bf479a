// Package main re-renders the workbook, CSV and briefing of a stored run.
package main

import (
	"flag"
	"fmt"
	"os"

	"trendbuild/internal/app"
	"trendbuild/internal/config"
	"trendbuild/internal/logging"
	"trendbuild/internal/reporting"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	runID := flag.String("run-id", "", "Run to render (default: latest)")
	outputDir := flag.String("output-dir", cfg.Output.Dir, "Output directory for generated files")
	flag.Parse()

	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, "report")
	if err != nil {
		app.Fatal(logging.New(cfg.Log), err, "startup failed")
	}
	defer a.Close()

	report, err := reporting.NewGenerator(a.Stores.Recommendations, cfg.Accounts).Generate(ctx, *runID)
	if err != nil {
		a.Close()
		app.Fatal(a.Logger, err, "load run")
	}

	sink := &reporting.FileSink{Dir: *outputDir, Logger: &a.Logger}
	if err := sink.Render(ctx, report); err != nil {
		a.Close()
		app.Fatal(a.Logger, err, "render report")
	}

	workbook, csvPath, briefing := sink.Paths(report.Run.RunDate)
	fmt.Printf("Run %s (%s): %d recommendations, %d to build\n",
		report.Run.RunID, report.Run.RunDate, len(report.Recommendations), report.BuildCount())
	fmt.Printf("  %s\n  %s\n  %s\n", workbook, csvPath, briefing)
}
