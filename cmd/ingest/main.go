// Package main imports dataset exports as the normalized snapshot for a
// given date, for backfilling the history the extrapolator reads.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"trendbuild/internal/app"
	"trendbuild/internal/config"
	"trendbuild/internal/domain"
	"trendbuild/internal/feed"
	"trendbuild/internal/logging"
	"trendbuild/internal/normalization"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	usFile := flag.String("us-file", "", "US dataset export (JSON array of items)")
	ukFile := flag.String("uk-file", "", "UK dataset export (JSON array of items)")
	date := flag.String("date", "", "Snapshot date YYYY-MM-DD (required)")
	capturedAt := flag.String("captured-at", "", "Capture time, RFC 3339 (default: noon UTC on -date)")
	flag.Parse()

	if *date == "" || (*usFile == "" && *ukFile == "") {
		fmt.Fprintln(os.Stderr, "usage: ingest -date YYYY-MM-DD -us-file FILE [-uk-file FILE]")
		os.Exit(2)
	}
	day, err := time.Parse(domain.DateLayout, *date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -date %q: %v\n", *date, err)
		os.Exit(2)
	}
	now := day.Add(12 * time.Hour)
	if *capturedAt != "" {
		if now, err = time.Parse(time.RFC3339, *capturedAt); err != nil {
			fmt.Fprintf(os.Stderr, "invalid -captured-at %q: %v\n", *capturedAt, err)
			os.Exit(2)
		}
	}

	ctx, cancel := app.SignalContext()
	defer cancel()

	a, err := app.New(ctx, cfg, "ingest")
	if err != nil {
		app.Fatal(logging.New(cfg.Log), err, "startup failed")
	}
	defer a.Close()

	us, err := readOptional(*usFile)
	if err != nil {
		app.Fatal(a.Logger, err, "read US export")
	}
	uk, err := readOptional(*ukFile)
	if err != nil {
		app.Fatal(a.Logger, err, "read UK export")
	}

	records := feed.MergeMarkets(feed.DefaultSchema(), us, uk)
	if len(records) == 0 {
		app.Fatal(a.Logger, feed.ErrEmptyFeed, "nothing to import")
	}

	metrics := normalization.ComputeAll(records, now)
	rows := make([]domain.SnapshotRow, len(records))
	for i, r := range records {
		rows[i] = normalization.ToSnapshotRow(r, metrics[i])
	}

	if err := a.Stores.Snapshots.SaveSnapshot(ctx, *date, rows); err != nil {
		app.Fatal(a.Logger, err, "save snapshot")
	}

	a.Logger.Info().Str("date", *date).Int("rows", len(rows)).Msg("snapshot imported")
	fmt.Printf("Imported %d rows as the %s snapshot\n", len(rows), *date)
}

func readOptional(path string) ([]map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	return feed.ReadFile(path)
}
