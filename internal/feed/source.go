package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"trendbuild/internal/observability"
)

// Feed errors.
var (
	// ErrEmptyFeed is returned when no market produced any item. A run that
	// sees it must abort before persisting anything.
	ErrEmptyFeed = errors.New("feed returned no items")

	// ErrNoTask is returned when a fetch is attempted without a task ID.
	ErrNoTask = errors.New("no task configured")
)

// Source fetches the latest dataset items for a scraper task.
type Source interface {
	Fetch(ctx context.Context, taskID string) ([]map[string]any, error)
}

// Batch holds the raw items of one fetch per market.
type Batch struct {
	US []map[string]any
	UK []map[string]any
}

// Len returns the total number of raw items.
func (b Batch) Len() int {
	return len(b.US) + len(b.UK)
}

// FetchMarkets fetches the US and UK tasks. A failing market is logged and
// treated as empty; ErrEmptyFeed is returned only when both are empty.
func FetchMarkets(ctx context.Context, src Source, usTask, ukTask string, logger *zerolog.Logger) (Batch, error) {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}

	var batch Batch
	var errs []error
	for _, m := range []struct {
		name string
		task string
		dst  *[]map[string]any
	}{
		{"us", usTask, &batch.US},
		{"uk", ukTask, &batch.UK},
	} {
		if m.task == "" {
			log.Warn().Str("market", m.name).Msg("no task configured, skipping market")
			continue
		}

		start := time.Now()
		items, err := src.Fetch(ctx, m.task)
		observability.RecordFeedFetch(m.name, time.Since(start), err)
		if err != nil {
			log.Error().Err(err).Str("market", m.name).Str("task", m.task).Msg("feed fetch failed")
			errs = append(errs, fmt.Errorf("fetch %s: %w", m.name, err))
			continue
		}
		log.Info().Str("market", m.name).Int("items", len(items)).Msg("feed fetched")
		observability.UpdateFeedItems(m.name, len(items))
		*m.dst = items
	}

	if batch.Len() == 0 {
		if err := ctx.Err(); err != nil {
			return Batch{}, err
		}
		return Batch{}, errors.Join(append([]error{ErrEmptyFeed}, errs...)...)
	}
	return batch, nil
}

// DecodeItems parses a JSON array of dataset items. Non-object elements are
// skipped. Numbers are kept as json.Number so large counts stay exact.
func DecodeItems(data []byte) ([]map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode dataset items: %w", err)
	}

	items := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			items = append(items, m)
		}
	}
	return items, nil
}
