package feed

import (
	"context"

	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
)

// Markets fetches both regional tasks and merges them into one batch of
// records. It is the record source shared by the refresh run and the tracker.
type Markets struct {
	Source   Source
	Schema   Schema
	USTaskID string
	UKTaskID string
	Logger   *zerolog.Logger
}

// NewMarkets wires a Markets from the feed config.
func NewMarkets(cfg Config, logger *zerolog.Logger) *Markets {
	return &Markets{
		Source:   NewSource(cfg, logger),
		Schema:   DefaultSchema(),
		USTaskID: cfg.USTaskID,
		UKTaskID: cfg.UKTaskID,
		Logger:   logger,
	}
}

// Records returns the merged batch. ErrEmptyFeed (wrapped) when neither
// market produced a usable record.
func (m *Markets) Records(ctx context.Context) ([]domain.MetricRecord, error) {
	batch, err := FetchMarkets(ctx, m.Source, m.USTaskID, m.UKTaskID, m.Logger)
	if err != nil {
		return nil, err
	}
	records := MergeMarkets(m.Schema, batch.US, batch.UK)
	if len(records) == 0 {
		return nil, ErrEmptyFeed
	}
	return records, nil
}
