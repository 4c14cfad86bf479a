package feed

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"trendbuild/internal/breaker"
	"trendbuild/internal/observability"
)

const datasetPath = "/v2/actor-tasks/{task}/runs/last/dataset/items"

// ApifyClient fetches the last run's dataset of an Apify actor task.
type ApifyClient struct {
	client  *resty.Client
	breaker *gobreaker.CircuitBreaker[[]map[string]any]
	logger  zerolog.Logger
}

// NewApifyClient creates a client from cfg.
func NewApifyClient(cfg Config, logger *zerolog.Logger) *ApifyClient {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "feed").Logger()
	}

	client := resty.New()
	client.SetBaseURL(cfg.BaseURL)
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &ApifyClient{
		client:  client,
		breaker: breaker.New[[]map[string]any]("apify", cfg.Breaker, &log, observability.RecordBreakerState),
		logger:  log,
	}
}

// Fetch returns the dataset items of taskID's last run.
// When the breaker is open the error wraps gobreaker.ErrOpenState.
func (c *ApifyClient) Fetch(ctx context.Context, taskID string) ([]map[string]any, error) {
	if taskID == "" {
		return nil, ErrNoTask
	}

	items, err := c.breaker.Execute(func() ([]map[string]any, error) {
		resp, err := c.client.R().
			SetContext(ctx).
			SetPathParam("task", taskID).
			Get(datasetPath)
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
		}
		return DecodeItems(resp.Body())
	})
	if err != nil {
		return nil, fmt.Errorf("apify task %s: %w", taskID, err)
	}

	c.logger.Debug().Str("task", taskID).Int("items", len(items)).Msg("dataset fetched")
	return items, nil
}

var _ Source = (*ApifyClient)(nil)
