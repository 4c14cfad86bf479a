package feed

import (
	"time"

	"github.com/rs/zerolog"

	"trendbuild/internal/breaker"
)

// Config holds feed client settings.
type Config struct {
	BaseURL  string         `koanf:"base_url" validate:"required,url"`
	Token    string         `koanf:"token"`
	USTaskID string         `koanf:"us_task_id"`
	UKTaskID string         `koanf:"uk_task_id"`
	Timeout  time.Duration  `koanf:"timeout" validate:"gt=0"`
	InputDir string         `koanf:"input_dir"` // read <task>.json files instead of calling the API
	Breaker  breaker.Config `koanf:"breaker"`
}

// DefaultConfig returns the production feed settings.
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.apify.com",
		Timeout: 60 * time.Second,
		Breaker: breaker.DefaultConfig(),
	}
}

// NewSource returns a FileSource when cfg.InputDir is set, otherwise an
// ApifyClient.
func NewSource(cfg Config, logger *zerolog.Logger) Source {
	if cfg.InputDir != "" {
		return FileSource{Dir: cfg.InputDir}
	}
	return NewApifyClient(cfg, logger)
}
