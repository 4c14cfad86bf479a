package notify

import (
	"time"

	"trendbuild/internal/breaker"
)

// Config holds every sink's settings. A sink with an empty address is disabled.
type Config struct {
	Discord DiscordConfig `koanf:"discord"`
	NATS    NATSConfig    `koanf:"nats"`
}

// DiscordConfig configures the webhook sink.
type DiscordConfig struct {
	WebhookURL    string         `koanf:"webhook_url" validate:"omitempty,url"`
	Timeout       time.Duration  `koanf:"timeout" validate:"gt=0"`
	RatePerSecond float64        `koanf:"rate_per_second" validate:"gt=0"`
	Burst         int            `koanf:"burst" validate:"gte=1"`
	Footer        string         `koanf:"footer"`
	Breaker       breaker.Config `koanf:"breaker"`
}

// NATSConfig configures the event publisher.
type NATSConfig struct {
	URL           string        `koanf:"url"`
	SubjectPrefix string        `koanf:"subject_prefix" validate:"required"`
	MaxReconnects int           `koanf:"max_reconnects"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
	Timeout       time.Duration `koanf:"timeout" validate:"gt=0"`
}

// DefaultConfig returns sink defaults with every sink disabled.
func DefaultConfig() Config {
	return Config{
		Discord: DiscordConfig{
			Timeout:       10 * time.Second,
			RatePerSecond: 0.5,
			Burst:         5,
			Footer:        "trendbuild tracker",
			Breaker:       breaker.DefaultConfig(),
		},
		NATS: NATSConfig{
			SubjectPrefix: "trendbuild",
			MaxReconnects: 10,
			ReconnectWait: 2 * time.Second,
			Timeout:       5 * time.Second,
		},
	}
}
