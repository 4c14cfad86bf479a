// Package breaker wraps sony/gobreaker with the settings shared by every
// outbound HTTP client.
package breaker

import (
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Config holds circuit breaker settings.
type Config struct {
	MaxRequests      uint32        `koanf:"max_requests"`
	Interval         time.Duration `koanf:"interval"`
	Timeout          time.Duration `koanf:"timeout"`
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"gte=1"`
}

// DefaultConfig returns conservative defaults for a once-per-cycle client.
func DefaultConfig() Config {
	return Config{
		MaxRequests:      1,
		Interval:         10 * time.Minute,
		Timeout:          5 * time.Minute,
		FailureThreshold: 3,
	}
}

// StateFunc observes breaker state transitions.
type StateFunc func(name string, from, to gobreaker.State)

// New creates a circuit breaker named name. Transitions are logged and
// forwarded to onChange when it is non-nil.
func New[T any](name string, cfg Config, logger *zerolog.Logger, onChange StateFunc) *gobreaker.CircuitBreaker[T] {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = 1
	}

	return gobreaker.NewCircuitBreaker[T](gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
			if onChange != nil {
				onChange(name, from, to)
			}
		},
	})
}
