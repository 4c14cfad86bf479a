// Package notify delivers tracker alerts and cycle summaries to chat
// webhooks, the message bus and live dashboard connections.
package notify

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
	"trendbuild/internal/observability"
)

// Notifier receives tracker output.
type Notifier interface {
	NotifyAlert(ctx context.Context, alert domain.Alert) error
	NotifySummary(ctx context.Context, summary domain.CycleSummary) error
}

// Nop discards everything.
type Nop struct{}

func (Nop) NotifyAlert(context.Context, domain.Alert) error          { return nil }
func (Nop) NotifySummary(context.Context, domain.CycleSummary) error { return nil }

// Named is a Notifier with a sink name for logs and metrics.
type Named struct {
	Name string
	Notifier
}

// Multi fans out to every sink. A failing sink is logged and counted and
// does not stop delivery to the others; the joined error is returned.
type Multi struct {
	sinks  []Named
	logger zerolog.Logger
}

// NewMulti creates a fan-out notifier.
func NewMulti(logger *zerolog.Logger, sinks ...Named) *Multi {
	log := zerolog.Nop()
	if logger != nil {
		log = *logger
	}
	return &Multi{
		sinks:  sinks,
		logger: log.With().Str("component", "notify").Logger(),
	}
}

// Len returns the number of sinks.
func (m *Multi) Len() int {
	return len(m.sinks)
}

// NotifyAlert implements Notifier.
func (m *Multi) NotifyAlert(ctx context.Context, alert domain.Alert) error {
	return m.each(func(s Named) error { return s.NotifyAlert(ctx, alert) })
}

// NotifySummary implements Notifier.
func (m *Multi) NotifySummary(ctx context.Context, summary domain.CycleSummary) error {
	return m.each(func(s Named) error { return s.NotifySummary(ctx, summary) })
}

func (m *Multi) each(fn func(Named) error) error {
	var errs []error
	for _, s := range m.sinks {
		if err := fn(s); err != nil {
			observability.RecordNotificationError(s.Name)
			m.logger.Warn().Err(err).Str("sink", s.Name).Msg("notification failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ Notifier = (*Multi)(nil)
