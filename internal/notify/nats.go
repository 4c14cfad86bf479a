package notify

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"trendbuild/internal/domain"
)

// Subjects published under the configured prefix.
const (
	SubjectAlert   = "alert"
	SubjectSummary = "summary"
	SubjectRun     = "run"
)

// publisher is the part of *nats.Conn the sink uses.
type publisher interface {
	Publish(subj string, data []byte) error
}

// NATS publishes tracker and refresh events as JSON messages.
type NATS struct {
	conn   publisher
	nc     *nats.Conn
	prefix string
	logger zerolog.Logger
}

// ConnectNATS dials cfg.URL with reconnect handling.
func ConnectNATS(cfg NATSConfig, logger *zerolog.Logger) (*NATS, error) {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "nats").Logger()
	}

	options := []nats.Option{
		nats.Name("trendbuild"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("nats disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			log.Info().Msg("nats connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	n := newNATS(nc, cfg.SubjectPrefix, log)
	n.nc = nc
	return n, nil
}

func newNATS(conn publisher, prefix string, logger zerolog.Logger) *NATS {
	return &NATS{conn: conn, prefix: prefix, logger: logger}
}

// Subject returns the full subject for name.
func (n *NATS) Subject(name string) string {
	if n.prefix == "" {
		return name
	}
	return n.prefix + "." + name
}

// NotifyAlert implements Notifier.
func (n *NATS) NotifyAlert(_ context.Context, alert domain.Alert) error {
	return n.Publish(SubjectAlert, alert)
}

// NotifySummary implements Notifier.
func (n *NATS) NotifySummary(_ context.Context, summary domain.CycleSummary) error {
	return n.Publish(SubjectSummary, summary)
}

// Publish encodes v as JSON and publishes it on the named subject.
func (n *NATS) Publish(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", name, err)
	}
	subject := n.Subject(name)
	if err := n.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	n.logger.Debug().Str("subject", subject).Int("bytes", len(data)).Msg("event published")
	return nil
}

// Close drains the connection.
func (n *NATS) Close() error {
	if n.nc == nil {
		return nil
	}
	return n.nc.Drain()
}

var _ Notifier = (*NATS)(nil)
