package notify

import (
	"github.com/rs/zerolog"
)

// Publisher announces named events (NATS subjects, websocket message types).
type Publisher interface {
	Publish(name string, v any) error
}

// Sinks is the assembled notification fan-out.
type Sinks struct {
	// Notifier receives tracker alerts and cycle summaries.
	Notifier *Multi
	// Publishers receive refresh run events.
	Publishers []Publisher

	closeFn func()
}

// Close releases the NATS connection, if any.
func (s *Sinks) Close() {
	if s.closeFn != nil {
		s.closeFn()
	}
}

// Build assembles the configured sinks. hub may be nil.
func Build(cfg Config, hub *Hub, logger *zerolog.Logger) (*Sinks, error) {
	var named []Named
	s := &Sinks{}

	if cfg.Discord.WebhookURL != "" {
		named = append(named, Named{Name: "discord", Notifier: NewDiscord(cfg.Discord, logger)})
	}
	if cfg.NATS.URL != "" {
		n, err := ConnectNATS(cfg.NATS, logger)
		if err != nil {
			return nil, err
		}
		named = append(named, Named{Name: "nats", Notifier: n})
		s.Publishers = append(s.Publishers, n)
		s.closeFn = func() { _ = n.Close() }
	}
	if hub != nil {
		named = append(named, Named{Name: "websocket", Notifier: hub})
		s.Publishers = append(s.Publishers, hub)
	}

	s.Notifier = NewMulti(logger, named...)
	return s, nil
}
