// Package tracker maintains a small, capacity-bounded set of accelerating
// videos between full refreshes. Each poll cycle updates tracked candidates,
// evicts stale or declining ones, fires one-shot alerts and admits the
// strongest new entrants into the free slots.
package tracker

import "trendbuild/internal/domain"

// Config holds every tracker threshold.
type Config struct {
	Capacity int `koanf:"capacity" validate:"gte=1"`

	// Entry criteria for new candidates.
	EntryMaxAgeHours      float64 `koanf:"entry_max_age_hours" validate:"gt=0"`
	EntryMinSharesPerHour float64 `koanf:"entry_min_shares_per_hour" validate:"gte=0"`
	EntryMinViewsPerHour  float64 `koanf:"entry_min_views_per_hour" validate:"gte=0"`

	// Alert criteria.
	AlertMaxAgeHours      float64 `koanf:"alert_max_age_hours" validate:"gt=0"`
	AlertMinSharesPerHour float64 `koanf:"alert_min_shares_per_hour" validate:"gte=0"`
	AlertMinViewsPerHour  float64 `koanf:"alert_min_views_per_hour" validate:"gte=0"`
	AlertMinDeltaShares   float64 `koanf:"alert_min_delta_shares" validate:"gte=0"`

	// Stop criteria.
	StopAgeHours       float64 `koanf:"stop_age_hours" validate:"gt=0"`
	StopNegativeDeltas int     `koanf:"stop_negative_deltas" validate:"gte=1"`
	MaxMisses          int     `koanf:"max_misses" validate:"gte=1"`

	Priority PriorityConfig `koanf:"priority"`
}

// PriorityConfig grades alerts.
type PriorityConfig struct {
	UrgentMomentum      float64 `koanf:"urgent_momentum" validate:"gte=0"`
	UrgentSharesPerHour float64 `koanf:"urgent_shares_per_hour" validate:"gte=0"`
	HighMomentum        float64 `koanf:"high_momentum" validate:"gte=0"`
	HighSharesPerHour   float64 `koanf:"high_shares_per_hour" validate:"gte=0"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		Capacity:              8,
		EntryMaxAgeHours:      48,
		EntryMinSharesPerHour: 6,
		EntryMinViewsPerHour:  150,
		AlertMaxAgeHours:      36,
		AlertMinSharesPerHour: 8,
		AlertMinViewsPerHour:  200,
		AlertMinDeltaShares:   4,
		StopAgeHours:          60,
		StopNegativeDeltas:    2,
		MaxMisses:             3,
		Priority: PriorityConfig{
			UrgentMomentum:      3000,
			UrgentSharesPerHour: 100,
			HighMomentum:        2000,
			HighSharesPerHour:   60,
		},
	}
}

// Priority grades an alert by momentum and share rate.
func (p PriorityConfig) Priority(momentum, sharesPerHour float64) domain.AlertPriority {
	switch {
	case momentum >= p.UrgentMomentum || sharesPerHour >= p.UrgentSharesPerHour:
		return domain.PriorityUrgent
	case momentum >= p.HighMomentum || sharesPerHour >= p.HighSharesPerHour:
		return domain.PriorityHigh
	}
	return domain.PriorityWatch
}

func (c Config) meetsEntry(ch domain.Check) bool {
	return ch.AgeHours <= c.EntryMaxAgeHours &&
		ch.SharesPerHour >= c.EntryMinSharesPerHour &&
		ch.ViewsPerHour >= c.EntryMinViewsPerHour
}

func (c Config) meetsAlert(ch domain.Check) bool {
	if ch.DeltaShares == nil {
		return false
	}
	return ch.AgeHours <= c.AlertMaxAgeHours &&
		ch.SharesPerHour >= c.AlertMinSharesPerHour &&
		ch.ViewsPerHour >= c.AlertMinViewsPerHour &&
		*ch.DeltaShares >= c.AlertMinDeltaShares
}
