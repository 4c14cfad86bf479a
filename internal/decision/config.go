// Package decision turns classified identities into build recommendations:
// how many variants to produce and whether to stop building.
package decision

// Config holds the allocation and stop-rule thresholds.
type Config struct {
	HardStopAgeHours   float64 `koanf:"hard_stop_age_hours" validate:"gt=0"`
	LastChanceAgeHours float64 `koanf:"last_chance_age_hours" validate:"gt=0,ltefield=HardStopAgeHours"`
	LastChanceMomentum float64 `koanf:"last_chance_momentum" validate:"gte=0"`
	FreshAgeHours      float64 `koanf:"fresh_age_hours" validate:"gt=0"`
	StreakStopRuns     int     `koanf:"streak_stop_runs" validate:"gte=1"`
	StreakTTLDays      int     `koanf:"streak_ttl_days" validate:"gte=0"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		HardStopAgeHours:   72,
		LastChanceAgeHours: 60,
		LastChanceMomentum: 5000,
		FreshAgeHours:      24,
		StreakStopRuns:     2,
		StreakTTLDays:      7,
	}
}
