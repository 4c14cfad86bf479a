// Package classify maps extrapolated momentum onto a discrete action window.
package classify

import "trendbuild/internal/domain"

// Gate is a velocity plus momentum threshold pair.
type Gate struct {
	MinVelocity float64 `koanf:"min_velocity"`
	MinMomentum float64 `koanf:"min_momentum"`
}

// Rung is one step of the no-history fallback ladder.
type Rung struct {
	MinMomentum float64 `koanf:"min_momentum"`
	MaxAgeHours float64 `koanf:"max_age_hours"`
}

// FallbackConfig is the momentum+age ladder used when no prior-day snapshot
// contained the identity.
type FallbackConfig struct {
	ActNow          Rung    `koanf:"act_now"`
	SixToTwelve     Rung    `koanf:"six_to_twelve"`
	TwelveTo24      Rung    `koanf:"twelve_to_24"`
	MonitorMomentum float64 `koanf:"monitor_momentum"`
}

// Config holds the classifier thresholds.
type Config struct {
	ClosingAgeHours     float64        `koanf:"closing_age_hours" validate:"gt=0"`
	ActNow              Gate           `koanf:"act_now"`
	SixToTwelve         Gate           `koanf:"six_to_twelve"`
	TwelveTo24Velocity  float64        `koanf:"twelve_to_24_velocity"`
	TwelveTo24Predicted float64        `koanf:"twelve_to_24_predicted"`
	PeakedMomentum      float64        `koanf:"peaked_momentum"`
	Fallback            FallbackConfig `koanf:"fallback"`
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		ClosingAgeHours:     60,
		ActNow:              Gate{MinVelocity: 200, MinMomentum: 1000},
		SixToTwelve:         Gate{MinVelocity: 100, MinMomentum: 500},
		TwelveTo24Velocity:  50,
		TwelveTo24Predicted: 2000,
		PeakedMomentum:      2000,
		Fallback: FallbackConfig{
			ActNow:          Rung{MinMomentum: 3000, MaxAgeHours: 24},
			SixToTwelve:     Rung{MinMomentum: 2000, MaxAgeHours: 36},
			TwelveTo24:      Rung{MinMomentum: 1000, MaxAgeHours: 48},
			MonitorMomentum: 500,
		},
	}
}

// Input is everything the classifier looks at for one identity.
type Input struct {
	AgeHours     float64
	Velocity     float64
	Momentum     float64
	Predicted24h float64
	HasHistory   bool // velocity came from a genuine prior-day snapshot
}

// Classifier assigns action windows.
type Classifier struct {
	config Config
}

// New creates a Classifier.
func New(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify returns exactly one action window for any input.
// Age past the closing threshold wins over everything else. Without history
// the momentum+age ladder is used so classification never fails on a cold start.
func (c *Classifier) Classify(in Input) domain.ActionWindow {
	if in.AgeHours > c.config.ClosingAgeHours {
		return domain.WindowClosing
	}
	if in.HasHistory {
		return c.withVelocity(in)
	}
	return c.fallback(in)
}

func (c *Classifier) withVelocity(in Input) domain.ActionWindow {
	cfg := c.config
	switch {
	case in.Velocity >= cfg.ActNow.MinVelocity && in.Momentum >= cfg.ActNow.MinMomentum:
		return domain.WindowActNow
	case in.Velocity >= cfg.SixToTwelve.MinVelocity && in.Momentum >= cfg.SixToTwelve.MinMomentum:
		return domain.WindowSixToTwelve
	case in.Velocity >= cfg.TwelveTo24Velocity && in.Predicted24h >= cfg.TwelveTo24Predicted:
		return domain.WindowTwelveTo24
	case in.Velocity <= 0 && in.Momentum >= cfg.PeakedMomentum:
		return domain.WindowPeaked
	case in.Velocity <= 0:
		return domain.WindowTooLate
	default:
		return domain.WindowMonitor
	}
}

func (c *Classifier) fallback(in Input) domain.ActionWindow {
	f := c.config.Fallback
	switch {
	case in.Momentum >= f.ActNow.MinMomentum && in.AgeHours <= f.ActNow.MaxAgeHours:
		return domain.WindowActNow
	case in.Momentum >= f.SixToTwelve.MinMomentum && in.AgeHours <= f.SixToTwelve.MaxAgeHours:
		return domain.WindowSixToTwelve
	case in.Momentum >= f.TwelveTo24.MinMomentum && in.AgeHours <= f.TwelveTo24.MaxAgeHours:
		return domain.WindowTwelveTo24
	case in.Momentum >= f.MonitorMomentum:
		return domain.WindowMonitor
	default:
		return domain.WindowTooLate
	}
}
