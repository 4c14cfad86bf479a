// Package extrapolation estimates momentum velocity and acceleration from up
// to three daily snapshots and projects momentum over short horizons.
package extrapolation

import (
	"math"

	"trendbuild/internal/domain"
)

// Prediction horizons in days.
const (
	Horizon6h  = 0.25
	Horizon12h = 0.5
	Horizon24h = 1.0
)

// Peak estimation constants. Fixed contract values.
const (
	peakMinDeceleration = -5.0
	peakMaxHours        = 72.0
)

// Config holds the trajectory bands and acceleration cap.
type Config struct {
	AccelerationCap float64 `koanf:"acceleration_cap" validate:"gt=0"`
	Explosive       float64 `koanf:"explosive"`
	Strong          float64 `koanf:"strong"`
	Moderate        float64 `koanf:"moderate"`
	Flat            float64 `koanf:"flat"`
	Declining       float64 `koanf:"declining"`
}

// DefaultConfig returns the production trajectory bands.
func DefaultConfig() Config {
	return Config{
		AccelerationCap: 50,
		Explosive:       200,
		Strong:          100,
		Moderate:        50,
		Flat:            0,
		Declining:       -50,
	}
}

// Extrapolator computes VelocityState values.
type Extrapolator struct {
	config Config
}

// New creates an Extrapolator.
func New(config Config) *Extrapolator {
	return &Extrapolator{config: config}
}

// ForIdentity extrapolates one identity's momentum. A nil lookup means the
// snapshot for that day is unavailable.
func (e *Extrapolator) ForIdentity(url string, momentum float64, yesterday, twoDaysAgo *Lookup) domain.VelocityState {
	var prev, prev2 *float64
	if v, ok := yesterday.Get(url); ok {
		prev = &v
	}
	if v, ok := twoDaysAgo.Get(url); ok {
		prev2 = &v
	}
	return e.Extrapolate(momentum, prev, prev2)
}

// Extrapolate computes velocity, acceleration, predictions, trajectory, peak
// estimate and confidence from today's momentum and optional prior values.
func (e *Extrapolator) Extrapolate(momentum float64, yesterday, twoDaysAgo *float64) domain.VelocityState {
	state := domain.VelocityState{
		MomentumYesterday:  yesterday,
		MomentumTwoDaysAgo: twoDaysAgo,
		HasHistory:         yesterday != nil,
		Confidence:         domain.ConfidenceLow,
	}

	if yesterday != nil {
		state.Velocity = momentum - *yesterday
		state.Confidence = domain.ConfidenceMedium
		if twoDaysAgo != nil {
			prevVelocity := *yesterday - *twoDaysAgo
			state.Acceleration = state.Velocity - prevVelocity
			state.Confidence = domain.ConfidenceHigh
		}
	}

	state.AccelerationCapped = clamp(state.Acceleration, -e.config.AccelerationCap, e.config.AccelerationCap)
	state.Predicted6h = predict(momentum, state.Velocity, state.AccelerationCapped, Horizon6h)
	state.Predicted12h = predict(momentum, state.Velocity, state.AccelerationCapped, Horizon12h)
	state.Predicted24h = predict(momentum, state.Velocity, state.AccelerationCapped, Horizon24h)
	state.Trajectory = e.Trajectory(state.Velocity)
	state.PeakEstimateHours = estimatePeak(state.Velocity, state.Acceleration)

	return state
}

// Trajectory maps velocity onto its band.
func (e *Extrapolator) Trajectory(velocity float64) domain.Trajectory {
	switch {
	case velocity >= e.config.Explosive:
		return domain.TrajectoryExplosive
	case velocity >= e.config.Strong:
		return domain.TrajectoryStrong
	case velocity >= e.config.Moderate:
		return domain.TrajectoryModerate
	case velocity >= e.config.Flat:
		return domain.TrajectoryFlat
	case velocity >= e.config.Declining:
		return domain.TrajectoryDeclining
	default:
		return domain.TrajectoryCrashing
	}
}

// predict is the second-order extrapolation m + v*t + a*t^2/2, floored at 0.
func predict(momentum, velocity, acceleration, t float64) float64 {
	p := momentum + velocity*t + 0.5*acceleration*t*t
	if p < 0 || math.IsNaN(p) {
		return 0
	}
	return p
}

// estimatePeak returns hours until velocity reaches zero when momentum is
// still rising but decelerating, or nil outside (0, 72) hours.
func estimatePeak(velocity, acceleration float64) *float64 {
	if !(acceleration < peakMinDeceleration && velocity > 0) {
		return nil
	}
	hours := -velocity / acceleration * 24
	if hours <= 0 || hours >= peakMaxHours {
		return nil
	}
	rounded := math.Round(hours*10) / 10
	return &rounded
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
