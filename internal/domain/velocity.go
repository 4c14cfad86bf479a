package domain

// Trajectory is the discrete velocity band of an identity.
type Trajectory string

const (
	TrajectoryExplosive Trajectory = "EXPLOSIVE"
	TrajectoryStrong    Trajectory = "STRONG"
	TrajectoryModerate  Trajectory = "MODERATE"
	TrajectoryFlat      Trajectory = "FLAT"
	TrajectoryDeclining Trajectory = "DECLINING"
	TrajectoryCrashing  Trajectory = "CRASHING"
)

// String returns the string representation of Trajectory.
func (t Trajectory) String() string {
	return string(t)
}

// IsValid checks if the trajectory is a valid value.
func (t Trajectory) IsValid() bool {
	_, ok := trajectoryLabels[t]
	return ok
}

// Label returns the presentation label. Never use it for comparisons.
func (t Trajectory) Label() string {
	if l, ok := trajectoryLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsDeclining reports whether the trajectory is DECLINING or CRASHING.
func (t Trajectory) IsDeclining() bool {
	return t == TrajectoryDeclining || t == TrajectoryCrashing
}

var trajectoryLabels = map[Trajectory]string{
	TrajectoryExplosive: "🚀 EXPLOSIVE",
	TrajectoryStrong:    "📈 STRONG",
	TrajectoryModerate:  "↗️ MODERATE",
	TrajectoryFlat:      "➡️ FLAT",
	TrajectoryDeclining: "↘️ DECLINING",
	TrajectoryCrashing:  "📉 CRASHING",
}

// Confidence grades how much history backed a velocity estimate.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"   // yesterday and two days ago present
	ConfidenceMedium Confidence = "MEDIUM" // yesterday only
	ConfidenceLow    Confidence = "LOW"    // no prior-day snapshot
)

// String returns the string representation of Confidence.
func (c Confidence) String() string {
	return string(c)
}

// VelocityState is the extrapolator output for one identity in one run.
// Recomputed every run from re-loaded snapshots, never persisted.
type VelocityState struct {
	Velocity           float64 // momentum delta per day
	Acceleration       float64 // velocity delta per day, uncapped
	AccelerationCapped float64 // Acceleration clamped to [-50, 50]
	Predicted6h        float64
	Predicted12h       float64
	Predicted24h       float64
	Trajectory         Trajectory
	PeakEstimateHours  *float64 // nil unless declining toward a peak within 72h
	Confidence         Confidence
	HasHistory         bool // a prior-day snapshot contained this identity
	MomentumYesterday  *float64
	MomentumTwoDaysAgo *float64
}
