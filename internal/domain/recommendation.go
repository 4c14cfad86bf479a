package domain

import "time"

// StopReason explains why building should stop for an identity.
type StopReason string

const (
	StopNone                StopReason = ""
	StopDecliningTrajectory StopReason = "DECLINING_TRAJECTORY"
	StopWindowOver          StopReason = "WINDOW_OVER"
	StopAgeOver72h          StopReason = "AGE_OVER_72H"
	StopVelocityNonPos      StopReason = "VELOCITY_NONPOS_2_RUNS"
)

// String returns the string representation of StopReason.
func (r StopReason) String() string {
	return string(r)
}

// Recommendation is the full per-identity output of one refresh run.
type Recommendation struct {
	Record           MetricRecord
	Metrics          NormalizedMetrics
	Velocity         VelocityState
	Window           ActionWindow
	Variants         int
	Streak           int
	Stop             bool
	StopReason       StopReason
	OpportunityScore float64
}

// RunInfo identifies one refresh run.
type RunInfo struct {
	RunID   string
	RunDate string // YYYY-MM-DD the run evaluated
	RunAt   time.Time
}

// StoredRecommendation is a recommendation as read back from history.
type StoredRecommendation struct {
	Run RunInfo
	Recommendation
}
