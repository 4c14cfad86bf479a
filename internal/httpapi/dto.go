package httpapi

import (
	"math"

	"trendbuild/internal/domain"
)

// Recommendation is the wire form of a stored recommendation.
type Recommendation struct {
	RunID            string   `json:"run_id"`
	RunDate          string   `json:"run_date"`
	URL              string   `json:"url"`
	Author           string   `json:"author"`
	Market           string   `json:"market"`
	IsAI             bool     `json:"is_ai"`
	AgeHours         float64  `json:"age_hours"`
	Momentum         float64  `json:"momentum"`
	Velocity         float64  `json:"velocity"`
	Acceleration     float64  `json:"acceleration"`
	Predicted6h      float64  `json:"predicted_6h"`
	Predicted12h     float64  `json:"predicted_12h"`
	Predicted24h     float64  `json:"predicted_24h"`
	Trajectory       string   `json:"trajectory"`
	Confidence       string   `json:"confidence"`
	PeakEstimateHrs  *float64 `json:"peak_estimate_hours"`
	HasHistory       bool     `json:"has_history"`
	Window           string   `json:"action_window"`
	WindowLabel      string   `json:"action_window_label"`
	Variants         int      `json:"variants"`
	Streak           int      `json:"streak"`
	Stop             bool     `json:"stop"`
	StopReason       string   `json:"stop_reason,omitempty"`
	OpportunityScore float64  `json:"opportunity_score"`
}

func toRecommendation(s *domain.StoredRecommendation) Recommendation {
	r := s.Recommendation
	return Recommendation{
		RunID:            s.Run.RunID,
		RunDate:          s.Run.RunDate,
		URL:              r.Record.URL,
		Author:           r.Record.Author,
		Market:           r.Record.Market.String(),
		IsAI:             r.Record.IsAI,
		AgeHours:         finite(r.Metrics.AgeHours),
		Momentum:         finite(r.Metrics.Momentum),
		Velocity:         finite(r.Velocity.Velocity),
		Acceleration:     finite(r.Velocity.Acceleration),
		Predicted6h:      finite(r.Velocity.Predicted6h),
		Predicted12h:     finite(r.Velocity.Predicted12h),
		Predicted24h:     finite(r.Velocity.Predicted24h),
		Trajectory:       r.Velocity.Trajectory.String(),
		Confidence:       r.Velocity.Confidence.String(),
		PeakEstimateHrs:  r.Velocity.PeakEstimateHours,
		HasHistory:       r.Velocity.HasHistory,
		Window:           r.Window.String(),
		WindowLabel:      r.Window.Label(),
		Variants:         r.Variants,
		Streak:           r.Streak,
		Stop:             r.Stop,
		StopReason:       r.StopReason.String(),
		OpportunityScore: finite(r.OpportunityScore),
	}
}

// finite maps NaN and ±Inf to 0; JSON has no encoding for them.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
