package reporting

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"trendbuild/internal/domain"
)

var csvHeader = []string{
	"url", "author", "market", "is_ai", "action_window", "trajectory", "confidence",
	"age_hours", "momentum", "velocity", "acceleration",
	"predicted_6h", "predicted_12h", "predicted_24h", "peak_estimate_hours",
	"recommended_variants", "velocity_nonpos_streak", "stop_building", "stop_reason",
	"opportunity_score",
}

// RenderCSV renders recommendations as CSV, one row per identity, in the
// given order. Enum columns carry canonical values, never labels.
func RenderCSV(recs []domain.Recommendation) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(csvHeader); err != nil {
		return "", err
	}
	for _, r := range recs {
		peak := ""
		if r.Velocity.PeakEstimateHours != nil {
			peak = ftoa(*r.Velocity.PeakEstimateHours)
		}
		row := []string{
			r.Record.URL,
			r.Record.Author,
			r.Record.Market.String(),
			strconv.FormatBool(r.Record.IsAI),
			r.Window.String(),
			r.Velocity.Trajectory.String(),
			r.Velocity.Confidence.String(),
			ftoa(r.Metrics.AgeHours),
			ftoa(r.Metrics.Momentum),
			ftoa(r.Velocity.Velocity),
			ftoa(r.Velocity.AccelerationCapped),
			ftoa(r.Velocity.Predicted6h),
			ftoa(r.Velocity.Predicted12h),
			ftoa(r.Velocity.Predicted24h),
			peak,
			strconv.Itoa(r.Variants),
			strconv.Itoa(r.Streak),
			strconv.FormatBool(r.Stop),
			r.StopReason.String(),
			ftoa(r.OpportunityScore),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
