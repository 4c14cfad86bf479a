// Package normalization derives age, per-hour rates and momentum from raw
// engagement counts.
package normalization

import (
	"math"
	"time"

	"trendbuild/internal/domain"
)

// Momentum weights. Fixed contract values: changing them breaks numeric
// parity with every stored snapshot.
const (
	ShareWeight = 10.0
	LikeWeight  = 3.0
	ViewWeight  = 0.01
)

// Age bounds in hours.
const (
	MinAgeHours     = 0.1
	UnknownAgeHours = 999.0
)

// Momentum combines per-hour rates into the momentum score.
func Momentum(sharesPerHour, likesPerHour, viewsPerHour float64) float64 {
	return sharesPerHour*ShareWeight + likesPerHour*LikeWeight + viewsPerHour*ViewWeight
}

// Compute normalizes a single record as of now.
func Compute(r domain.MetricRecord, now time.Time) domain.NormalizedMetrics {
	age := AgeHours(r.CreatedAt, now)

	shares := sanitizeCount(r.Shares) / age
	likes := sanitizeCount(r.Likes) / age
	views := sanitizeCount(r.Views) / age

	return domain.NormalizedMetrics{
		AgeHours:      age,
		SharesPerHour: shares,
		LikesPerHour:  likes,
		ViewsPerHour:  views,
		Momentum:      Momentum(shares, likes, views),
	}
}

// ComputeAll normalizes records in order.
func ComputeAll(records []domain.MetricRecord, now time.Time) []domain.NormalizedMetrics {
	out := make([]domain.NormalizedMetrics, len(records))
	for i, r := range records {
		out[i] = Compute(r, now)
	}
	return out
}

// Rounded applies the tracker's display precision: age and shares/h to one
// decimal, views/h and momentum truncated to integers. Likes/h keeps one decimal.
func Rounded(m domain.NormalizedMetrics) domain.NormalizedMetrics {
	return domain.NormalizedMetrics{
		AgeHours:      round1(m.AgeHours),
		SharesPerHour: round1(m.SharesPerHour),
		LikesPerHour:  round1(m.LikesPerHour),
		ViewsPerHour:  math.Trunc(m.ViewsPerHour),
		Momentum:      math.Trunc(m.Momentum),
	}
}

// ToSnapshotRow converts a record and its metrics to the persisted snapshot form.
func ToSnapshotRow(r domain.MetricRecord, m domain.NormalizedMetrics) domain.SnapshotRow {
	return domain.SnapshotRow{
		URL:           r.URL,
		Author:        r.Author,
		Market:        r.Market,
		AgeHours:      m.AgeHours,
		SharesPerHour: m.SharesPerHour,
		LikesPerHour:  m.LikesPerHour,
		ViewsPerHour:  m.ViewsPerHour,
		Momentum:      m.Momentum,
	}
}

// sanitizeCount maps anything that is not a finite non-negative count to 0.
func sanitizeCount(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
