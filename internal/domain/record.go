package domain

// MetricRecord is one video's engagement snapshot at one point in time.
// Produced by the feed, consumed by the normalizer. Never mutated after capture.
type MetricRecord struct {
	URL       string  // stable identity
	Shares    float64 // raw share count
	Likes     float64 // raw like count
	Views     float64 // raw view count
	CreatedAt string  // publish timestamp as delivered by the feed (ISO-8601, may be empty)
	Caption   string
	Author    string
	Market    Market
	IsAI      bool
}

// NormalizedMetrics holds the per-record values derived by the normalizer.
type NormalizedMetrics struct {
	AgeHours      float64 // hours since publish, floored at 0.1; 999 when unknown
	SharesPerHour float64
	LikesPerHour  float64
	ViewsPerHour  float64
	Momentum      float64 // shares/h*10 + likes/h*3 + views/h*0.01
}

// SnapshotRow is the persisted form of one normalized record for a given day.
// Corresponds to the daily_snapshots table.
type SnapshotRow struct {
	URL           string
	Author        string
	Market        Market
	AgeHours      float64
	SharesPerHour float64
	LikesPerHour  float64
	ViewsPerHour  float64
	Momentum      float64
}
