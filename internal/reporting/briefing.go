package reporting

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"trendbuild/internal/domain"
)

// Briefing selection.
const (
	briefingMaxAgeHours = 48.0
	briefingMinMomentum = 500.0
	briefingSize        = 5
	buildWindowHours    = 72.0
	urgentMomentum      = 3000.0
	highMomentum        = 2000.0
	veryHighSharesPerHr = 100.0
	strongSharesPerHr   = 25.0
	explosiveVelocity   = 200.0
	strongVelocity      = 100.0
	closingWindowHours  = 24.0
)

// BriefingItem is one immediate-action entry of the daily briefing.
type BriefingItem struct {
	Rank            int
	Recommendation  domain.Recommendation
	WindowRemaining float64 // hours left of the 72h build window
	Reasons         []string
}

// BuildBriefing picks the top fresh trends not posted by a tracked account:
// age at most 48h and momentum at least 500, highest momentum first, at
// most five. Velocity reasons are only given when history exists.
func BuildBriefing(recs []domain.Recommendation, accounts Accounts, hasVelocity bool) []BriefingItem {
	var fresh []domain.Recommendation
	for _, r := range recs {
		if r.Metrics.AgeHours > briefingMaxAgeHours || r.Metrics.Momentum < briefingMinMomentum {
			continue
		}
		if accounts.IsTracked(r.Record.Author) {
			continue
		}
		fresh = append(fresh, r)
	}

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].Metrics.Momentum > fresh[j].Metrics.Momentum
	})
	if len(fresh) > briefingSize {
		fresh = fresh[:briefingSize]
	}

	items := make([]BriefingItem, len(fresh))
	for i, r := range fresh {
		remaining := math.Max(0, buildWindowHours-round1(r.Metrics.AgeHours))
		items[i] = BriefingItem{
			Rank:            i + 1,
			Recommendation:  r,
			WindowRemaining: remaining,
			Reasons:         reasons(r, remaining, hasVelocity),
		}
	}
	return items
}

func reasons(r domain.Recommendation, remaining float64, hasVelocity bool) []string {
	var out []string

	momentum := math.Trunc(r.Metrics.Momentum)
	switch {
	case momentum >= urgentMomentum:
		out = append(out, "URGENT momentum")
	case momentum >= highMomentum:
		out = append(out, "HIGH momentum")
	}

	shares := round1(r.Metrics.SharesPerHour)
	switch {
	case shares >= veryHighSharesPerHr:
		out = append(out, fmt.Sprintf("very high share rate (%s/h)", formatRate(shares)))
	case shares >= strongSharesPerHr:
		out = append(out, fmt.Sprintf("strong share rate (%s/h)", formatRate(shares)))
	}

	if r.Record.Market == domain.MarketBoth {
		out = append(out, "trending in BOTH markets (2x revenue potential)")
	}

	if hasVelocity {
		switch {
		case r.Velocity.Velocity > explosiveVelocity:
			out = append(out, "EXPLOSIVE growth trajectory")
		case r.Velocity.Velocity > strongVelocity:
			out = append(out, "strong upward velocity")
		}
	}

	if remaining < closingWindowHours {
		out = append(out, fmt.Sprintf("only %.0fh left in 72h window", remaining))
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
