package reporting

import (
	"time"

	"trendbuild/internal/domain"
)

// Report is everything a refresh run hands to its renderers.
type Report struct {
	Run         domain.RunInfo
	GeneratedAt time.Time
	HasHistory  bool // at least one identity had a prior-day snapshot

	// Sorted by opportunity score, highest first.
	Recommendations []domain.Recommendation

	Gaps        []CompetitorGap
	Competitors []CompetitorStats
	HeadToHead  HeadToHead
	Briefing    []BriefingItem
	Windows     []WindowCount
}

// WindowCount is the number of identities in one action window.
type WindowCount struct {
	Window domain.ActionWindow
	Count  int
}

// Build assembles a report from one run's recommendations. recs are
// expected in opportunity order.
func Build(run domain.RunInfo, recs []domain.Recommendation, accounts Accounts, now time.Time) *Report {
	hasHistory := false
	for _, r := range recs {
		if r.Velocity.HasHistory {
			hasHistory = true
			break
		}
	}

	return &Report{
		Run:             run,
		GeneratedAt:     now,
		HasHistory:      hasHistory,
		Recommendations: recs,
		Gaps:            AnalyzeGaps(recs, accounts),
		Competitors:     Breakdown(recs, accounts),
		HeadToHead:      CompareAccounts(recs, accounts),
		Briefing:        BuildBriefing(recs, accounts, hasHistory),
		Windows:         countWindows(recs),
	}
}

// BuildCount returns how many recommendations call for at least one variant.
func (r *Report) BuildCount() int {
	n := 0
	for _, rec := range r.Recommendations {
		if rec.Variants > 0 && !rec.Stop {
			n++
		}
	}
	return n
}

func countWindows(recs []domain.Recommendation) []WindowCount {
	counts := make(map[domain.ActionWindow]int)
	for _, r := range recs {
		counts[r.Window]++
	}

	var out []WindowCount
	for _, w := range domain.AllActionWindows() {
		if n := counts[w]; n > 0 {
			out = append(out, WindowCount{Window: w, Count: n})
		}
	}
	return out
}
