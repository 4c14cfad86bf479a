package reporting

import (
	"math"
	"sort"
	"strings"

	"trendbuild/internal/domain"
)

// GapType classifies a competitor post.
type GapType string

const (
	GapMissedByYou GapType = "MISSED_BY_YOU"
	GapBothCaught  GapType = "BOTH_CAUGHT"
)

// Estimated revenue per 1000 momentum of a missed trend.
const revenuePerThousandMomentum = 5.0

// CompetitorGap is one competitor post and whether an own account caught
// the same video.
type CompetitorGap struct {
	Competitor             string
	URL                    string
	Caption                string
	Momentum               float64
	SharesPerHour          float64
	AgeHours               float64
	Market                 domain.Market
	IsAI                   bool
	GapType                GapType
	HoursBehind            *float64 // own age minus competitor age; nil when missed
	EstimatedMissedRevenue float64
}

// AnalyzeGaps returns one gap per competitor-authored record, in input order.
func AnalyzeGaps(recs []domain.Recommendation, accounts Accounts) []CompetitorGap {
	own := make(map[string]domain.Recommendation)
	for _, r := range recs {
		if accounts.IsOwn(r.Record.Author) {
			if _, ok := own[r.Record.URL]; !ok {
				own[r.Record.URL] = r
			}
		}
	}

	var gaps []CompetitorGap
	for _, r := range recs {
		if !accounts.IsCompetitor(r.Record.Author) {
			continue
		}

		gap := CompetitorGap{
			Competitor:    r.Record.Author,
			URL:           r.Record.URL,
			Caption:       headRunes(r.Record.Caption, 60),
			Momentum:      r.Metrics.Momentum,
			SharesPerHour: r.Metrics.SharesPerHour,
			AgeHours:      r.Metrics.AgeHours,
			Market:        r.Record.Market,
			IsAI:          r.Record.IsAI,
			GapType:       GapMissedByYou,
		}
		if mine, ok := own[r.Record.URL]; ok {
			behind := mine.Metrics.AgeHours - r.Metrics.AgeHours
			gap.GapType = GapBothCaught
			gap.HoursBehind = &behind
		} else {
			gap.EstimatedMissedRevenue = round2(r.Metrics.Momentum / 1000 * revenuePerThousandMomentum)
		}
		gaps = append(gaps, gap)
	}
	return gaps
}

// HeadToHead compares own and competitor posts in one run.
type HeadToHead struct {
	OwnPosts                int
	CompetitorPosts         int
	OwnAvgMomentum          float64
	CompetitorAvgMomentum   float64
	OwnTotalMomentum        float64
	CompetitorTotalMomentum float64
}

// CompareAccounts computes head-to-head totals and means.
func CompareAccounts(recs []domain.Recommendation, accounts Accounts) HeadToHead {
	var h HeadToHead
	for _, r := range recs {
		switch {
		case accounts.IsOwn(r.Record.Author):
			h.OwnPosts++
			h.OwnTotalMomentum += r.Metrics.Momentum
		case accounts.IsCompetitor(r.Record.Author):
			h.CompetitorPosts++
			h.CompetitorTotalMomentum += r.Metrics.Momentum
		}
	}
	if h.OwnPosts > 0 {
		h.OwnAvgMomentum = h.OwnTotalMomentum / float64(h.OwnPosts)
	}
	if h.CompetitorPosts > 0 {
		h.CompetitorAvgMomentum = h.CompetitorTotalMomentum / float64(h.CompetitorPosts)
	}
	return h
}

// MissedRevenue sums the estimated revenue of every missed gap.
func MissedRevenue(gaps []CompetitorGap) float64 {
	total := 0.0
	for _, g := range gaps {
		total += g.EstimatedMissedRevenue
	}
	return round2(total)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// CompetitorStats summarizes one competitor account's trending posts.
type CompetitorStats struct {
	Account       string
	Posts         int
	AvgMomentum   float64
	MaxMomentum   float64
	TotalMomentum float64
}

// Breakdown groups competitor posts by account, highest total momentum first.
// Accounts are grouped case-insensitively under the first spelling seen.
func Breakdown(recs []domain.Recommendation, accounts Accounts) []CompetitorStats {
	index := make(map[string]int)
	var out []CompetitorStats
	for _, r := range recs {
		if !accounts.IsCompetitor(r.Record.Author) {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(r.Record.Author))
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, CompetitorStats{Account: r.Record.Author})
		}
		s := &out[i]
		s.Posts++
		s.TotalMomentum += r.Metrics.Momentum
		if s.Posts == 1 || r.Metrics.Momentum > s.MaxMomentum {
			s.MaxMomentum = r.Metrics.Momentum
		}
	}
	for i := range out {
		out[i].AvgMomentum = out[i].TotalMomentum / float64(out[i].Posts)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TotalMomentum > out[j].TotalMomentum
	})
	return out
}

// Missed returns the MISSED_BY_YOU gaps, highest momentum first.
func Missed(gaps []CompetitorGap) []CompetitorGap {
	var out []CompetitorGap
	for _, g := range gaps {
		if g.GapType == GapMissedByYou {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Momentum > out[j].Momentum
	})
	return out
}
