package reporting

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"trendbuild/internal/domain"
)

const missedListSize = 5

// RenderBriefing renders the daily briefing as Markdown.
func RenderBriefing(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString(fmt.Sprintf("# Daily Briefing %s\n\n", r.Run.RunDate))
	sb.WriteString(fmt.Sprintf("Run: `%s` | Generated: %s\n\n", r.Run.RunID, r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("Identities: %d | Building: %d\n\n", len(r.Recommendations), r.BuildCount()))

	writeActions(&sb, r)
	writeCompetitors(&sb, r)
	writeWindows(&sb, r)
	writeNextSteps(&sb, r)

	return sb.String()
}

func writeActions(sb *strings.Builder, r *Report) {
	sb.WriteString("## Immediate Actions\n\n")
	if len(r.Briefing) == 0 {
		sb.WriteString("No high-priority trends found meeting criteria (age <48h, momentum >=500).\n\n")
		return
	}

	for _, item := range r.Briefing {
		rec := item.Recommendation
		sb.WriteString(fmt.Sprintf("### %d. %s\n\n", item.Rank, headRunes(rec.Record.Caption, 60)))
		sb.WriteString(fmt.Sprintf("- Creator: %s | %s\n", creator(rec.Record.Author), rec.Record.Market.Label()))
		sb.WriteString(fmt.Sprintf("- Momentum: %s | Shares/h: %s\n",
			commas(rec.Metrics.Momentum), formatRate(round1(rec.Metrics.SharesPerHour))))
		sb.WriteString(fmt.Sprintf("- Age: %sh | Window: %.0fh remaining\n",
			formatRate(round1(rec.Metrics.AgeHours)), item.WindowRemaining))
		if r.HasHistory {
			sb.WriteString(fmt.Sprintf("- Velocity: %s/day | Predicted 24h: %s\n",
				signed(rec.Velocity.Velocity), commas(rec.Velocity.Predicted24h)))
			sb.WriteString(fmt.Sprintf("- Action: %s | Trajectory: %s\n",
				rec.Window.Label(), rec.Velocity.Trajectory.Label()))
		}
		if len(item.Reasons) > 0 {
			sb.WriteString(fmt.Sprintf("- Why: %s\n", strings.Join(item.Reasons, "; ")))
		}
		sb.WriteString("\n")
	}
}

func writeCompetitors(sb *strings.Builder, r *Report) {
	h := r.HeadToHead
	sb.WriteString("## Competitor Analysis\n\n")
	sb.WriteString(fmt.Sprintf("Your posts in trending: %d\n\n", h.OwnPosts))
	sb.WriteString(fmt.Sprintf("Competitor posts in trending: %d\n\n", h.CompetitorPosts))

	if h.CompetitorPosts == 0 {
		sb.WriteString("No competitor posts found in today's trending data.\n\n")
		return
	}

	sb.WriteString("### Breakdown\n\n")
	sb.WriteString("| Account | Posts | Avg Momentum | Best |\n")
	sb.WriteString("|---------|-------|--------------|------|\n")
	for _, c := range r.Competitors {
		sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s |\n",
			c.Account, c.Posts, commas(c.AvgMomentum), commas(c.MaxMomentum)))
	}
	sb.WriteString("\n")

	sb.WriteString("### Gaps\n\n")
	missed := Missed(r.Gaps)
	if len(missed) == 0 {
		sb.WriteString("None. You covered every trend they did.\n\n")
	} else {
		if len(missed) > missedListSize {
			missed = missed[:missedListSize]
		}
		for _, g := range missed {
			sb.WriteString(fmt.Sprintf("- %s\n", headRunes(g.Caption, 50)))
			sb.WriteString(fmt.Sprintf("  By: %s | Momentum: %s | Age: %sh | Est. missed: £%.0f\n",
				g.Competitor, commas(g.Momentum), formatRate(round1(g.AgeHours)), g.EstimatedMissedRevenue))
		}
		sb.WriteString(fmt.Sprintf("\nTotal estimated missed revenue: £%.0f\n\n", MissedRevenue(r.Gaps)))
	}

	sb.WriteString("### Head to Head\n\n")
	sb.WriteString("| Metric | You | Competitors |\n")
	sb.WriteString("|--------|-----|-------------|\n")
	sb.WriteString(fmt.Sprintf("| Posts in trending | %d | %d |\n", h.OwnPosts, h.CompetitorPosts))
	sb.WriteString(fmt.Sprintf("| Avg momentum | %s | %s |\n", commas(h.OwnAvgMomentum), commas(h.CompetitorAvgMomentum)))
	sb.WriteString(fmt.Sprintf("| Total momentum | %s | %s |\n", commas(h.OwnTotalMomentum), commas(h.CompetitorTotalMomentum)))
	sb.WriteString("\n")

	own, comp := math.Trunc(h.OwnTotalMomentum), math.Trunc(h.CompetitorTotalMomentum)
	switch {
	case own > comp:
		sb.WriteString(fmt.Sprintf("You're WINNING overall (%s vs %s)\n\n", commas(own), commas(comp)))
	case comp > own:
		sb.WriteString(fmt.Sprintf("Competitors AHEAD (%s vs %s)\n\n", commas(comp), commas(own)))
	default:
		sb.WriteString("Even match\n\n")
	}
}

func writeWindows(sb *strings.Builder, r *Report) {
	sb.WriteString("## Action Windows\n\n")
	if len(r.Windows) == 0 {
		sb.WriteString("No identities evaluated.\n\n")
		return
	}
	sb.WriteString("| Window | Count |\n")
	sb.WriteString("|--------|-------|\n")
	for _, w := range r.Windows {
		sb.WriteString(fmt.Sprintf("| %s | %d |\n", w.Window.Label(), w.Count))
	}
	sb.WriteString("\n")
}

func writeNextSteps(sb *strings.Builder, r *Report) {
	var steps []string
	if len(r.Briefing) > 0 {
		top := headRunes(r.Briefing[0].Recommendation.Record.Caption, 40)
		steps = append(steps, fmt.Sprintf("BUILD NOW: start with %q, the highest priority opportunity", top))
	}
	if n := len(Missed(r.Gaps)); n > 0 {
		steps = append(steps, fmt.Sprintf("Check %d trends competitors caught that you missed", n))
	}
	if r.HeadToHead.OwnPosts == 0 {
		steps = append(steps, "None of your posts are in today's trending, check the posting schedule")
	}
	if r.HasHistory {
		explosive := 0
		for _, rec := range r.Recommendations {
			if rec.Velocity.Trajectory == domain.TrajectoryExplosive {
				explosive++
			}
		}
		if explosive > 0 {
			steps = append(steps, fmt.Sprintf("%d EXPLOSIVE trajectories detected, these will peak within 24h", explosive))
		}
	}
	if len(steps) == 0 {
		steps = append(steps, "Continue monitoring, no urgent action items today")
	}

	sb.WriteString("## Recommendations\n\n")
	for i, s := range steps {
		sb.WriteString(fmt.Sprintf("%d. %s\n", i+1, s))
	}
}

func creator(author string) string {
	if strings.TrimSpace(author) == "" {
		return "Unknown"
	}
	return headRunes(author, 20)
}

// commas formats the integer part of v with thousands separators.
func commas(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	n := int64(math.Trunc(v))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	s := strconv.FormatInt(n, 10)
	var out []byte
	for i := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, s[i])
	}
	return sign + string(out)
}

func signed(v float64) string {
	if v >= 0 {
		return "+" + commas(math.Round(v))
	}
	return commas(math.Round(v))
}
