package reporting

import (
	"math"
	"strings"
	"testing"
	"time"

	"trendbuild/internal/domain"
)

var testNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func rec(url, author string, age, momentum, sharesPerHour float64) domain.Recommendation {
	return domain.Recommendation{
		Record: domain.MetricRecord{
			URL:     url,
			Author:  author,
			Caption: "caption for " + url,
			Market:  domain.MarketUS,
		},
		Metrics: domain.NormalizedMetrics{
			AgeHours:      age,
			SharesPerHour: sharesPerHour,
			Momentum:      momentum,
		},
		Velocity: domain.VelocityState{
			Trajectory: domain.TrajectoryFlat,
			Confidence: domain.ConfidenceLow,
		},
		Window: domain.WindowMonitor,
	}
}

func testAccounts() Accounts {
	return Accounts{
		Own:         []string{"ownone", "owntwo"},
		Competitors: []string{"rivalone", "rivaltwo"},
	}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestAccounts_CaseInsensitive(t *testing.T) {
	a := testAccounts()
	if !a.IsOwn("OwnOne") {
		t.Error("expected OwnOne to be own")
	}
	if !a.IsCompetitor(" RIVALTWO ") {
		t.Error("expected RIVALTWO to be a competitor")
	}
	if a.IsTracked("someone") || a.IsTracked("") {
		t.Error("untracked author reported as tracked")
	}
}

func TestAnalyzeGaps(t *testing.T) {
	recs := []domain.Recommendation{
		rec("u1", "RivalOne", 4, 1000, 10),
		rec("u1", "ownone", 10, 1000, 10),
		rec("u2", "rivaltwo", 8, 2500, 30),
		rec("u3", "stranger", 2, 9000, 90),
	}

	gaps := AnalyzeGaps(recs, testAccounts())
	if len(gaps) != 2 {
		t.Fatalf("expected 2 gaps, got %d", len(gaps))
	}

	caught := gaps[0]
	if caught.GapType != GapBothCaught {
		t.Errorf("u1: expected BOTH_CAUGHT, got %s", caught.GapType)
	}
	if caught.HoursBehind == nil || !approx(*caught.HoursBehind, 6) {
		t.Errorf("u1: expected 6 hours behind, got %v", caught.HoursBehind)
	}
	if caught.EstimatedMissedRevenue != 0 {
		t.Errorf("u1: expected no missed revenue, got %f", caught.EstimatedMissedRevenue)
	}

	missed := gaps[1]
	if missed.GapType != GapMissedByYou {
		t.Errorf("u2: expected MISSED_BY_YOU, got %s", missed.GapType)
	}
	if missed.HoursBehind != nil {
		t.Errorf("u2: expected nil hours behind, got %v", *missed.HoursBehind)
	}
	if !approx(missed.EstimatedMissedRevenue, 12.5) {
		t.Errorf("u2: expected revenue 12.5, got %f", missed.EstimatedMissedRevenue)
	}
	if !approx(MissedRevenue(gaps), 12.5) {
		t.Errorf("expected total missed revenue 12.5, got %f", MissedRevenue(gaps))
	}
}

func TestAnalyzeGaps_TruncatesCaption(t *testing.T) {
	r := rec("u1", "rivalone", 4, 1000, 10)
	r.Record.Caption = strings.Repeat("é", 80)

	gaps := AnalyzeGaps([]domain.Recommendation{r}, testAccounts())
	if got := len([]rune(gaps[0].Caption)); got != 60 {
		t.Errorf("expected 60 runes, got %d", got)
	}
}

func TestCompareAccounts(t *testing.T) {
	recs := []domain.Recommendation{
		rec("a", "ownone", 5, 1000, 0),
		rec("b", "owntwo", 5, 3000, 0),
		rec("c", "rivalone", 5, 600, 0),
		rec("d", "stranger", 5, 9999, 0),
	}

	h := CompareAccounts(recs, testAccounts())
	if h.OwnPosts != 2 || h.CompetitorPosts != 1 {
		t.Fatalf("unexpected post counts: own=%d competitor=%d", h.OwnPosts, h.CompetitorPosts)
	}
	if !approx(h.OwnAvgMomentum, 2000) || !approx(h.OwnTotalMomentum, 4000) {
		t.Errorf("unexpected own momentum: avg=%f total=%f", h.OwnAvgMomentum, h.OwnTotalMomentum)
	}
	if !approx(h.CompetitorAvgMomentum, 600) {
		t.Errorf("unexpected competitor avg: %f", h.CompetitorAvgMomentum)
	}
}

func TestCompareAccounts_Empty(t *testing.T) {
	h := CompareAccounts(nil, testAccounts())
	if h != (HeadToHead{}) {
		t.Errorf("expected zero head-to-head, got %+v", h)
	}
}

func TestBreakdown(t *testing.T) {
	recs := []domain.Recommendation{
		rec("a", "rivalone", 5, 100, 0),
		rec("b", "rivaltwo", 5, 900, 0),
		rec("c", "RIVALONE", 5, 300, 0),
	}

	stats := Breakdown(recs, testAccounts())
	if len(stats) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(stats))
	}
	if stats[0].Account != "rivaltwo" {
		t.Errorf("expected rivaltwo first, got %s", stats[0].Account)
	}
	one := stats[1]
	if one.Posts != 2 || !approx(one.MaxMomentum, 300) || !approx(one.AvgMomentum, 200) {
		t.Errorf("unexpected rivalone stats: %+v", one)
	}
}

func TestBuildBriefing_Filters(t *testing.T) {
	recs := []domain.Recommendation{
		rec("old", "x", 49, 5000, 0),
		rec("weak", "x", 5, 499, 0),
		rec("own", "OWNONE", 5, 5000, 0),
		rec("rival", "rivaltwo", 5, 5000, 0),
		rec("keep", "x", 48, 500, 0),
	}

	items := BuildBriefing(recs, testAccounts(), false)
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Recommendation.Record.URL != "keep" {
		t.Errorf("expected keep, got %s", items[0].Recommendation.Record.URL)
	}
	if items[0].WindowRemaining != 24 {
		t.Errorf("expected 24h remaining, got %f", items[0].WindowRemaining)
	}
}

func TestBuildBriefing_TopFiveByMomentum(t *testing.T) {
	var recs []domain.Recommendation
	for i, m := range []float64{600, 900, 700, 900, 800, 1000, 650} {
		recs = append(recs, rec(string(rune('a'+i)), "x", 5, m, 0))
	}

	items := BuildBriefing(recs, testAccounts(), false)
	if len(items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(items))
	}
	want := []string{"f", "b", "d", "e", "c"}
	for i, item := range items {
		if item.Rank != i+1 {
			t.Errorf("item %d: expected rank %d, got %d", i, i+1, item.Rank)
		}
		if item.Recommendation.Record.URL != want[i] {
			t.Errorf("item %d: expected %s, got %s", i, want[i], item.Recommendation.Record.URL)
		}
	}
}

func TestBuildBriefing_Reasons(t *testing.T) {
	r := rec("u", "x", 10, 3200, 120)
	r.Record.Market = domain.MarketBoth
	r.Velocity.Velocity = 250

	items := BuildBriefing([]domain.Recommendation{r}, testAccounts(), true)
	want := []string{
		"URGENT momentum",
		"very high share rate (120.0/h)",
		"trending in BOTH markets (2x revenue potential)",
		"EXPLOSIVE growth trajectory",
	}
	if got := items[0].Reasons; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("reasons = %q, want %q", got, want)
	}

	items = BuildBriefing([]domain.Recommendation{r}, testAccounts(), false)
	for _, reason := range items[0].Reasons {
		if strings.Contains(reason, "velocity") || strings.Contains(reason, "EXPLOSIVE") {
			t.Errorf("unexpected velocity reason without history: %q", reason)
		}
	}
}

func TestBuildBriefing_ModerateReasons(t *testing.T) {
	r := rec("u", "x", 10, 2100, 30)
	r.Velocity.Velocity = 150

	items := BuildBriefing([]domain.Recommendation{r}, testAccounts(), true)
	want := "HIGH momentum|strong share rate (30.0/h)|strong upward velocity"
	if got := strings.Join(items[0].Reasons, "|"); got != want {
		t.Errorf("reasons = %q, want %q", got, want)
	}
}

func TestBuild(t *testing.T) {
	a := rec("a", "x", 5, 1000, 0)
	a.Window = domain.WindowActNow
	a.Variants = 7
	a.Velocity.HasHistory = true
	b := rec("b", "rivalone", 5, 800, 0)
	c := rec("c", "x", 70, 100, 0)
	c.Window = domain.WindowTooLate
	c.Stop = true
	c.Variants = 1

	run := domain.RunInfo{RunID: "run-1", RunDate: "2026-03-14", RunAt: testNow}
	r := Build(run, []domain.Recommendation{a, b, c}, testAccounts(), testNow)

	if !r.HasHistory {
		t.Error("expected HasHistory")
	}
	if r.BuildCount() != 1 {
		t.Errorf("expected 1 building, got %d", r.BuildCount())
	}
	if len(r.Gaps) != 1 || len(r.Competitors) != 1 {
		t.Errorf("expected one gap and one competitor, got %d and %d", len(r.Gaps), len(r.Competitors))
	}

	wantWindows := []WindowCount{
		{Window: domain.WindowActNow, Count: 1},
		{Window: domain.WindowMonitor, Count: 1},
		{Window: domain.WindowTooLate, Count: 1},
	}
	if len(r.Windows) != len(wantWindows) {
		t.Fatalf("expected %d window counts, got %d", len(wantWindows), len(r.Windows))
	}
	for i, w := range wantWindows {
		if r.Windows[i] != w {
			t.Errorf("window %d: got %+v, want %+v", i, r.Windows[i], w)
		}
	}
}
