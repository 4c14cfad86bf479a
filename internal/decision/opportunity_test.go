package decision

import (
	"math"
	"testing"

	"trendbuild/internal/domain"
)

func TestOpportunityScore(t *testing.T) {
	// (1450-1200)*0.5 + 250*0.3 + (72-10)*10 = 125 + 75 + 620 = 820, x1.5 = 1230
	got := OpportunityScore(domain.WindowActNow, 1200, 250, 1450, 10)
	if math.Abs(got-1230) > 1e-9 {
		t.Errorf("expected 1230, got %f", got)
	}

	got = OpportunityScore(domain.WindowMonitor, 1200, 250, 1450, 10)
	if math.Abs(got-820) > 1e-9 {
		t.Errorf("expected 820, got %f", got)
	}

	// Age beyond the horizon contributes nothing.
	got = OpportunityScore(domain.WindowMonitor, 100, 0, 100, 999)
	if got != 0 {
		t.Errorf("expected 0, got %f", got)
	}
}

func TestSortByOpportunity(t *testing.T) {
	recs := []domain.Recommendation{
		{Record: domain.MetricRecord{URL: "low"}, OpportunityScore: 10},
		{Record: domain.MetricRecord{URL: "tie-1"}, OpportunityScore: 50},
		{Record: domain.MetricRecord{URL: "high"}, OpportunityScore: 90},
		{Record: domain.MetricRecord{URL: "tie-2"}, OpportunityScore: 50},
	}

	SortByOpportunity(recs)

	want := []string{"high", "tie-1", "tie-2", "low"}
	for i, url := range want {
		if recs[i].Record.URL != url {
			t.Errorf("recs[%d] = %s, want %s", i, recs[i].Record.URL, url)
		}
	}
}
