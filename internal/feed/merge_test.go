package feed

import (
	"testing"

	"trendbuild/internal/domain"
)

func TestMergeMarkets(t *testing.T) {
	us := []map[string]any{
		{"webVideoUrl": "both", "shareCount": 1.0, "text": "us copy"},
		{"webVideoUrl": "us-only", "text": "ai filter"},
		{"text": "no url"},
		{"webVideoUrl": "both", "shareCount": 99.0},
	}
	uk := []map[string]any{
		{"webVideoUrl": "uk-only"},
		{"webVideoUrl": "both", "shareCount": 2.0, "text": "uk copy"},
	}

	got := MergeMarkets(DefaultSchema(), us, uk)

	want := []struct {
		url    string
		market domain.Market
	}{
		{"both", domain.MarketBoth},
		{"us-only", domain.MarketUS},
		{"uk-only", domain.MarketUK},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d records, got %d", len(want), len(got))
	}
	for i, w := range want {
		if got[i].URL != w.url || got[i].Market != w.market {
			t.Errorf("record %d = (%s, %s), want (%s, %s)", i, got[i].URL, got[i].Market, w.url, w.market)
		}
	}

	if got[0].Shares != 1 || got[0].Caption != "us copy" {
		t.Errorf("first occurrence should win, got shares=%v caption=%q", got[0].Shares, got[0].Caption)
	}
	if !got[1].IsAI {
		t.Error("us-only record should be flagged AI")
	}
}

func TestMergeMarkets_Empty(t *testing.T) {
	if got := MergeMarkets(DefaultSchema(), nil, nil); len(got) != 0 {
		t.Errorf("expected empty batch, got %d", len(got))
	}
}
