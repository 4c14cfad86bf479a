package feed

import "testing"

func TestDetectAI(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"New CapCut AI template", true},
		{"this ai filter is wild", true},
		{"KI Filter Vorlage", true},
		{"ia filtro nuevo", true},
		{"AI", true},
		{"best ai.", true},
		{"hair transformation", false},
		{"airdrop trend", false},
		{"kiwi challenge", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := DetectAI(tt.text); got != tt.want {
			t.Errorf("DetectAI(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
