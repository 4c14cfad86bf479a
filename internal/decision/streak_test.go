package decision

import (
	"math"
	"testing"
)

func TestNextStreak(t *testing.T) {
	tests := []struct {
		name     string
		prev     int
		velocity float64
		want     int
	}{
		{"positive resets", 4, 0.01, 0},
		{"zero increments", 0, 0, 1},
		{"negative increments", 1, -30, 2},
		{"nan holds", 3, math.NaN(), 3},
		{"inf holds", 3, math.Inf(1), 3},
		{"negative inf holds", 3, math.Inf(-1), 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextStreak(tt.prev, tt.velocity); got != tt.want {
				t.Errorf("NextStreak(%d, %v) = %d, want %d", tt.prev, tt.velocity, got, tt.want)
			}
		})
	}
}

func TestNextStreak_Sequence(t *testing.T) {
	streak := 0
	for i, v := range []float64{-1, 0, -5} {
		streak = NextStreak(streak, v)
		if streak != i+1 {
			t.Fatalf("run %d: expected streak %d, got %d", i, i+1, streak)
		}
	}

	streak = NextStreak(streak, 12)
	if streak != 0 {
		t.Fatalf("expected reset to 0 after positive velocity, got %d", streak)
	}
}

func TestParseVelocity(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"+8,747/day", 8747},
		{"32.9h", 32.9},
		{"-12", -12},
		{" 0 ", 0},
		{"250 per day", 250},
	}

	for _, tt := range tests {
		if got := ParseVelocity(tt.in); got != tt.want {
			t.Errorf("ParseVelocity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "n/a", "fast"} {
		if got := ParseVelocity(bad); !math.IsNaN(got) {
			t.Errorf("ParseVelocity(%q) = %v, want NaN", bad, got)
		}
	}
}
