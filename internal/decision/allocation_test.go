package decision

import (
	"math"
	"testing"

	"trendbuild/internal/domain"
)

func TestRecommendVariants_ScenarioA(t *testing.T) {
	got := RecommendVariants(domain.WindowActNow, domain.TrajectoryExplosive, 10, 1200)
	if got != 7 {
		t.Fatalf("expected 7 variants, got %d", got)
	}
}

func TestRecommendVariants_ScenarioB(t *testing.T) {
	got := RecommendVariants(domain.WindowPeaked, domain.TrajectoryDeclining, 30, 2500)
	if got != 0 {
		t.Fatalf("expected 0 variants, got %d", got)
	}
}

func TestRecommendVariants_NormalTier(t *testing.T) {
	tests := []struct {
		window     domain.ActionWindow
		trajectory domain.Trajectory
		age        float64
		want       int
	}{
		{domain.WindowActNow, domain.TrajectoryExplosive, 24, 7},
		{domain.WindowActNow, domain.TrajectoryExplosive, 24.1, 5},
		{domain.WindowActNow, domain.TrajectoryStrong, 5, 5},
		{domain.WindowActNow, domain.TrajectoryModerate, 5, 3},
		{domain.WindowActNow, domain.TrajectoryFlat, 5, 0},
		{domain.WindowSixToTwelve, domain.TrajectoryExplosive, 30, 5},
		{domain.WindowSixToTwelve, domain.TrajectoryStrong, 30, 3},
		{domain.WindowSixToTwelve, domain.TrajectoryModerate, 30, 3},
		{domain.WindowSixToTwelve, domain.TrajectoryFlat, 30, 0},
		{domain.WindowTwelveTo24, domain.TrajectoryExplosive, 30, 0},
		{domain.WindowTwelveTo24, domain.TrajectoryStrong, 30, 3},
		{domain.WindowTwelveTo24, domain.TrajectoryModerate, 30, 2},
		{domain.WindowTwelveTo24, domain.TrajectoryFlat, 30, 1},
		{domain.WindowMonitor, domain.TrajectoryExplosive, 5, 0},
	}

	for _, tt := range tests {
		got := RecommendVariants(tt.window, tt.trajectory, tt.age, 1000)
		if got != tt.want {
			t.Errorf("RecommendVariants(%s, %s, %.1f) = %d, want %d",
				tt.window, tt.trajectory, tt.age, got, tt.want)
		}
	}
}

func TestRecommendVariants_HardStop(t *testing.T) {
	for _, w := range []domain.ActionWindow{domain.WindowPeaked, domain.WindowTooLate, domain.WindowClosing} {
		if got := RecommendVariants(w, domain.TrajectoryExplosive, 5, 90000); got != 0 {
			t.Errorf("window %s: expected 0, got %d", w, got)
		}
	}
	for _, tr := range []domain.Trajectory{domain.TrajectoryDeclining, domain.TrajectoryCrashing} {
		if got := RecommendVariants(domain.WindowActNow, tr, 5, 90000); got != 0 {
			t.Errorf("trajectory %s: expected 0, got %d", tr, got)
		}
	}
}

func TestRecommendVariants_ZeroAtOrPast72h(t *testing.T) {
	for _, w := range domain.AllActionWindows() {
		for _, tr := range []domain.Trajectory{
			domain.TrajectoryExplosive, domain.TrajectoryStrong, domain.TrajectoryModerate, domain.TrajectoryFlat,
		} {
			for _, age := range []float64{72, 72.5, 100, 999, math.NaN()} {
				if got := RecommendVariants(w, tr, age, 1e6); got != 0 {
					t.Errorf("RecommendVariants(%s, %s, %v) = %d, want 0", w, tr, age, got)
				}
			}
		}
	}
}

func TestRecommendVariants_LastChance(t *testing.T) {
	tests := []struct {
		name       string
		window     domain.ActionWindow
		trajectory domain.Trajectory
		age        float64
		momentum   float64
		want       int
	}{
		{"exceptional act now", domain.WindowActNow, domain.TrajectoryExplosive, 60, 5000, 1},
		{"exceptional six to twelve", domain.WindowSixToTwelve, domain.TrajectoryStrong, 71.9, 8000, 1},
		{"momentum too low", domain.WindowActNow, domain.TrajectoryExplosive, 65, 4999, 0},
		{"moderate trajectory", domain.WindowActNow, domain.TrajectoryModerate, 65, 9000, 0},
		{"later window", domain.WindowTwelveTo24, domain.TrajectoryStrong, 65, 9000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RecommendVariants(tt.window, tt.trajectory, tt.age, tt.momentum)
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStopBuilding_Order(t *testing.T) {
	tests := []struct {
		name       string
		window     domain.ActionWindow
		trajectory domain.Trajectory
		age        float64
		streak     int
		wantStop   bool
		wantReason domain.StopReason
	}{
		{"declining first", domain.WindowPeaked, domain.TrajectoryCrashing, 80, 5, true, domain.StopDecliningTrajectory},
		{"window over", domain.WindowTooLate, domain.TrajectoryFlat, 80, 5, true, domain.StopWindowOver},
		{"peaked", domain.WindowPeaked, domain.TrajectoryFlat, 10, 0, true, domain.StopWindowOver},
		{"age", domain.WindowClosing, domain.TrajectoryFlat, 72, 5, true, domain.StopAgeOver72h},
		{"unknown age", domain.WindowMonitor, domain.TrajectoryFlat, math.NaN(), 0, true, domain.StopAgeOver72h},
		{"streak", domain.WindowMonitor, domain.TrajectoryFlat, 10, 2, true, domain.StopVelocityNonPos},
		{"continue", domain.WindowActNow, domain.TrajectoryExplosive, 10, 1, false, domain.StopNone},
		{"closing is not over", domain.WindowClosing, domain.TrajectoryStrong, 61, 0, false, domain.StopNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stop, reason := StopBuilding(tt.window, tt.trajectory, tt.age, tt.streak)
			if stop != tt.wantStop || reason != tt.wantReason {
				t.Errorf("got (%v, %q), want (%v, %q)", stop, reason, tt.wantStop, tt.wantReason)
			}
		})
	}
}

func TestRules_CustomConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StreakStopRuns = 3
	rules := NewRules(cfg)

	if stop, _ := rules.Stop(domain.WindowMonitor, domain.TrajectoryFlat, 10, 2); stop {
		t.Error("streak 2 should not stop with StreakStopRuns=3")
	}
	if stop, reason := rules.Stop(domain.WindowMonitor, domain.TrajectoryFlat, 10, 3); !stop || reason != domain.StopVelocityNonPos {
		t.Errorf("streak 3 should stop, got (%v, %q)", stop, reason)
	}
}
