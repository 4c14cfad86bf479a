package extrapolation

import (
	"math"
	"testing"

	"trendbuild/internal/domain"
)

func f(v float64) *float64 { return &v }

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtrapolate_NoHistory(t *testing.T) {
	e := New(DefaultConfig())

	s := e.Extrapolate(1500, nil, nil)

	if s.Velocity != 0 {
		t.Errorf("expected velocity 0, got %v", s.Velocity)
	}
	if s.Acceleration != 0 {
		t.Errorf("expected acceleration 0, got %v", s.Acceleration)
	}
	if s.Confidence != domain.ConfidenceLow {
		t.Errorf("expected LOW confidence, got %s", s.Confidence)
	}
	if s.HasHistory {
		t.Error("expected HasHistory=false")
	}
	if s.Predicted24h != 1500 {
		t.Errorf("expected flat prediction 1500, got %v", s.Predicted24h)
	}
	if s.Trajectory != domain.TrajectoryFlat {
		t.Errorf("expected FLAT, got %s", s.Trajectory)
	}
}

func TestExtrapolate_YesterdayOnly(t *testing.T) {
	e := New(DefaultConfig())

	s := e.Extrapolate(1200, f(950), nil)

	if s.Velocity != 250 {
		t.Errorf("expected velocity 250, got %v", s.Velocity)
	}
	if s.Acceleration != 0 {
		t.Errorf("expected acceleration 0 without two-day history, got %v", s.Acceleration)
	}
	if s.Confidence != domain.ConfidenceMedium {
		t.Errorf("expected MEDIUM confidence, got %s", s.Confidence)
	}
	if s.Trajectory != domain.TrajectoryExplosive {
		t.Errorf("expected EXPLOSIVE, got %s", s.Trajectory)
	}
	if !approxEqual(s.Predicted6h, 1262.5) {
		t.Errorf("expected 6h prediction 1262.5, got %v", s.Predicted6h)
	}
	if !approxEqual(s.Predicted24h, 1450) {
		t.Errorf("expected 24h prediction 1450, got %v", s.Predicted24h)
	}
}

func TestExtrapolate_AccelerationClamped(t *testing.T) {
	e := New(DefaultConfig())

	// velocity today = 500, velocity yesterday = 100 => acceleration 400
	s := e.Extrapolate(1000, f(500), f(400))

	if s.Acceleration != 400 {
		t.Fatalf("expected raw acceleration 400, got %v", s.Acceleration)
	}
	if s.AccelerationCapped != 50 {
		t.Errorf("expected capped acceleration 50, got %v", s.AccelerationCapped)
	}
	if s.Confidence != domain.ConfidenceHigh {
		t.Errorf("expected HIGH confidence, got %s", s.Confidence)
	}
	want24 := 1000 + 500*1.0 + 0.5*50*1.0
	if !approxEqual(s.Predicted24h, want24) {
		t.Errorf("expected 24h prediction %v, got %v", want24, s.Predicted24h)
	}
	want12 := 1000 + 500*0.5 + 0.5*50*0.25
	if !approxEqual(s.Predicted12h, want12) {
		t.Errorf("expected 12h prediction %v, got %v", want12, s.Predicted12h)
	}

	// Large negative acceleration is clamped to -50.
	s = e.Extrapolate(100, f(600), f(100))
	if s.AccelerationCapped != -50 {
		t.Errorf("expected capped acceleration -50, got %v", s.AccelerationCapped)
	}
}

func TestExtrapolate_PredictionFlooredAtZero(t *testing.T) {
	e := New(DefaultConfig())

	s := e.Extrapolate(100, f(900), nil)

	if s.Velocity != -800 {
		t.Fatalf("expected velocity -800, got %v", s.Velocity)
	}
	if s.Predicted24h != 0 {
		t.Errorf("expected 24h prediction floored at 0, got %v", s.Predicted24h)
	}
	if s.Predicted6h != 0 {
		t.Errorf("expected 6h prediction floored at 0, got %v", s.Predicted6h)
	}
	if s.Trajectory != domain.TrajectoryCrashing {
		t.Errorf("expected CRASHING, got %s", s.Trajectory)
	}
}

func TestTrajectory_Bands(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		velocity float64
		want     domain.Trajectory
	}{
		{1000, domain.TrajectoryExplosive},
		{200, domain.TrajectoryExplosive},
		{199.9, domain.TrajectoryStrong},
		{100, domain.TrajectoryStrong},
		{50, domain.TrajectoryModerate},
		{49, domain.TrajectoryFlat},
		{0, domain.TrajectoryFlat},
		{-0.1, domain.TrajectoryDeclining},
		{-50, domain.TrajectoryDeclining},
		{-50.1, domain.TrajectoryCrashing},
	}

	for _, tt := range tests {
		if got := e.Trajectory(tt.velocity); got != tt.want {
			t.Errorf("Trajectory(%v) = %s, want %s", tt.velocity, got, tt.want)
		}
	}
}

func TestExtrapolate_PeakEstimate(t *testing.T) {
	e := New(DefaultConfig())

	// velocity 100, previous velocity 200 => acceleration -100 => peak in 24h
	s := e.Extrapolate(1300, f(1200), f(1000))
	if s.PeakEstimateHours == nil {
		t.Fatal("expected peak estimate")
	}
	if *s.PeakEstimateHours != 24 {
		t.Errorf("expected peak in 24h, got %v", *s.PeakEstimateHours)
	}

	// velocity 100, acceleration -10 => 240h, outside the 72h horizon
	s = e.Extrapolate(1300, f(1200), f(1090))
	if s.PeakEstimateHours != nil {
		t.Errorf("expected no peak estimate beyond horizon, got %v", *s.PeakEstimateHours)
	}

	// acceleration -5 is not strictly below the threshold
	s = e.Extrapolate(1300, f(1200), f(1095))
	if s.PeakEstimateHours != nil {
		t.Errorf("expected no peak estimate at acceleration -5, got %v", *s.PeakEstimateHours)
	}

	// declining velocity never yields a peak
	s = e.Extrapolate(1000, f(1200), f(1300))
	if s.PeakEstimateHours != nil {
		t.Errorf("expected no peak estimate for non-positive velocity")
	}
}

func TestLookup_FirstMatchWins(t *testing.T) {
	l := NewLookup([]domain.SnapshotRow{
		{URL: "a", Momentum: 10},
		{URL: "b", Momentum: 20},
		{URL: "a", Momentum: 99},
		{URL: "c", Momentum: math.NaN()},
	})

	if v, ok := l.Get("a"); !ok || v != 10 {
		t.Errorf("expected a=10, got %v (ok=%v)", v, ok)
	}
	if _, ok := l.Get("c"); ok {
		t.Error("expected NaN row to be skipped")
	}
	if l.Len() != 2 {
		t.Errorf("expected 2 identities, got %d", l.Len())
	}

	var missing *Lookup
	if _, ok := missing.Get("a"); ok {
		t.Error("nil lookup must report unavailable")
	}
}

func TestForIdentity_UsesLookups(t *testing.T) {
	e := New(DefaultConfig())
	yesterday := NewLookup([]domain.SnapshotRow{{URL: "x", Momentum: 800}})

	s := e.ForIdentity("x", 1000, yesterday, nil)
	if s.Velocity != 200 || !s.HasHistory {
		t.Errorf("expected velocity 200 with history, got %v (history=%v)", s.Velocity, s.HasHistory)
	}

	s = e.ForIdentity("y", 1000, yesterday, nil)
	if s.Velocity != 0 || s.HasHistory || s.Confidence != domain.ConfidenceLow {
		t.Errorf("expected no-history state for unknown identity, got %+v", s)
	}
}
