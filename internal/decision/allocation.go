package decision

import (
	"math"

	"trendbuild/internal/domain"
)

// unknownAge stands in for a missing age so every age gate treats it as too old.
const unknownAge = 999999.0

// allocationRule is one row of the normal-tier variant table.
type allocationRule struct {
	window       domain.ActionWindow
	trajectories []domain.Trajectory
	freshOnly    bool // age must be within Config.FreshAgeHours
	variants     int
}

// normalTier is evaluated top to bottom; the first matching row wins.
var normalTier = []allocationRule{
	{domain.WindowActNow, []domain.Trajectory{domain.TrajectoryExplosive}, true, 7},
	{domain.WindowActNow, []domain.Trajectory{domain.TrajectoryExplosive, domain.TrajectoryStrong}, false, 5},
	{domain.WindowActNow, []domain.Trajectory{domain.TrajectoryModerate}, false, 3},
	{domain.WindowSixToTwelve, []domain.Trajectory{domain.TrajectoryExplosive}, false, 5},
	{domain.WindowSixToTwelve, []domain.Trajectory{domain.TrajectoryStrong, domain.TrajectoryModerate}, false, 3},
	{domain.WindowTwelveTo24, []domain.Trajectory{domain.TrajectoryStrong}, false, 3},
	{domain.WindowTwelveTo24, []domain.Trajectory{domain.TrajectoryModerate}, false, 2},
	{domain.WindowTwelveTo24, []domain.Trajectory{domain.TrajectoryFlat}, false, 1},
}

// Rules evaluates the variant table and the stop rules.
type Rules struct {
	config Config
}

// NewRules creates Rules from config.
func NewRules(config Config) *Rules {
	return &Rules{config: config}
}

var defaultRules = NewRules(DefaultConfig())

// RecommendVariants returns the variant count under the production thresholds.
func RecommendVariants(window domain.ActionWindow, trajectory domain.Trajectory, ageHours, momentum float64) int {
	return defaultRules.Variants(window, trajectory, ageHours, momentum)
}

// StopBuilding returns the stop decision under the production thresholds.
func StopBuilding(window domain.ActionWindow, trajectory domain.Trajectory, ageHours float64, streak int) (bool, domain.StopReason) {
	return defaultRules.Stop(window, trajectory, ageHours, streak)
}

// Variants returns how many content variants to build (0, 1, 2, 3, 5 or 7).
func (r *Rules) Variants(window domain.ActionWindow, trajectory domain.Trajectory, ageHours, momentum float64) int {
	age := knownAge(ageHours)
	if math.IsNaN(momentum) {
		momentum = 0
	}

	switch window {
	case domain.WindowPeaked, domain.WindowTooLate, domain.WindowClosing:
		return 0
	}
	if trajectory.IsDeclining() || age >= r.config.HardStopAgeHours {
		return 0
	}

	if age >= r.config.LastChanceAgeHours {
		urgent := window == domain.WindowActNow || window == domain.WindowSixToTwelve
		strong := trajectory == domain.TrajectoryExplosive || trajectory == domain.TrajectoryStrong
		if urgent && strong && momentum >= r.config.LastChanceMomentum {
			return 1
		}
		return 0
	}

	for _, rule := range normalTier {
		if rule.window != window || !containsTrajectory(rule.trajectories, trajectory) {
			continue
		}
		if rule.freshOnly && age > r.config.FreshAgeHours {
			continue
		}
		return rule.variants
	}
	return 0
}

// Stop decides whether to stop building. Reasons are checked in order:
// declining trajectory, window over, age, then the non-positive streak.
func (r *Rules) Stop(window domain.ActionWindow, trajectory domain.Trajectory, ageHours float64, streak int) (bool, domain.StopReason) {
	switch {
	case trajectory.IsDeclining():
		return true, domain.StopDecliningTrajectory
	case window == domain.WindowPeaked || window == domain.WindowTooLate:
		return true, domain.StopWindowOver
	case knownAge(ageHours) >= r.config.HardStopAgeHours:
		return true, domain.StopAgeOver72h
	case streak >= r.config.StreakStopRuns:
		return true, domain.StopVelocityNonPos
	}
	return false, domain.StopNone
}

func knownAge(age float64) float64 {
	if math.IsNaN(age) {
		return unknownAge
	}
	return age
}

func containsTrajectory(list []domain.Trajectory, t domain.Trajectory) bool {
	for _, x := range list {
		if x == t {
			return true
		}
	}
	return false
}
