package decision

import (
	"math"
	"strconv"
	"strings"
)

// NextStreak advances a non-positive velocity streak by one observation.
// Positive velocity resets it, zero or negative velocity extends it, and an
// unparsable velocity (NaN or ±Inf) holds the previous value.
func NextStreak(prev int, velocity float64) int {
	if math.IsNaN(velocity) || math.IsInf(velocity, 0) {
		return prev
	}
	if velocity > 0 {
		return 0
	}
	return prev + 1
}

var velocityNoise = strings.NewReplacer(",", "", "/day", "", "per day", "", "h", "")

// ParseVelocity parses velocity text from imported sheets such as
// "+8,747/day", "32.9h" or "-12". Returns NaN when the text is not a number.
func ParseVelocity(s string) float64 {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return math.NaN()
	}
	s = strings.TrimSpace(velocityNoise.Replace(s))
	s = strings.TrimPrefix(s, "+")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
