package domain

import (
	"strings"
	"unicode"
)

// ActionWindow is the discrete build-priority state of an identity.
type ActionWindow string

const (
	WindowActNow      ActionWindow = "ACT_NOW"
	WindowSixToTwelve ActionWindow = "SIX_TO_TWELVE_H"
	WindowTwelveTo24  ActionWindow = "TWELVE_TO_24H"
	WindowMonitor     ActionWindow = "MONITOR"
	WindowPeaked      ActionWindow = "PEAKED"
	WindowTooLate     ActionWindow = "TOO_LATE"
	WindowClosing     ActionWindow = "WINDOW_CLOSING"
)

// String returns the string representation of ActionWindow.
func (w ActionWindow) String() string {
	return string(w)
}

// IsValid checks if the action window is a valid value.
func (w ActionWindow) IsValid() bool {
	_, ok := windowLabels[w]
	return ok
}

// Label returns the presentation label. Never use it for comparisons.
func (w ActionWindow) Label() string {
	if l, ok := windowLabels[w]; ok {
		return l
	}
	return string(w)
}

var windowLabels = map[ActionWindow]string{
	WindowActNow:      "🔴 ACT NOW",
	WindowSixToTwelve: "🟠 6-12H",
	WindowTwelveTo24:  "🟡 12-24H",
	WindowMonitor:     "🟢 MONITOR",
	WindowPeaked:      "⚠️ PEAKED",
	WindowTooLate:     "❌ TOO LATE",
	WindowClosing:     "⚠️ WINDOW CLOSING",
}

// AllActionWindows lists every window in priority order.
func AllActionWindows() []ActionWindow {
	return []ActionWindow{
		WindowActNow, WindowSixToTwelve, WindowTwelveTo24, WindowMonitor,
		WindowPeaked, WindowTooLate, WindowClosing,
	}
}

var legacyWindows = map[string]ActionWindow{
	"ACT NOW":        WindowActNow,
	"6-12H":          WindowSixToTwelve,
	"12-24H":         WindowTwelveTo24,
	"MONITOR":        WindowMonitor,
	"PEAKED":         WindowPeaked,
	"TOO LATE":       WindowTooLate,
	"WINDOW CLOSING": WindowClosing,
}

var legacyTrajectories = map[string]Trajectory{
	"EXPLOSIVE": TrajectoryExplosive,
	"STRONG":    TrajectoryStrong,
	"MODERATE":  TrajectoryModerate,
	"FLAT":      TrajectoryFlat,
	"WEAK":      TrajectoryFlat,
	"DECLINING": TrajectoryDeclining,
	"CRASHING":  TrajectoryCrashing,
}

// ParseActionWindow maps a symbolic tag or a legacy decorated label
// (e.g. "🔴 ACT NOW") to its ActionWindow.
func ParseActionWindow(s string) (ActionWindow, bool) {
	key := normalizeLabel(s)
	if w := ActionWindow(key); w.IsValid() {
		return w, true
	}
	w, ok := legacyWindows[key]
	return w, ok
}

// ParseTrajectory maps a symbolic tag or a legacy decorated label to its Trajectory.
func ParseTrajectory(s string) (Trajectory, bool) {
	t, ok := legacyTrajectories[normalizeLabel(s)]
	return t, ok
}

// normalizeLabel strips the leading non-ASCII decoration and surrounding
// whitespace, then upper-cases.
func normalizeLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeftFunc(s, func(r rune) bool { return r > unicode.MaxASCII })
	return strings.ToUpper(strings.TrimSpace(s))
}
