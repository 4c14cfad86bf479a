package domain

// DateLayout is the calendar-date format used for streak last-seen dates
// and snapshot dates.
const DateLayout = "2006-01-02"

// StreakEntry tracks consecutive non-positive velocity runs for one identity.
// Corresponds to the velocity_streaks table.
type StreakEntry struct {
	Streak   int    // consecutive runs with velocity <= 0
	LastSeen string // YYYY-MM-DD of the last run that evaluated the identity; empty for legacy entries
}
