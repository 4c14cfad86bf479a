package storage

import (
	"time"

	"trendbuild/internal/domain"
)

// StreakCutoff returns the oldest last-seen date kept for a run on runDate.
func StreakCutoff(runDate time.Time, ttlDays int) string {
	return runDate.AddDate(0, 0, -ttlDays).Format(domain.DateLayout)
}

// KeepStreak reports whether an entry survives pruning at cutoff.
// Entries without a parsable last-seen date are kept.
func KeepStreak(e domain.StreakEntry, cutoff string) bool {
	if e.LastSeen == "" {
		return true
	}
	seen, err := time.Parse(domain.DateLayout, e.LastSeen)
	if err != nil {
		return true
	}
	limit, err := time.Parse(domain.DateLayout, cutoff)
	if err != nil {
		return true
	}
	return !seen.Before(limit)
}

// PruneStreaks removes expired entries from entries in place and returns the
// number removed.
func PruneStreaks(entries map[string]domain.StreakEntry, cutoff string) int {
	removed := 0
	for url, e := range entries {
		if !KeepStreak(e, cutoff) {
			delete(entries, url)
			removed++
		}
	}
	return removed
}
