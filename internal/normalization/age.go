package normalization

import (
	"strconv"
	"strings"
	"time"
)

// naiveLayouts are tried after RFC 3339. Layouts without an offset are
// interpreted as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses an ISO-8601 publish timestamp with or without an
// explicit offset, or a numeric Unix timestamp in seconds or milliseconds.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}

	if n, err := strconv.ParseFloat(s, 64); err == nil && n > 0 {
		if n >= 1e12 {
			return time.UnixMilli(int64(n)).UTC(), true
		}
		return time.Unix(int64(n), 0).UTC(), true
	}

	return time.Time{}, false
}

// AgeHours returns hours elapsed since the publish timestamp, floored at
// MinAgeHours. Missing or unparsable timestamps yield UnknownAgeHours so the
// record sorts to the bottom of every priority ladder.
func AgeHours(createdAt string, now time.Time) float64 {
	t, ok := ParseTimestamp(createdAt)
	if !ok {
		return UnknownAgeHours
	}
	age := now.Sub(t).Hours()
	if age < MinAgeHours {
		return MinAgeHours
	}
	return age
}
