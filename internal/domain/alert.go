package domain

import "time"

// AlertPriority grades a tracker alert.
type AlertPriority string

const (
	PriorityUrgent AlertPriority = "URGENT"
	PriorityHigh   AlertPriority = "HIGH"
	PriorityWatch  AlertPriority = "WATCH"
)

// String returns the string representation of AlertPriority.
func (p AlertPriority) String() string {
	return string(p)
}

// Label returns the presentation label.
func (p AlertPriority) Label() string {
	switch p {
	case PriorityUrgent:
		return "🔥 URGENT"
	case PriorityHigh:
		return "⚡ HIGH"
	}
	return "🟡 WATCH"
}

// Color returns the embed color used by chat sinks.
func (p AlertPriority) Color() int {
	switch p {
	case PriorityUrgent:
		return 0xFF0000
	case PriorityHigh:
		return 0xFF8000
	}
	return 0xFFFF00
}

// Alert is emitted once per candidate when it meets the alert criteria.
type Alert struct {
	ID        string        `json:"id"`
	URL       string        `json:"url"`
	Caption   string        `json:"text"`
	Creator   string        `json:"creator"`
	Market    Market        `json:"market"`
	IsAI      bool          `json:"is_ai"`
	Priority  AlertPriority `json:"priority"`
	Check     Check         `json:"check"`
	CreatedAt time.Time     `json:"created_at"`
}

// CycleSummary reports the outcome of one tracker poll cycle.
type CycleSummary struct {
	CycleID      string    `json:"cycle_id"`
	Admitted     int       `json:"new_candidates"`
	AlertsSent   int       `json:"alerts_sent"`
	Removed      int       `json:"removed"`
	TotalTracked int       `json:"total_tracked"`
	Capacity     int       `json:"capacity"`
	FinishedAt   time.Time `json:"finished_at"`
}

// Changed reports whether anything happened worth notifying about.
func (s CycleSummary) Changed() bool {
	return s.Admitted > 0 || s.AlertsSent > 0 || s.Removed > 0
}
