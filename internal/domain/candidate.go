package domain

import "time"

// Check is one point-in-time measurement of a tracked candidate.
type Check struct {
	Timestamp     time.Time `json:"timestamp"`
	AgeHours      float64   `json:"age_hours"`
	SharesPerHour float64   `json:"shares_per_hour"`
	ViewsPerHour  float64   `json:"views_per_hour"`
	Momentum      float64   `json:"momentum"`
	DeltaShares   *float64  `json:"delta_shares_per_hour"` // nil on the admission check
}

// Candidate is an identity under short-interval tracking.
// Created on admission, mutated every cycle it is present, destroyed on eviction.
type Candidate struct {
	URL                       string    `json:"url"`
	FirstSeen                 time.Time `json:"first_seen"`
	Market                    Market    `json:"market"`
	Caption                   string    `json:"text"`
	Creator                   string    `json:"creator"`
	Checks                    []Check   `json:"checks"`
	ConsecutiveMisses         int       `json:"consecutive_misses"`
	ConsecutiveNegativeDeltas int       `json:"consecutive_negative_deltas"`
	Alerted                   bool      `json:"alerted"`
}

// LastCheck returns the most recent check, or nil if there is none.
func (c *Candidate) LastCheck() *Check {
	if len(c.Checks) == 0 {
		return nil
	}
	return &c.Checks[len(c.Checks)-1]
}

// Clone returns a deep copy of the candidate.
func (c *Candidate) Clone() *Candidate {
	cp := *c
	cp.Checks = make([]Check, len(c.Checks))
	for i, ch := range c.Checks {
		cp.Checks[i] = ch
		if ch.DeltaShares != nil {
			d := *ch.DeltaShares
			cp.Checks[i].DeltaShares = &d
		}
	}
	return &cp
}

// CandidateState is the tracker's whole persisted state.
// Read once at cycle start, written once at cycle end.
type CandidateState struct {
	LastUpdated *time.Time   `json:"last_updated"`
	Candidates  []*Candidate `json:"candidates"`
}

// Clone returns a deep copy of the state.
func (s *CandidateState) Clone() *CandidateState {
	if s == nil {
		return &CandidateState{}
	}
	cp := &CandidateState{Candidates: make([]*Candidate, 0, len(s.Candidates))}
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		cp.LastUpdated = &t
	}
	for _, c := range s.Candidates {
		if c == nil {
			continue
		}
		cp.Candidates = append(cp.Candidates, c.Clone())
	}
	return cp
}

// CheckRecord is one tracker check as stored in check history.
type CheckRecord struct {
	CycleID string
	URL     string
	Market  Market
	Check
}
