package tracker

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"trendbuild/internal/domain"
	"trendbuild/internal/feed"
	"trendbuild/internal/normalization"
)

// EvictionReason says why a candidate left the tracked set.
type EvictionReason string

const (
	EvictMissing   EvictionReason = "missing"
	EvictAge       EvictionReason = "age exceeded"
	EvictDeclining EvictionReason = "declining"
	EvictCapacity  EvictionReason = "over capacity"
)

// String returns the string representation of EvictionReason.
func (r EvictionReason) String() string {
	return string(r)
}

// Eviction records one removed candidate.
type Eviction struct {
	URL     string
	Caption string
	Reason  EvictionReason
}

// Result is the outcome of advancing the candidate state by one cycle.
type Result struct {
	State     *domain.CandidateState
	Admitted  []*domain.Candidate
	Alerts    []domain.Alert
	Evictions []Eviction
	Checks    []*domain.CheckRecord // every check appended this cycle
}

// Summary builds the cycle summary notification.
func (r *Result) Summary(cycleID string, capacity int, now time.Time) domain.CycleSummary {
	return domain.CycleSummary{
		CycleID:      cycleID,
		Admitted:     len(r.Admitted),
		AlertsSent:   len(r.Alerts),
		Removed:      len(r.Evictions),
		TotalTracked: len(r.State.Candidates),
		Capacity:     capacity,
		FinishedAt:   now,
	}
}

// Advance applies one poll cycle to prev and returns the new state. prev is
// not modified. records is the cycle's batch; duplicate URLs after the first
// occurrence are ignored.
func Advance(cfg Config, prev *domain.CandidateState, records []domain.MetricRecord, now time.Time) *Result {
	state := prev.Clone()
	batch, order := indexBatch(records)
	res := &Result{}

	tracked := make(map[string]struct{}, len(state.Candidates))
	survivors := make([]*domain.Candidate, 0, len(state.Candidates))

	for _, c := range state.Candidates {
		tracked[c.URL] = struct{}{}

		r, ok := batch[c.URL]
		if !ok {
			c.ConsecutiveMisses++
			if c.ConsecutiveMisses >= cfg.MaxMisses {
				res.evict(c, EvictMissing)
				continue
			}
			survivors = append(survivors, c)
			continue
		}
		c.ConsecutiveMisses = 0

		check := measure(r, now)
		if last := c.LastCheck(); last != nil {
			delta := check.SharesPerHour - last.SharesPerHour
			check.DeltaShares = &delta
		}

		// The decline check sees the counter as it stood before this cycle.
		if check.AgeHours > cfg.StopAgeHours {
			res.evict(c, EvictAge)
			continue
		}
		if c.ConsecutiveNegativeDeltas >= cfg.StopNegativeDeltas {
			res.evict(c, EvictDeclining)
			continue
		}

		if check.DeltaShares != nil && *check.DeltaShares <= 0 {
			c.ConsecutiveNegativeDeltas++
		} else {
			c.ConsecutiveNegativeDeltas = 0
		}

		c.Checks = append(c.Checks, check)
		res.addCheck(c, check)

		if !c.Alerted && cfg.meetsAlert(check) {
			c.Alerted = true
			res.Alerts = append(res.Alerts, newAlert(cfg.Priority, c, check, now))
		}
		survivors = append(survivors, c)
	}

	survivors = res.trim(survivors, cfg.Capacity)

	if slots := cfg.Capacity - len(survivors); slots > 0 {
		for _, c := range admit(cfg, order, tracked, slots, now) {
			survivors = append(survivors, c)
			res.Admitted = append(res.Admitted, c)
			res.addCheck(c, c.Checks[0])
		}
	}

	state.Candidates = survivors
	state.LastUpdated = &now
	res.State = state
	return res
}

type entrant struct {
	record domain.MetricRecord
	check  domain.Check
}

// admit ranks untracked identities meeting the entry criteria by momentum,
// highest first with ties kept in batch order, and returns up to slots of them.
func admit(cfg Config, order []domain.MetricRecord, tracked map[string]struct{}, slots int, now time.Time) []*domain.Candidate {
	var pool []entrant
	for _, r := range order {
		if _, ok := tracked[r.URL]; ok {
			continue
		}
		check := measure(r, now)
		if cfg.meetsEntry(check) {
			pool = append(pool, entrant{record: r, check: check})
		}
	}

	sort.SliceStable(pool, func(i, j int) bool {
		return pool[i].check.Momentum > pool[j].check.Momentum
	})
	if len(pool) > slots {
		pool = pool[:slots]
	}

	out := make([]*domain.Candidate, 0, len(pool))
	for _, e := range pool {
		out = append(out, &domain.Candidate{
			URL:       e.record.URL,
			FirstSeen: now,
			Market:    e.record.Market,
			Caption:   e.record.Caption,
			Creator:   e.record.Author,
			Checks:    []domain.Check{e.check},
		})
	}
	return out
}

// trim enforces the capacity bound on a state loaded under a larger
// capacity, evicting the lowest latest-momentum candidates.
func (r *Result) trim(candidates []*domain.Candidate, capacity int) []*domain.Candidate {
	if len(candidates) <= capacity {
		return candidates
	}

	ranked := make([]*domain.Candidate, len(candidates))
	copy(ranked, candidates)
	sort.SliceStable(ranked, func(i, j int) bool {
		return lastMomentum(ranked[i]) > lastMomentum(ranked[j])
	})

	drop := make(map[*domain.Candidate]struct{}, len(ranked)-capacity)
	for _, c := range ranked[capacity:] {
		drop[c] = struct{}{}
	}

	kept := candidates[:0]
	for _, c := range candidates {
		if _, ok := drop[c]; ok {
			r.evict(c, EvictCapacity)
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

func (r *Result) evict(c *domain.Candidate, reason EvictionReason) {
	r.Evictions = append(r.Evictions, Eviction{URL: c.URL, Caption: c.Caption, Reason: reason})
}

func (r *Result) addCheck(c *domain.Candidate, check domain.Check) {
	r.Checks = append(r.Checks, &domain.CheckRecord{URL: c.URL, Market: c.Market, Check: check})
}

func newAlert(p PriorityConfig, c *domain.Candidate, check domain.Check, now time.Time) domain.Alert {
	return domain.Alert{
		ID:        uuid.NewString(),
		URL:       c.URL,
		Caption:   c.Caption,
		Creator:   c.Creator,
		Market:    c.Market,
		IsAI:      feed.DetectAI(c.Caption),
		Priority:  p.Priority(check.Momentum, check.SharesPerHour),
		Check:     check,
		CreatedAt: now,
	}
}

// measure computes the rounded tracker metrics of a record.
func measure(r domain.MetricRecord, now time.Time) domain.Check {
	m := normalization.Rounded(normalization.Compute(r, now))
	return domain.Check{
		Timestamp:     now,
		AgeHours:      m.AgeHours,
		SharesPerHour: m.SharesPerHour,
		ViewsPerHour:  m.ViewsPerHour,
		Momentum:      m.Momentum,
	}
}

func lastMomentum(c *domain.Candidate) float64 {
	if last := c.LastCheck(); last != nil {
		return last.Momentum
	}
	return 0
}

func indexBatch(records []domain.MetricRecord) (map[string]domain.MetricRecord, []domain.MetricRecord) {
	byURL := make(map[string]domain.MetricRecord, len(records))
	order := make([]domain.MetricRecord, 0, len(records))
	for _, r := range records {
		if r.URL == "" {
			continue
		}
		if _, dup := byURL[r.URL]; dup {
			continue
		}
		byURL[r.URL] = r
		order = append(order, r)
	}
	return byURL, order
}
