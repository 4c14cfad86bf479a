package extrapolation

import (
	"math"

	"trendbuild/internal/domain"
)

// Lookup maps identity to momentum for one historical day.
// A nil *Lookup represents an unavailable snapshot.
type Lookup struct {
	momentum map[string]float64
}

// NewLookup builds a lookup from snapshot rows. On duplicate identities the
// first row wins. Rows with non-finite momentum are skipped.
func NewLookup(rows []domain.SnapshotRow) *Lookup {
	l := &Lookup{momentum: make(map[string]float64, len(rows))}
	for _, r := range rows {
		if r.URL == "" || math.IsNaN(r.Momentum) || math.IsInf(r.Momentum, 0) {
			continue
		}
		if _, exists := l.momentum[r.URL]; exists {
			continue
		}
		l.momentum[r.URL] = r.Momentum
	}
	return l
}

// Get returns the momentum recorded for url.
func (l *Lookup) Get(url string) (float64, bool) {
	if l == nil {
		return 0, false
	}
	v, ok := l.momentum[url]
	return v, ok
}

// Len returns the number of identities in the lookup.
func (l *Lookup) Len() int {
	if l == nil {
		return 0
	}
	return len(l.momentum)
}
