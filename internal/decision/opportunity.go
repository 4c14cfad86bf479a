package decision

import (
	"math"
	"sort"

	"trendbuild/internal/domain"
)

// Opportunity score weights. Fixed ordering constants, not tunable.
const (
	growthWeight     = 0.5
	velocityWeight   = 0.3
	freshnessHorizon = 72.0
	freshnessWeight  = 10.0
	actNowMultiplier = 1.5
)

// OpportunityScore ranks a recommendation for summary ordering.
func OpportunityScore(window domain.ActionWindow, momentum, velocity, predicted24h, ageHours float64) float64 {
	age := knownAge(ageHours)
	score := (predicted24h-momentum)*growthWeight +
		velocity*velocityWeight +
		(freshnessHorizon-math.Min(age, freshnessHorizon))*freshnessWeight
	if window == domain.WindowActNow {
		score *= actNowMultiplier
	}
	if math.IsNaN(score) {
		return 0
	}
	return score
}

// SortByOpportunity orders recs by opportunity score, highest first.
// Ties keep their input order.
func SortByOpportunity(recs []domain.Recommendation) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].OpportunityScore > recs[j].OpportunityScore
	})
}
