// Package matching holds the deterministic parts of the AI matching flow:
// candidate prefiltering, prompt rendering and validation of the model's
// JSON answer.
package matching

import (
	"sort"

	"inclusive-matching-api/internal/domain"
)

// YoungAgeLimit is the oldest age that still uses the narrow age corridor.
const YoungAgeLimit = 12

// AgeCorridor returns the inclusive age range a candidate must fall into:
// ±3 years up to age 12, ±4 years from 13 on.
func AgeCorridor(age int) (low, high int) {
	gap := 3
	if age > YoungAgeLimit {
		gap = 4
	}
	return age - gap, age + gap
}

// NewCandidateFilter translates a target and request parameters into the
// store-level filter.
func NewCandidateFilter(target *domain.Profile, params domain.MatchParams) domain.CandidateFilter {
	low, high := AgeCorridor(target.ChildAge)
	filter := domain.CandidateFilter{
		ExcludeID: target.ID,
		MinAge:    low,
		MaxAge:    high,
		Limit:     params.MaxCandidates,
	}
	if params.SameCity {
		filter.City = target.City
	}
	return filter
}

// Prefilter selects eligible candidates for target from population: never the
// target itself, inside the age corridor, in the same city when requested,
// ordered by id ascending and capped at params.MaxCandidates.
func Prefilter(target *domain.Profile, population []domain.Profile, params domain.MatchParams) []domain.Profile {
	low, high := AgeCorridor(target.ChildAge)

	out := make([]domain.Profile, 0, len(population))
	for _, p := range population {
		if p.ID == target.ID {
			continue
		}
		if p.ChildAge < low || p.ChildAge > high {
			continue
		}
		if params.SameCity && p.City != target.City {
			continue
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	if params.MaxCandidates > 0 && len(out) > params.MaxCandidates {
		out = out[:params.MaxCandidates]
	}
	return out
}
