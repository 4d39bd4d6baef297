package match

import "sort"

// Page sizes for the two matching surfaces.
const (
	OwnerMatchLimit = 10 // project-owner match view
	RoleMatchLimit  = 20 // coarser role-based matcher
)

// Candidate is one scored builder ready for ranking.
type Candidate struct {
	BuilderID     string
	ForgeScore    int
	Compatibility CompatibilityResult
	Acceptance    AcceptanceResult
}

// Rank sorts candidates by compatibility percent descending, breaking ties
// by raw forge score descending; remaining ties keep input order (stable),
// so identical inputs always produce identical output. The result is
// truncated to limit when limit is positive.
func Rank(candidates []Candidate, limit int) []Candidate {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Compatibility.ScorePercent != ranked[j].Compatibility.ScorePercent {
			return ranked[i].Compatibility.ScorePercent > ranked[j].Compatibility.ScorePercent
		}
		return ranked[i].ForgeScore > ranked[j].ForgeScore
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
