// Package match scores builder-project fit and acceptance likelihood, and
// ranks candidates. Everything here is pure; the service composes it over
// repository reads.
package match

import (
	"math"
	"strings"

	"github.com/forgeline/forge-backend/internal/types"
)

// Facet weights. Capability dominates; the rest refine.
var facetWeights = struct {
	capability, reliability, commitment, history float64
}{
	capability:  0.40,
	reliability: 0.20,
	commitment:  0.25,
	history:     0.15,
}

// ProjectProfile is the slice of a project the scorer needs.
type ProjectProfile struct {
	RequiredSkills  []string
	RolesNeeded     []string
	HoursPerWeekMin int
	HoursPerWeekMax int
	TeamSizeTarget  int
	Stage           string
	Category        string
}

// BuilderProfile is the slice of a builder the scorer needs.
type BuilderProfile struct {
	Skills             types.SkillScores
	Roles              []string
	Availability       types.Availability
	HoursPerWeek       int
	ForgeScore         int
	ReliabilityScore   int
	VerifiedDeliveries int
	Categories         []string // categories of past verified work
}

// CompatibilityResult is a 0-100 fit percentage with facet breakdowns.
type CompatibilityResult struct {
	ScorePercent       int
	CapabilityFit      int
	ReliabilityFit     int
	CommitmentFit      int
	DeliveryHistoryFit int
}

// Compatibility computes builder-project fit. More skill/role overlap never
// lowers the score, and hours fully outside the project's range always score
// below hours fully inside it.
func Compatibility(p ProjectProfile, b BuilderProfile) CompatibilityResult {
	capability := capabilityFit(p, b)
	reliability := reliabilityFit(b)
	commitment := commitmentFit(p, b)
	history := deliveryHistoryFit(p, b)

	overall := facetWeights.capability*float64(capability) +
		facetWeights.reliability*float64(reliability) +
		facetWeights.commitment*float64(commitment) +
		facetWeights.history*float64(history)

	return CompatibilityResult{
		ScorePercent:       clampPct(int(math.Round(overall))),
		CapabilityFit:      capability,
		ReliabilityFit:     reliability,
		CommitmentFit:      commitment,
		DeliveryHistoryFit: history,
	}
}

// capabilityFit averages the builder's scores on the project's required
// skills and blends in role overlap. With no requirements stated, every
// builder fits on capability.
func capabilityFit(p ProjectProfile, b BuilderProfile) int {
	skillPart := 100
	if len(p.RequiredSkills) > 0 {
		total := 0
		for _, req := range p.RequiredSkills {
			total += skillValue(b.Skills, req)
		}
		skillPart = total / len(p.RequiredSkills)
	}

	rolePart := 100
	if len(p.RolesNeeded) > 0 {
		matched := 0
		for _, role := range p.RolesNeeded {
			if containsFold(b.Roles, role) {
				matched++
			}
		}
		rolePart = matched * 100 / len(p.RolesNeeded)
	}

	return clampPct((skillPart*70 + rolePart*30) / 100)
}

// skillValue maps a required-skill name onto the builder's five dimensions.
// Unknown names fall back to the execution dimension.
func skillValue(s types.SkillScores, name string) int {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "frontend", "front-end", "ui":
		return s.Frontend
	case "backend", "back-end", "server":
		return s.Backend
	case "product", "pm":
		return s.Product
	case "design", "ux":
		return s.Design
	default:
		return s.Execution
	}
}

func reliabilityFit(b BuilderProfile) int {
	// Forge score is 0-1000; reliability score 0-100. Weight proven
	// execution credibility over self-level reliability.
	forgePart := b.ForgeScore / 10
	return clampPct((forgePart*60 + b.ReliabilityScore*40) / 100)
}

// commitmentFit blends availability state with hours-range fit. Hours
// entirely outside [min, max] are penalized by distance from the range.
func commitmentFit(p ProjectProfile, b BuilderProfile) int {
	availPart := 0
	switch b.Availability {
	case types.AvailabilityAvailable:
		availPart = 100
	case types.AvailabilityOpen:
		availPart = 75
	case types.AvailabilityBusy:
		availPart = 30
	}

	hoursPart := hoursFit(p.HoursPerWeekMin, p.HoursPerWeekMax, b.HoursPerWeek)
	return clampPct((availPart*50 + hoursPart*50) / 100)
}

func hoursFit(min, max, hours int) int {
	if max <= 0 {
		// No stated range; any commitment fits.
		return 100
	}
	if hours >= min && hours <= max {
		return 100
	}
	var gap int
	if hours < min {
		gap = min - hours
	} else {
		gap = hours - max
	}
	return clampPct(100 - gap*10)
}

func deliveryHistoryFit(p ProjectProfile, b BuilderProfile) int {
	// Diminishing volume credit, topped up by category familiarity.
	volume := int(math.Min(math.Log2(float64(b.VerifiedDeliveries)+1)*25, 75))
	familiar := 0
	if p.Category != "" && containsFold(b.Categories, p.Category) {
		familiar = 25
	}
	return clampPct(volume + familiar)
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(needle)) {
			return true
		}
	}
	return false
}

func clampPct(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
