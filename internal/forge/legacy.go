package forge

import "math"

// LegacyStrategy is the original four-input model, retained as a fallback
// for builders with no aggregated evidence. Its third dimension measures
// collaboration rather than delivery quality; the component slot is shared.
type LegacyStrategy struct{}

// NewLegacyStrategy returns the fallback strategy.
func NewLegacyStrategy() *LegacyStrategy { return &LegacyStrategy{} }

// Name identifies this strategy in persisted rows.
func (s *LegacyStrategy) Name() string { return ModelLegacy }

// Score evaluates the legacy four-input model from in.Legacy.
func (s *LegacyStrategy) Score(in ScoreInput) Result {
	l := in.Legacy

	ds := deliverySuccessComponent(DeliveryInputs{Verified: l.VerifiedDeliveries})
	rel := legacyReliability(l)
	collab := legacyCollaboration(l)
	cons := legacyConsistency(l)

	raw := dimensionWeights.deliverySuccess*float64(ds) +
		dimensionWeights.reliability*float64(rel) +
		dimensionWeights.quality*float64(collab) +
		dimensionWeights.consistency*float64(cons)
	score := clampInt(int(math.Round(raw)), 0, maxComponent)

	conf := confidenceFromCounts(l.TotalDeliveries, l.TotalTeams, l.ActiveMonths)

	return Result{
		Score:                    score,
		DeliverySuccessComponent: ds,
		ReliabilityComponent:     rel,
		QualityComponent:         collab,
		ConsistencyComponent:     cons,
		Confidence:               conf,
		EffectiveScore:           EffectiveScore(score, conf),
		Model:                    ModelLegacy,
	}
}

func legacyReliability(l LegacyInput) int {
	if l.TotalDeliveries <= 0 {
		return 0
	}
	rate := float64(l.CompletedDeliveries) / float64(l.TotalDeliveries)
	return clampInt(int(math.Round(rate*maxComponent-float64(l.DroppedDeliveries*droppedPenalty))), 0, maxComponent)
}

func legacyCollaboration(l LegacyInput) int {
	if l.TeamDeliveries <= 0 && l.TotalTeams <= 0 {
		return 0
	}
	raw := math.Log2(float64(l.TeamDeliveries)+1)*250 + float64(minInt(l.TotalTeams, 5)*50)
	return clampInt(int(math.Round(raw)), 0, maxComponent)
}

func legacyConsistency(l LegacyInput) int {
	monthScale := math.Min(float64(l.ActiveMonths)/12, 1) * 600
	streakBonus := math.Min(float64(l.StreakMonths)/6, 1) * 400
	return clampInt(int(math.Round(monthScale+streakBonus)), 0, maxComponent)
}
