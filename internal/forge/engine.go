package forge

import (
	"math"
	"sort"
)

// Dimension weights. Delivery success dominates; quality and consistency
// refine rather than drive the score.
var dimensionWeights = struct {
	deliverySuccess, reliability, quality, consistency float64
}{
	deliverySuccess: 0.45,
	reliability:     0.30,
	quality:         0.15,
	consistency:     0.10,
}

const (
	maxComponent = 1000

	// Reliability shrinkage: small samples regress toward a neutral 0.5
	// completion rate instead of swinging to 0 or 1000.
	reliabilityPriorWeight = 4.0
	reliabilityPriorRate   = 0.5

	droppedPenalty   = 50
	abandonedPenalty = 100

	// Delivery-success bonuses layered on the log curve. Both saturate so
	// the component stays inside [0, 1000] headroom.
	sustainedBonusPer = 25
	sustainedBonusCap = 150
	teamBonusPer      = 20
	teamBonusCap      = 100

	// Quality: a delivery with no depth flags caps at 400; each distinct
	// flag raises the ceiling by 100 up to the full 1000.
	qualityBaseCeiling    = 400
	qualityCeilingPerFlag = 100
	qualityDecay          = 0.85

	// Consistency: recency_days at or beyond this drives the component to
	// zero regardless of past activity.
	recencyCutoffDays = 180
	fullActivityWeeks = 48
)

// EvidenceStrategy is the canonical evidence-based scoring model.
type EvidenceStrategy struct{}

// NewEvidenceStrategy returns the canonical strategy.
func NewEvidenceStrategy() *EvidenceStrategy { return &EvidenceStrategy{} }

// Name identifies this strategy in persisted rows.
func (s *EvidenceStrategy) Name() string { return ModelEvidence }

// Score maps a normalized evidence bundle to a 0-1000 credibility score.
// Pure and total: any input with non-negative counts yields a result.
func (s *EvidenceStrategy) Score(in ScoreInput) Result {
	ds := deliverySuccessComponent(in.Delivery)
	rel := reliabilityComponent(in.Reliability)
	qual := qualityComponent(in.Quality)
	cons := consistencyComponent(in.Consistency)

	raw := dimensionWeights.deliverySuccess*float64(ds) +
		dimensionWeights.reliability*float64(rel) +
		dimensionWeights.quality*float64(qual) +
		dimensionWeights.consistency*float64(cons)
	score := clampInt(int(math.Round(raw)), 0, maxComponent)

	conf := evidenceConfidence(in.Confidence)

	return Result{
		Score:                    score,
		DeliverySuccessComponent: ds,
		ReliabilityComponent:     rel,
		QualityComponent:         qual,
		ConsistencyComponent:     cons,
		Confidence:               conf,
		EffectiveScore:           EffectiveScore(score, conf),
		Model:                    ModelEvidence,
	}
}

// deliverySuccessComponent is logarithmic in verified deliveries so each
// additional delivery yields a diminishing marginal gain: 1 verified ~200,
// 5 ~515, 10 ~691, 20 ~862. Sustained and team-completed deliveries add
// saturating bonuses on top and never reduce the component.
func deliverySuccessComponent(in DeliveryInputs) int {
	if in.Verified <= 0 {
		return 0
	}
	base := math.Log2(float64(in.Verified)+1) * 200
	bonus := float64(minInt(in.Sustained*sustainedBonusPer, sustainedBonusCap)) +
		float64(minInt(in.TeamCompleted*teamBonusPer, teamBonusCap))
	return clampInt(int(math.Round(base+bonus)), 0, maxComponent)
}

// reliabilityComponent scores completion behavior. The completion rate is
// shrunk toward a neutral prior so one delivery cannot produce 0 or 1000,
// and abandonment costs double an ordinary dropped delivery.
func reliabilityComponent(in ReliabilityInputs) int {
	if in.TotalDeliveries <= 0 {
		return 0
	}
	rate := (float64(in.CompletedDeliveries) + reliabilityPriorWeight*reliabilityPriorRate) /
		(float64(in.TotalDeliveries) + reliabilityPriorWeight)
	raw := rate*maxComponent -
		float64(in.DroppedDeliveries*droppedPenalty) -
		float64(in.ProjectsAbandoned*abandonedPenalty)
	return clampInt(int(math.Round(raw)), 0, maxComponent)
}

// qualityComponent scores each verified delivery against a depth-dependent
// ceiling, then blends the per-delivery scores best-first with geometric
// decay so volume alone cannot substitute for depth.
func qualityComponent(records []QualityRecord) int {
	if len(records) == 0 {
		return 0
	}

	scores := make([]float64, 0, len(records))
	for _, r := range records {
		scores = append(scores, qualityPerDelivery(r))
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(scores)))

	var sum, weight float64
	w := 1.0
	for _, s := range scores {
		sum += s * w
		weight += w
		w *= qualityDecay
	}
	return clampInt(int(math.Round(sum/weight)), 0, maxComponent)
}

func qualityPerDelivery(r QualityRecord) float64 {
	ceiling := float64(minInt(qualityBaseCeiling+r.Depth.Count()*qualityCeilingPerFlag, maxComponent))

	assessed, passed := r.Signals.Assessed()
	// With no assessed signals the delivery earns a conservative floor of
	// its ceiling rather than zero; "no evidence to judge" is not failure.
	fraction := 0.3
	if assessed > 0 {
		fraction = float64(passed) / float64(assessed)
	}
	score := ceiling * fraction

	if r.Sustained90 {
		score += 50
	}
	for _, own := range []*bool{r.Ownership.Deployment, r.Ownership.Domain, r.Ownership.PrimaryOperator} {
		if own != nil && *own {
			score += 20
		}
	}
	if r.UpdateWindows > 0 {
		score += float64(minInt(r.UpdateWindows, 30)) * 2
	}

	return math.Min(score, maxComponent)
}

// consistencyComponent rewards sustained weekly activity and decays with
// staleness: recency_days >= 180 zeroes it out entirely.
func consistencyComponent(in ConsistencyInputs) int {
	recencyFactor := 1 - math.Min(float64(in.RecencyDays), recencyCutoffDays)/recencyCutoffDays
	if recencyFactor <= 0 {
		return 0
	}
	weekScale := math.Min(float64(in.ActiveWeeksLast12)/fullActivityWeeks, 1) * 600
	recentBonus := math.Min(float64(in.RecentDeliveries6Mo)/6, 1) * 400
	return clampInt(int(math.Round((weekScale+recentBonus)*recencyFactor)), 0, maxComponent)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
