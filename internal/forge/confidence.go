package forge

import "math"

// Confidence is built additively from saturating evidence tiers, so it never
// decreases as positive evidence accumulates and is bounded at 100:
//
//	deliveries >=1/3/5/10  -> +20/+15/+10/+10
//	teams      >=1/3       -> +15/+10
//	tenure     >=1/3/6/12  -> +5 each
func confidenceFromCounts(deliveries, teams, tenure int) int {
	conf := 0

	for _, tier := range []struct{ at, add int }{{1, 20}, {3, 15}, {5, 10}, {10, 10}} {
		if deliveries >= tier.at {
			conf += tier.add
		}
	}
	for _, tier := range []struct{ at, add int }{{1, 15}, {3, 10}} {
		if teams >= tier.at {
			conf += tier.add
		}
	}
	for _, at := range []int{1, 3, 6, 12} {
		if tenure >= at {
			conf += 5
		}
	}

	return clampInt(conf, 0, 100)
}

// evidenceConfidence maps the rich model's inputs onto the tier schedule:
// verified deliveries for the delivery tiers, distinct collaborators for the
// team tiers, terminal project outcomes for the tenure tiers.
func evidenceConfidence(in ConfidenceInputs) int {
	return confidenceFromCounts(in.VerifiedDeliveries, in.DistinctCollaborators, in.Outcomes)
}

// EffectiveScore damps a raw score toward 60% of its nominal value when
// nothing backs it; a fully confident builder's score passes through intact.
func EffectiveScore(score, confidence int) int {
	c := clampInt(confidence, 0, 100)
	return int(math.Round(float64(score) * (0.6 + 0.4*float64(c)/100)))
}
