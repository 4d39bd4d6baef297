package match

import (
	"math"

	"github.com/forgeline/forge-backend/internal/types"
)

// Acceptance confidence tiers.
const (
	ConfidenceHigh   = "High"
	ConfidenceMedium = "Medium"
	ConfidenceLow    = "Low"
)

// InviteHistory summarizes a builder's invitation record.
type InviteHistory struct {
	Received        int // invitations ever received
	Accepted        int
	Declined        int
	RecentInvites7d int // invites received in the trailing 7 days
}

// AcceptanceInput is everything the estimator looks at.
type AcceptanceInput struct {
	Availability     types.Availability
	OwnerForgeScore  int
	ProjectStage     string
	CompatibilityPct int
	History          InviteHistory
}

// AcceptanceResult is a probability-like estimate. Percent is always inside
// [5, 95]; the bounds reflect irreducible uncertainty.
type AcceptanceResult struct {
	Percent    int
	Confidence string
	Reasons    []string
}

// Acceptance predicts how likely a builder is to accept an invitation using
// an additive base-50 model.
func Acceptance(in AcceptanceInput) AcceptanceResult {
	base := 50
	reasons := make([]string, 0, 3)

	switch in.Availability {
	case types.AvailabilityAvailable:
		base += 20
		reasons = append(reasons, "Builder is actively available for new work")
	case types.AvailabilityOpen:
		base += 10
		reasons = append(reasons, "Builder is open to opportunities")
	case types.AvailabilityBusy:
		base -= 15
	default:
		base -= 30
	}

	switch {
	case in.OwnerForgeScore >= 600:
		base += 8
		reasons = append(reasons, "Project owner has a strong delivery record")
	case in.OwnerForgeScore >= 400:
		base += 4
	}

	switch in.ProjectStage {
	case "mvp", "beta", "launched":
		base += 5
	}

	switch {
	case in.CompatibilityPct >= 70:
		base += 10
		reasons = append(reasons, "Strong skill alignment with project needs")
	case in.CompatibilityPct >= 50:
		base += 5
	default:
		base -= 5
	}

	responses := in.History.Accepted + in.History.Declined
	if responses > 0 {
		rate := float64(in.History.Accepted) / float64(responses)
		base += int(math.Round((rate - 0.5) * 20))
		if rate >= 0.7 {
			reasons = append(reasons, "Historically accepts most invitations")
		}
	}

	switch {
	case in.History.RecentInvites7d > 5:
		base -= 10
	case in.History.RecentInvites7d > 2:
		base -= 5
	}

	if len(reasons) == 0 {
		reasons = append(reasons, "Based on availability and project fit")
	}
	if len(reasons) > 3 {
		reasons = reasons[:3]
	}

	return AcceptanceResult{
		Percent:    clampRange(base, 5, 95),
		Confidence: acceptanceConfidence(in.History, responses),
		Reasons:    reasons,
	}
}

func acceptanceConfidence(h InviteHistory, responses int) string {
	switch {
	case h.Received >= 5 && responses >= 3:
		return ConfidenceHigh
	case h.Received >= 2:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
