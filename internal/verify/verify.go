// Package verify classifies a single delivery's evidence into per-check
// outcomes and an overall status. It is a pure classifier: promoting the
// delivery itself happens in the caller.
package verify

import (
	"time"

	"github.com/forgeline/forge-backend/internal/types"
)

// MaxTimelineDays is the fixed ceiling on a believable delivery timeline.
// Durations of a year or more fail the timeline check even with evidence.
const MaxTimelineDays = 365

// Input bundles everything a verification run can look at.
type Input struct {
	Evidence      []EvidenceItem
	DeploymentURL string
	RepoURL       string
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// EvidenceItem is the slice of an Evidence row the engine needs.
type EvidenceItem struct {
	Type     types.EvidenceType
	Verified bool
}

// Result holds the four tri-state checks plus the overall classification.
// A nil check means "not assessed" and is excluded from the overall status.
type Result struct {
	DeploymentReachable   *bool
	RepoExists            *bool
	TimelineVerified      *bool
	CollaboratorConfirmed *bool
	OverallStatus         types.VerificationStatus
}

// Run evaluates all four checks independently and classifies the outcome:
// pending when nothing was assessed, verified when every assessed check
// passed, failed when none did, partial otherwise.
func Run(in Input) Result {
	res := Result{
		DeploymentReachable:   checkDeployment(in),
		RepoExists:            checkRepo(in),
		TimelineVerified:      checkTimeline(in),
		CollaboratorConfirmed: checkCollaborator(in),
	}
	res.OverallStatus = classify(res)
	return res
}

func checkDeployment(in Input) *bool {
	hasEvidence := hasType(in.Evidence, types.EvidenceDeploymentURL)
	if in.DeploymentURL == "" && !hasEvidence {
		return nil
	}
	pass := hasVerified(in.Evidence, types.EvidenceDeploymentURL)
	return &pass
}

func checkRepo(in Input) *bool {
	hasEvidence := hasType(in.Evidence, types.EvidenceRepoURL)
	if in.RepoURL == "" && !hasEvidence {
		return nil
	}
	pass := hasVerified(in.Evidence, types.EvidenceRepoURL)
	return &pass
}

// checkTimeline is assessed whenever both timestamps or timeline evidence
// exist. It passes only when the duration is positive and under a year, and
// any submitted timeline evidence is verified.
func checkTimeline(in Input) *bool {
	hasEvidence := hasType(in.Evidence, types.EvidenceTimelineProof)
	hasTimestamps := in.StartedAt != nil && in.CompletedAt != nil
	if !hasEvidence && !hasTimestamps {
		return nil
	}

	pass := false
	if hasTimestamps {
		days := in.CompletedAt.Sub(*in.StartedAt).Hours() / 24
		durationOK := days > 0 && days < MaxTimelineDays
		if hasEvidence {
			pass = durationOK && hasVerified(in.Evidence, types.EvidenceTimelineProof)
		} else {
			pass = durationOK
		}
	}
	return &pass
}

func checkCollaborator(in Input) *bool {
	if !hasType(in.Evidence, types.EvidenceAttestation) {
		return nil
	}
	pass := hasVerified(in.Evidence, types.EvidenceAttestation)
	return &pass
}

func classify(res Result) types.VerificationStatus {
	assessed, passed := 0, 0
	for _, check := range []*bool{res.DeploymentReachable, res.RepoExists, res.TimelineVerified, res.CollaboratorConfirmed} {
		if check == nil {
			continue
		}
		assessed++
		if *check {
			passed++
		}
	}

	switch {
	case assessed == 0:
		return types.VerificationPending
	case passed == assessed:
		return types.VerificationVerified
	case passed == 0:
		return types.VerificationFailed
	default:
		return types.VerificationPartial
	}
}

func hasType(items []EvidenceItem, t types.EvidenceType) bool {
	for _, e := range items {
		if e.Type == t {
			return true
		}
	}
	return false
}

func hasVerified(items []EvidenceItem, t types.EvidenceType) bool {
	for _, e := range items {
		if e.Type == t && e.Verified {
			return true
		}
	}
	return false
}
