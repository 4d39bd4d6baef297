package types

import "time"

// Availability describes how open a builder currently is to new work.
type Availability string

const (
	AvailabilityAvailable   Availability = "available"
	AvailabilityOpen        Availability = "open_to_opportunities"
	AvailabilityBusy        Availability = "busy"
	AvailabilityUnavailable Availability = "unavailable"
)

// DeliveryStatus is the lifecycle state of a claimed unit of work.
type DeliveryStatus string

const (
	DeliveryInProgress DeliveryStatus = "in_progress"
	DeliveryCompleted  DeliveryStatus = "completed"
	DeliveryVerified   DeliveryStatus = "verified"
	DeliveryDropped    DeliveryStatus = "dropped"
)

// EvidenceType classifies an independently verifiable claim on a delivery.
type EvidenceType string

const (
	EvidenceDeploymentURL EvidenceType = "deployment_url"
	EvidenceRepoURL       EvidenceType = "repo_url"
	EvidenceScreenshot    EvidenceType = "screenshot"
	EvidenceAttestation   EvidenceType = "collaborator_attestation"
	EvidenceTimelineProof EvidenceType = "timeline_proof"
	EvidenceCustom        EvidenceType = "custom"
)

// VerificationStatus is the overall outcome of a verification run.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationPartial  VerificationStatus = "partial"
	VerificationFailed   VerificationStatus = "failed"
)

// ProjectStatus is the lifecycle state of a posted project.
type ProjectStatus string

const (
	ProjectOpen      ProjectStatus = "open"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
	ProjectArchived  ProjectStatus = "archived"
)

// InvitationStatus tracks a directed project invite.
type InvitationStatus string

const (
	InvitePending   InvitationStatus = "pending"
	InviteAccepted  InvitationStatus = "accepted"
	InviteDeclined  InvitationStatus = "declined"
	InviteExpired   InvitationStatus = "expired"
	InviteWithdrawn InvitationStatus = "withdrawn"
)

// SkillScores holds the five named skill dimensions, each 0-100.
// A zero value means no evidence, not a measured zero.
type SkillScores struct {
	Frontend  int `json:"frontend"`
	Backend   int `json:"backend"`
	Product   int `json:"product"`
	Design    int `json:"design"`
	Execution int `json:"execution"`
}

// ComputeScoreResponse is the body of the score-compute endpoint.
type ComputeScoreResponse struct {
	Success bool         `json:"success"`
	Score   ScorePayload `json:"score"`
}

// ScorePayload mirrors a persisted ForgeScore row.
type ScorePayload struct {
	Score                    int       `json:"score"`
	DeliverySuccessComponent int       `json:"delivery_success_component"`
	ReliabilityComponent     int       `json:"reliability_component"`
	QualityComponent         int       `json:"quality_component"`
	ConsistencyComponent     int       `json:"consistency_component"`
	Confidence               int       `json:"confidence"`
	EffectiveScore           int       `json:"effective_score"`
	Model                    string    `json:"model"`
	ComputedAt               time.Time `json:"computed_at"`
}

// VerificationPayload is the wire shape of a verification run result.
type VerificationPayload struct {
	DeploymentReachable   *bool              `json:"deployment_reachable"`
	RepoExists            *bool              `json:"repo_exists"`
	TimelineVerified      *bool              `json:"timeline_verified"`
	CollaboratorConfirmed *bool              `json:"collaborator_confirmed"`
	OverallStatus         VerificationStatus `json:"overall_status"`
}

// VerifyResponse is the body of the verification-run endpoint.
type VerifyResponse struct {
	Success      bool                `json:"success"`
	Verification VerificationPayload `json:"verification"`
}

// MatchEntry is one candidate in a matching response.
type MatchEntry struct {
	BuilderID          string            `json:"builder_id"`
	Score              int               `json:"score"`
	Explanation        string            `json:"explanation"`
	CapabilityFit      int               `json:"capability_fit"`
	ReliabilityFit     int               `json:"reliability_fit"`
	CommitmentFit      int               `json:"commitment_fit"`
	DeliveryHistoryFit int               `json:"delivery_history_fit"`
	Acceptance         AcceptancePayload `json:"acceptance"`
}

// AcceptancePayload carries the acceptance-likelihood estimate for a candidate.
type AcceptancePayload struct {
	Percent    int      `json:"percent"`
	Confidence string   `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// MatchResponse is the body of the matching endpoints.
type MatchResponse struct {
	Matches []MatchEntry `json:"matches"`
}

// SkillRefreshResponse is the body of the skill-refresh endpoint.
type SkillRefreshResponse struct {
	Success       bool        `json:"success"`
	Skills        SkillScores `json:"skills"`
	Confidence    int         `json:"confidence"`
	Justification string      `json:"justification"`
}
