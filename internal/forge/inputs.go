package forge

// ScoreInput is the normalized evidence bundle consumed by the scoring
// strategies. The aggregator guarantees all counts are non-negative;
// negative counts are undefined behavior and are guarded there, not here.
type ScoreInput struct {
	Delivery    DeliveryInputs    `json:"delivery"`
	Reliability ReliabilityInputs `json:"reliability"`
	Quality     []QualityRecord   `json:"quality"`
	Consistency ConsistencyInputs `json:"consistency"`
	Confidence  ConfidenceInputs  `json:"confidence"`

	// Legacy carries the simpler four-input model's view of the same rows,
	// used only when the fallback strategy is selected.
	Legacy LegacyInput `json:"legacy"`
}

// DeliveryInputs feeds the delivery-success dimension.
type DeliveryInputs struct {
	Verified      int `json:"verified"`
	Sustained     int `json:"sustained"`       // started >= 90 days before evaluation
	TeamCompleted int `json:"team_completed"`  // parent project status "completed"
}

// ReliabilityInputs feeds the reliability dimension.
//
// NoShow has no computation path yet; the aggregator always emits 0. It is
// kept as a named input so a future data source can populate it without a
// scoring interface change.
type ReliabilityInputs struct {
	ProjectsJoined    int `json:"projects_joined"`
	ProjectsCompleted int `json:"projects_completed"`
	ProjectsAbandoned int `json:"projects_abandoned"`
	ProjectsLate      int `json:"projects_late"`
	NoShow            int `json:"projects_no_show"`

	TotalDeliveries     int `json:"total_deliveries"`
	CompletedDeliveries int `json:"completed_deliveries"`
	DroppedDeliveries   int `json:"dropped_deliveries"`
}

// SignalSet holds the five per-delivery verification signals. A nil entry
// means "no evidence to judge" and carries no weight either way.
type SignalSet struct {
	DeployReachable      *bool `json:"deploy_reachable"`
	RepoExists           *bool `json:"repo_exists"`
	ContributionEvidence *bool `json:"contribution_evidence"`
	TimelineEvidence     *bool `json:"timeline_evidence"`
	CollaboratorAttested *bool `json:"collaborator_attested"`
}

// Assessed returns how many signals carry evidence and how many of those passed.
func (s SignalSet) Assessed() (assessed, passed int) {
	for _, sig := range []*bool{s.DeployReachable, s.RepoExists, s.ContributionEvidence, s.TimelineEvidence, s.CollaboratorAttested} {
		if sig == nil {
			continue
		}
		assessed++
		if *sig {
			passed++
		}
	}
	return assessed, passed
}

// DepthFlags marks which system concerns a delivery demonstrably touches.
// Flags come from the keyword classifier; the engine treats them as a
// boolean feature vector only.
type DepthFlags struct {
	Auth         bool `json:"auth"`
	Database     bool `json:"database"`
	API          bool `json:"api"`
	Integrations bool `json:"integrations"`
	Payments     bool `json:"payments"`
	Jobs         bool `json:"jobs"`
}

// Count returns the number of distinct depth flags set.
func (d DepthFlags) Count() int {
	n := 0
	for _, f := range []bool{d.Auth, d.Database, d.API, d.Integrations, d.Payments, d.Jobs} {
		if f {
			n++
		}
	}
	return n
}

// OwnershipSignals are weak URL-presence heuristics, not ground truth.
// They are isolated here so a real ownership check can replace them without
// touching the rest of the quality dimension.
type OwnershipSignals struct {
	Deployment      *bool `json:"deployment"`
	Domain          *bool `json:"domain"`
	PrimaryOperator *bool `json:"primary_operator"`
}

// QualityRecord is one verified delivery's contribution to the quality dimension.
type QualityRecord struct {
	Signals       SignalSet        `json:"signals"`
	Depth         DepthFlags       `json:"depth"`
	Sustained90   bool             `json:"sustained_90_days"`
	Ownership     OwnershipSignals `json:"ownership"`
	UpdateWindows int              `json:"update_windows"` // days between creation and last update, clamped [1,30] when updated
}

// ConsistencyInputs feeds the consistency dimension.
type ConsistencyInputs struct {
	RecentDeliveries6Mo int `json:"recent_deliveries_6mo"`
	ActiveWeeksLast12   int `json:"active_weeks_last_12"`
	RecencyDays         int `json:"recency_days"` // days since last qualifying event, 365 when none
}

// ConfidenceInputs feeds the confidence estimate.
type ConfidenceInputs struct {
	VerifiedDeliveries    int `json:"verified_deliveries"`
	SustainedDeliveries   int `json:"sustained_deliveries"`
	DistinctCollaborators int `json:"distinct_collaborators"`
	Outcomes              int `json:"outcomes"` // memberships whose project reached a terminal status
}

// LegacyInput is the simpler four-input model kept as a fallback path.
type LegacyInput struct {
	VerifiedDeliveries  int `json:"verified_deliveries"`
	TotalDeliveries     int `json:"total_deliveries"`
	CompletedDeliveries int `json:"completed_deliveries"`
	DroppedDeliveries   int `json:"dropped_deliveries"`
	TeamDeliveries      int `json:"team_deliveries"`
	TotalTeams          int `json:"total_teams"`
	ActiveMonths        int `json:"active_months"`
	StreakMonths        int `json:"streak_months"`
}

// Result is the output of a scoring strategy. Score and EffectiveScore are
// the persisted numbers; the components are surfaced for explanation.
type Result struct {
	Score                    int    `json:"score"`
	DeliverySuccessComponent int    `json:"delivery_success_component"`
	ReliabilityComponent     int    `json:"reliability_component"`
	QualityComponent         int    `json:"quality_component"`
	ConsistencyComponent     int    `json:"consistency_component"`
	Confidence               int    `json:"confidence"`
	EffectiveScore           int    `json:"effective_score"`
	Model                    string `json:"model"`
}
