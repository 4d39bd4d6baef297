// Package evidence turns a builder's raw rows into the normalized numeric
// inputs the scoring engine consumes. It performs no writes and no scoring;
// upstream read failures are surfaced to the caller, never zero-filled.
package evidence

import (
	"context"
	"time"

	"github.com/forgeline/forge-backend/internal/database"
	"github.com/forgeline/forge-backend/internal/forge"
	"github.com/forgeline/forge-backend/internal/types"
)

const (
	sustainedDays  = 90
	weekMillis     = 7 * 24 * 60 * 60 * 1000
	recencyDefault = 365
)

// DeliveryReader supplies a builder's deliveries.
type DeliveryReader interface {
	ListByBuilder(ctx context.Context, builderID string) ([]database.Delivery, error)
}

// VerificationReader supplies verification snapshots keyed by delivery.
type VerificationReader interface {
	GetByDeliveries(ctx context.Context, deliveryIDs []string) (map[string]database.Verification, error)
}

// EvidenceReader supplies evidence rows keyed by delivery.
type EvidenceReader interface {
	ListByDeliveries(ctx context.Context, deliveryIDs []string) (map[string][]database.Evidence, error)
}

// MembershipReader supplies team memberships with parent project status.
type MembershipReader interface {
	ListMemberships(ctx context.Context, builderID string) ([]database.TeamMembership, error)
	CountDistinctCollaborators(ctx context.Context, builderID string) (int, error)
}

// ActivityReader supplies activity events inside a time window.
type ActivityReader interface {
	ListByBuilderSince(ctx context.Context, builderID string, since time.Time) ([]database.ActivityEvent, error)
}

// ProjectStatusReader resolves project statuses for delivery links.
type ProjectStatusReader interface {
	GetStatuses(ctx context.Context, projectIDs []string) (map[string]types.ProjectStatus, error)
}

// Aggregator collects and normalizes a builder's evidence.
type Aggregator struct {
	deliveries    DeliveryReader
	verifications VerificationReader
	evidence      EvidenceReader
	memberships   MembershipReader
	activity      ActivityReader
	projects      ProjectStatusReader

	classify DepthClassifier
	now      func() time.Time
}

// NewAggregator wires an aggregator over the given readers.
func NewAggregator(
	deliveries DeliveryReader,
	verifications VerificationReader,
	ev EvidenceReader,
	memberships MembershipReader,
	activity ActivityReader,
	projects ProjectStatusReader,
) *Aggregator {
	return &Aggregator{
		deliveries:    deliveries,
		verifications: verifications,
		evidence:      ev,
		memberships:   memberships,
		activity:      activity,
		projects:      projects,
		classify:      ClassifyDepth,
		now:           time.Now,
	}
}

// WithClock overrides the evaluation clock, for tests.
func (a *Aggregator) WithClock(now func() time.Time) *Aggregator {
	a.now = now
	return a
}

// WithClassifier overrides the depth classifier.
func (a *Aggregator) WithClassifier(c DepthClassifier) *Aggregator {
	a.classify = c
	return a
}

// Collect reads a builder's rows and produces the scoring input.
func (a *Aggregator) Collect(ctx context.Context, builderID string) (forge.ScoreInput, error) {
	now := a.now()

	deliveries, err := a.deliveries.ListByBuilder(ctx, builderID)
	if err != nil {
		return forge.ScoreInput{}, err
	}

	deliveryIDs := make([]string, 0, len(deliveries))
	projectIDs := make([]string, 0)
	for _, d := range deliveries {
		deliveryIDs = append(deliveryIDs, d.ID)
		if d.ProjectID != "" {
			projectIDs = append(projectIDs, d.ProjectID)
		}
	}

	verifications, err := a.verifications.GetByDeliveries(ctx, deliveryIDs)
	if err != nil {
		return forge.ScoreInput{}, err
	}
	evidenceByDelivery, err := a.evidence.ListByDeliveries(ctx, deliveryIDs)
	if err != nil {
		return forge.ScoreInput{}, err
	}
	memberships, err := a.memberships.ListMemberships(ctx, builderID)
	if err != nil {
		return forge.ScoreInput{}, err
	}
	collaborators, err := a.memberships.CountDistinctCollaborators(ctx, builderID)
	if err != nil {
		return forge.ScoreInput{}, err
	}
	activity, err := a.activity.ListByBuilderSince(ctx, builderID, now.AddDate(-1, 0, 0))
	if err != nil {
		return forge.ScoreInput{}, err
	}
	projectStatuses, err := a.projects.GetStatuses(ctx, projectIDs)
	if err != nil {
		return forge.ScoreInput{}, err
	}

	in := forge.ScoreInput{
		Delivery:    a.deliveryInputs(deliveries, projectStatuses, now),
		Reliability: a.reliabilityInputs(deliveries, memberships),
		Quality:     a.qualityRecords(deliveries, verifications, evidenceByDelivery, now),
		Consistency: a.consistencyInputs(deliveries, activity, now),
	}
	in.Confidence = a.confidenceInputs(in.Delivery, collaborators, memberships)
	in.Legacy = a.legacyInputs(deliveries, memberships, activity, now)
	return in, nil
}

func (a *Aggregator) deliveryInputs(deliveries []database.Delivery, statuses map[string]types.ProjectStatus, now time.Time) forge.DeliveryInputs {
	var in forge.DeliveryInputs
	for _, d := range deliveries {
		if d.Status != types.DeliveryVerified {
			continue
		}
		in.Verified++
		if isSustained(d, now) {
			in.Sustained++
		}
		if d.ProjectID != "" && statuses[d.ProjectID] == types.ProjectCompleted {
			in.TeamCompleted++
		}
	}
	return in
}

// isSustained uses the wall-clock millisecond delta so partial days at the
// 90-day boundary do not count.
func isSustained(d database.Delivery, now time.Time) bool {
	if d.StartedAt == nil {
		return false
	}
	return now.UnixMilli()-d.StartedAt.UnixMilli() >= int64(sustainedDays)*24*60*60*1000
}

func (a *Aggregator) reliabilityInputs(deliveries []database.Delivery, memberships []database.TeamMembership) forge.ReliabilityInputs {
	var in forge.ReliabilityInputs

	for _, m := range memberships {
		in.ProjectsJoined++
		switch m.ProjectStatus {
		case types.ProjectCompleted:
			in.ProjectsCompleted++
		case types.ProjectCancelled, types.ProjectArchived:
			in.ProjectsAbandoned++
		}
	}

	for _, d := range deliveries {
		switch d.Status {
		case types.DeliveryCompleted, types.DeliveryVerified:
			in.TotalDeliveries++
			in.CompletedDeliveries++
		case types.DeliveryDropped:
			in.TotalDeliveries++
			in.DroppedDeliveries++
			in.ProjectsLate++
		}
	}

	// No data source models no-shows yet; the input stays named but zero.
	in.NoShow = 0
	return in
}

func (a *Aggregator) qualityRecords(
	deliveries []database.Delivery,
	verifications map[string]database.Verification,
	evidenceByDelivery map[string][]database.Evidence,
	now time.Time,
) []forge.QualityRecord {
	records := make([]forge.QualityRecord, 0)
	for _, d := range deliveries {
		if d.Status != types.DeliveryVerified {
			continue
		}

		rec := forge.QualityRecord{
			Depth:       a.classify(depthText(d.Stack, d.Title)),
			Sustained90: isSustained(d, now),
			Ownership:   ownershipSignals(d),
		}

		if v, ok := verifications[d.ID]; ok {
			rec.Signals.DeployReachable = v.DeploymentReachable
			rec.Signals.RepoExists = v.RepoExists
			rec.Signals.TimelineEvidence = v.TimelineVerified
			rec.Signals.CollaboratorAttested = v.CollaboratorConfirmed
		}
		rec.Signals.ContributionEvidence = contributionSignal(evidenceByDelivery[d.ID])
		rec.UpdateWindows = updateWindows(d)

		records = append(records, rec)
	}
	return records
}

// contributionSignal is nil when no screenshot or custom evidence exists,
// true when any of it is verified, false otherwise.
func contributionSignal(items []database.Evidence) *bool {
	found := false
	for _, e := range items {
		if e.Type != types.EvidenceScreenshot && e.Type != types.EvidenceCustom {
			continue
		}
		found = true
		if e.Verified {
			v := true
			return &v
		}
	}
	if !found {
		return nil
	}
	v := false
	return &v
}

// updateWindows floors the creation-to-last-update span into days, clamped
// to a minimum of 1 when any update occurred and capped at 30.
func updateWindows(d database.Delivery) int {
	if !d.UpdatedAt.After(d.CreatedAt) {
		return 0
	}
	days := int(d.UpdatedAt.Sub(d.CreatedAt).Hours() / 24)
	if days < 1 {
		days = 1
	}
	if days > 30 {
		days = 30
	}
	return days
}

func (a *Aggregator) consistencyInputs(deliveries []database.Delivery, activity []database.ActivityEvent, now time.Time) forge.ConsistencyInputs {
	sixMonthsAgo := now.AddDate(0, -6, 0)
	yearAgo := now.AddDate(-1, 0, 0)

	weeks := make(map[int64]struct{})
	var latest time.Time

	record := func(ts time.Time) {
		if ts.Before(yearAgo) || ts.After(now) {
			return
		}
		weeks[ts.UnixMilli()/weekMillis] = struct{}{}
		if ts.After(latest) {
			latest = ts
		}
	}

	var recent int
	for _, d := range deliveries {
		if d.CreatedAt.After(sixMonthsAgo) {
			recent++
		}
		if (d.Status == types.DeliveryVerified || d.Status == types.DeliveryCompleted) && d.CompletedAt != nil {
			record(*d.CompletedAt)
		}
	}
	for _, ev := range activity {
		record(ev.CreatedAt)
	}

	recency := recencyDefault
	if !latest.IsZero() {
		recency = int(now.Sub(latest).Hours() / 24)
	}

	return forge.ConsistencyInputs{
		RecentDeliveries6Mo: recent,
		ActiveWeeksLast12:   len(weeks),
		RecencyDays:         recency,
	}
}

func (a *Aggregator) confidenceInputs(delivery forge.DeliveryInputs, collaborators int, memberships []database.TeamMembership) forge.ConfidenceInputs {
	outcomes := 0
	for _, m := range memberships {
		switch m.ProjectStatus {
		case types.ProjectCompleted, types.ProjectCancelled, types.ProjectArchived:
			outcomes++
		}
	}
	return forge.ConfidenceInputs{
		VerifiedDeliveries:    delivery.Verified,
		SustainedDeliveries:   delivery.Sustained,
		DistinctCollaborators: collaborators,
		Outcomes:              outcomes,
	}
}

func (a *Aggregator) legacyInputs(deliveries []database.Delivery, memberships []database.TeamMembership, activity []database.ActivityEvent, now time.Time) forge.LegacyInput {
	var l forge.LegacyInput

	teams := make(map[string]struct{})
	for _, m := range memberships {
		teams[m.ProjectID] = struct{}{}
	}
	l.TotalTeams = len(teams)

	months := make(map[int]struct{})
	markMonth := func(ts time.Time) {
		if ts.After(now.AddDate(-1, 0, 0)) && !ts.After(now) {
			months[ts.Year()*12+int(ts.Month())] = struct{}{}
		}
	}

	for _, d := range deliveries {
		switch d.Status {
		case types.DeliveryVerified:
			l.VerifiedDeliveries++
			l.TotalDeliveries++
			l.CompletedDeliveries++
		case types.DeliveryCompleted:
			l.TotalDeliveries++
			l.CompletedDeliveries++
		case types.DeliveryDropped:
			l.TotalDeliveries++
			l.DroppedDeliveries++
		}
		if d.ProjectID != "" {
			l.TeamDeliveries++
		}
		if d.CompletedAt != nil {
			markMonth(*d.CompletedAt)
		}
	}
	for _, ev := range activity {
		markMonth(ev.CreatedAt)
	}
	l.ActiveMonths = len(months)

	// Streak: consecutive months with activity counting back from now.
	streak := 0
	cursor := now.Year()*12 + int(now.Month())
	for {
		if _, ok := months[cursor]; !ok {
			break
		}
		streak++
		cursor--
	}
	l.StreakMonths = streak

	return l
}

// ownershipSignals derives ownership from URL presence. This is a documented
// heuristic, not a real ownership check; see forge.OwnershipSignals.
func ownershipSignals(d database.Delivery) forge.OwnershipSignals {
	var out forge.OwnershipSignals
	if d.DeploymentURL != "" {
		v := true
		out.Deployment = &v
		w := true
		out.Domain = &w
	}
	if d.RepoURL != "" {
		v := true
		out.PrimaryOperator = &v
	}
	return out
}
