package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgeline/forge-backend/internal/forge"
	"github.com/forgeline/forge-backend/internal/types"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := NewDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewRepository(db)
}

func insertBuilder(t *testing.T, repo *Repository, username string, roles []string) *Builder {
	t.Helper()

	now := time.Now()
	b := &Builder{
		ID:           uuid.New().String(),
		Username:     username,
		Availability: types.AvailabilityAvailable,
		HoursPerWeek: 20,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.CreateBuilder(context.Background(), b))
	return b
}

func insertProject(t *testing.T, repo *Repository, ownerID, category string) *Project {
	t.Helper()

	p := &Project{
		ID:              uuid.New().String(),
		OwnerID:         ownerID,
		Title:           "project",
		RequiredSkills:  []string{"backend"},
		RolesNeeded:     []string{"backend"},
		HoursPerWeekMin: 10,
		HoursPerWeekMax: 30,
		TeamSizeTarget:  3,
		TimelineWeeks:   12,
		Category:        category,
		Stage:           "mvp",
		Status:          types.ProjectActive,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.CreateProject(context.Background(), p))
	return p
}

func TestBuilderRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	created := insertBuilder(t, repo, "alice", []string{"backend", "product"})

	got, err := repo.GetBuilder(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, []string{"backend", "product"}, got.Roles)
	assert.Equal(t, types.AvailabilityAvailable, got.Availability)

	missing, err := repo.GetBuilder(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestConstructorDefaultsRoundTrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := NewBuilder("fresh-signup")
	require.NoError(t, repo.CreateBuilder(ctx, b))

	gotBuilder, err := repo.GetBuilder(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, gotBuilder)
	assert.Equal(t, types.AvailabilityOpen, gotBuilder.Availability)
	assert.Zero(t, gotBuilder.ForgeScore)

	d := NewDelivery(b.ID, "first claim")
	require.NoError(t, repo.CreateDelivery(ctx, d))

	gotDelivery, err := repo.GetDelivery(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, gotDelivery)
	assert.Equal(t, types.DeliveryInProgress, gotDelivery.Status)
	assert.Nil(t, gotDelivery.StartedAt)
}

func TestUpdateBuilderSkills(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "bob", nil)

	skills := types.SkillScores{Frontend: 40, Backend: 90, Execution: 75}
	require.NoError(t, repo.UpdateBuilderSkills(ctx, b.ID, skills))

	got, err := repo.GetBuilder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, skills, got.Skills)

	// Updating a missing builder reports it rather than succeeding silently.
	err = repo.UpdateBuilderSkills(ctx, uuid.New().String(), skills)
	require.Error(t, err)
}

func TestDeliveryRoundTripAndStatus(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "carol", nil)
	started := time.Now().AddDate(0, 0, -30)
	completed := time.Now().AddDate(0, 0, -2)

	d := &Delivery{
		ID:            uuid.New().String(),
		BuilderID:     b.ID,
		Title:         "shipped thing",
		Status:        types.DeliveryCompleted,
		StartedAt:     &started,
		CompletedAt:   &completed,
		DeploymentURL: "https://thing.example.com",
		RepoURL:       "https://github.com/example/thing",
		Stack:         []string{"go", "sqlite"},
		CreatedAt:     started,
		UpdatedAt:     completed,
	}
	require.NoError(t, repo.CreateDelivery(ctx, d))

	got, err := repo.GetDelivery(ctx, d.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"go", "sqlite"}, got.Stack)
	require.NotNil(t, got.StartedAt)
	require.NotNil(t, got.CompletedAt)

	require.NoError(t, repo.UpdateDeliveryStatus(ctx, d.ID, types.DeliveryVerified))
	got, err = repo.GetDelivery(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, types.DeliveryVerified, got.Status)

	listed, err := repo.ListByBuilder(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)
}

func TestUpsertVerificationReplacesSnapshot(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "dave", nil)
	d := &Delivery{
		ID:        uuid.New().String(),
		BuilderID: b.ID,
		Title:     "d",
		Status:    types.DeliveryCompleted,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateDelivery(ctx, d))

	yes, no := true, false
	require.NoError(t, repo.UpsertVerification(ctx, &Verification{
		ID:                  uuid.New().String(),
		DeliveryID:          d.ID,
		DeploymentReachable: &no,
		OverallStatus:       types.VerificationFailed,
		LastCheckedAt:       time.Now(),
	}))
	require.NoError(t, repo.UpsertVerification(ctx, &Verification{
		ID:                  uuid.New().String(),
		DeliveryID:          d.ID,
		DeploymentReachable: &yes,
		RepoExists:          &yes,
		OverallStatus:       types.VerificationVerified,
		LastCheckedAt:       time.Now(),
	}))

	snapshots, err := repo.GetByDeliveries(ctx, []string{d.ID})
	require.NoError(t, err)
	require.Contains(t, snapshots, d.ID)

	v := snapshots[d.ID]
	assert.Equal(t, types.VerificationVerified, v.OverallStatus)
	require.NotNil(t, v.DeploymentReachable)
	assert.True(t, *v.DeploymentReachable)
	assert.Nil(t, v.CollaboratorConfirmed)
}

func TestUpsertForgeScoreGuard(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "erin", nil)

	evidenceRow := &ForgeScore{
		BuilderID:      b.ID,
		Score:          420,
		Confidence:     60,
		EffectiveScore: 380,
		Model:          forge.ModelEvidence,
		ComputedAt:     time.Now(),
	}
	require.NoError(t, repo.UpsertForgeScore(ctx, evidenceRow))

	// A legacy result must not replace a stored evidence result.
	require.NoError(t, repo.UpsertForgeScore(ctx, &ForgeScore{
		BuilderID:      b.ID,
		Score:          900,
		Confidence:     30,
		EffectiveScore: 500,
		Model:          forge.ModelLegacy,
		ComputedAt:     time.Now(),
	}))

	got, err := repo.GetForgeScore(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, forge.ModelEvidence, got.Model)
	assert.Equal(t, 420, got.Score)

	// An evidence result replaces anything, including older evidence rows.
	require.NoError(t, repo.UpsertForgeScore(ctx, &ForgeScore{
		BuilderID:      b.ID,
		Score:          510,
		Confidence:     70,
		EffectiveScore: 480,
		Model:          forge.ModelEvidence,
		ComputedAt:     time.Now(),
	}))

	got, err = repo.GetForgeScore(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 510, got.Score)
}

func TestLegacyScoreUpgradesToEvidence(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "frank", nil)

	require.NoError(t, repo.UpsertForgeScore(ctx, &ForgeScore{
		BuilderID:      b.ID,
		Score:          300,
		Model:          forge.ModelLegacy,
		EffectiveScore: 200,
		ComputedAt:     time.Now(),
	}))
	require.NoError(t, repo.UpsertForgeScore(ctx, &ForgeScore{
		BuilderID:      b.ID,
		Score:          450,
		Model:          forge.ModelEvidence,
		EffectiveScore: 400,
		ComputedAt:     time.Now(),
	}))

	got, err := repo.GetForgeScore(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, forge.ModelEvidence, got.Model)
	assert.Equal(t, 450, got.Score)
}

func TestCandidateExclusions(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	owner := insertBuilder(t, repo, "owner", nil)
	member := insertBuilder(t, repo, "member", nil)
	outsider := insertBuilder(t, repo, "outsider", nil)

	unavailable := insertBuilder(t, repo, "away", nil)
	_, err := repo.db.ExecContext(ctx,
		`UPDATE builders SET availability = ? WHERE id = ?`,
		types.AvailabilityUnavailable, unavailable.ID)
	require.NoError(t, err)

	p := insertProject(t, repo, owner.ID, "saas")
	require.NoError(t, repo.AddMembership(ctx, &TeamMembership{
		BuilderID: member.ID,
		ProjectID: p.ID,
		JoinedAt:  time.Now(),
	}))

	candidates, err := repo.ListCandidateBuilders(ctx, p.ID)
	require.NoError(t, err)

	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	assert.Contains(t, ids, outsider.ID)
	assert.NotContains(t, ids, owner.ID)
	assert.NotContains(t, ids, member.ID)
	assert.NotContains(t, ids, unavailable.ID)
}

func TestTopBuildersExcludesUnscored(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	scored := insertBuilder(t, repo, "scored", nil)
	require.NoError(t, repo.UpdateBuilderScores(ctx, scored.ID, 720, 80, 70))
	insertBuilder(t, repo, "unscored", nil)

	top, err := repo.TopBuilders(ctx, 10)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, scored.ID, top[0].ID)
	assert.Equal(t, 720, top[0].ForgeScore)
}

func TestMembershipsAndCollaborators(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	owner := insertBuilder(t, repo, "owner", nil)
	a := insertBuilder(t, repo, "a", nil)
	bb := insertBuilder(t, repo, "b", nil)
	c := insertBuilder(t, repo, "c", nil)

	p1 := insertProject(t, repo, owner.ID, "saas")
	p2 := insertProject(t, repo, owner.ID, "devtools")

	for _, m := range []TeamMembership{
		{BuilderID: a.ID, ProjectID: p1.ID, JoinedAt: time.Now()},
		{BuilderID: bb.ID, ProjectID: p1.ID, JoinedAt: time.Now()},
		{BuilderID: a.ID, ProjectID: p2.ID, JoinedAt: time.Now()},
		{BuilderID: c.ID, ProjectID: p2.ID, JoinedAt: time.Now()},
	} {
		m := m
		require.NoError(t, repo.AddMembership(ctx, &m))
	}

	memberships, err := repo.ListMemberships(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, memberships, 2)
	assert.Equal(t, types.ProjectActive, memberships[0].ProjectStatus)

	n, err := repo.CountDistinctCollaborators(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	categories, err := repo.ListBuilderCategories(ctx, a.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"saas", "devtools"}, categories)
}

func TestActivityEventsSince(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "grace", nil)

	old := &ActivityEvent{
		ID:        uuid.New().String(),
		BuilderID: b.ID,
		Kind:      "delivery_update",
		CreatedAt: time.Now().AddDate(0, -8, 0),
	}
	recent := &ActivityEvent{
		ID:        uuid.New().String(),
		BuilderID: b.ID,
		Kind:      "delivery_update",
		CreatedAt: time.Now().AddDate(0, 0, -3),
	}
	require.NoError(t, repo.CreateActivityEvent(ctx, old))
	require.NoError(t, repo.CreateActivityEvent(ctx, recent))

	events, err := repo.ListByBuilderSince(ctx, b.ID, time.Now().AddDate(-1, 0, 0))
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = repo.ListByBuilderSince(ctx, b.ID, time.Now().AddDate(0, -6, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, recent.ID, events[0].ID)
}

func TestInviteStats(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	owner := insertBuilder(t, repo, "owner", nil)
	b := insertBuilder(t, repo, "invitee", nil)
	p := insertProject(t, repo, owner.ID, "saas")

	makeInvite := func(status types.InvitationStatus, daysAgo int) *Invitation {
		return &Invitation{
			ID:        uuid.New().String(),
			ProjectID: p.ID,
			SenderID:  owner.ID,
			BuilderID: b.ID,
			Status:    status,
			ExpiresAt: time.Now().AddDate(0, 0, 14),
			CreatedAt: time.Now().AddDate(0, 0, -daysAgo),
		}
	}
	require.NoError(t, repo.CreateInvitation(ctx, makeInvite(types.InviteAccepted, 30)))
	require.NoError(t, repo.CreateInvitation(ctx, makeInvite(types.InviteDeclined, 10)))
	require.NoError(t, repo.CreateInvitation(ctx, makeInvite(types.InvitePending, 2)))

	stats, err := repo.GetInviteStats(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Received)
	assert.Equal(t, 1, stats.Accepted)
	assert.Equal(t, 1, stats.Declined)
	assert.Equal(t, 1, stats.Recent7d)

	empty, err := repo.GetInviteStats(ctx, uuid.New().String())
	require.NoError(t, err)
	assert.Zero(t, empty.Received)
}

func TestEvidenceGroupedByDelivery(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "henry", nil)
	d := &Delivery{
		ID:        uuid.New().String(),
		BuilderID: b.ID,
		Title:     "d",
		Status:    types.DeliveryCompleted,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.CreateDelivery(ctx, d))

	first := &Evidence{
		ID:         uuid.New().String(),
		DeliveryID: d.ID,
		Type:       types.EvidenceDeploymentURL,
		URL:        "https://d.example.com",
		Verified:   true,
		CreatedAt:  time.Now().Add(-time.Hour),
	}
	second := &Evidence{
		ID:         uuid.New().String(),
		DeliveryID: d.ID,
		Type:       types.EvidenceScreenshot,
		URL:        "https://img.example.com/s.png",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, repo.CreateEvidence(ctx, first))
	require.NoError(t, repo.CreateEvidence(ctx, second))

	grouped, err := repo.ListByDeliveries(ctx, []string{d.ID})
	require.NoError(t, err)
	require.Len(t, grouped[d.ID], 2)
	assert.Equal(t, first.ID, grouped[d.ID][0].ID)

	none, err := repo.ListByDeliveries(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPlatformCounts(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	b := insertBuilder(t, repo, "iris", nil)
	insertBuilder(t, repo, "judy", nil)

	for _, status := range []types.DeliveryStatus{types.DeliveryVerified, types.DeliveryCompleted} {
		require.NoError(t, repo.CreateDelivery(ctx, &Delivery{
			ID:        uuid.New().String(),
			BuilderID: b.ID,
			Title:     "d",
			Status:    status,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		}))
	}

	builders, err := repo.CountBuilders(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, builders)

	verified, err := repo.CountVerifiedDeliveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, verified)

	n, err := repo.CountVerifiedByBuilder(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
