package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/forgeline/forge-backend/internal/forge"
	"github.com/forgeline/forge-backend/internal/types"
)

// Repository handles database operations.
type Repository struct {
	db *DB
}

// NewRepository creates a new repository over the shared connection.
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// GetBuilder loads a builder by id. Returns nil when the builder does not
// exist.
func (r *Repository) GetBuilder(ctx context.Context, id string) (*Builder, error) {
	var b Builder
	var roles string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, availability, hours_per_week, roles,
		       skill_frontend, skill_backend, skill_product, skill_design, skill_execution,
		       forge_score, confidence_score, reliability_score, created_at, updated_at
		FROM builders
		WHERE id = ?
	`, id).Scan(
		&b.ID, &b.Username, &b.Availability, &b.HoursPerWeek, &roles,
		&b.Skills.Frontend, &b.Skills.Backend, &b.Skills.Product, &b.Skills.Design, &b.Skills.Execution,
		&b.ForgeScore, &b.ConfidenceScore, &b.ReliabilityScore, &b.CreatedAt, &b.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query builder: %w", err)
	}
	b.Roles = decodeStrings(roles)
	return &b, nil
}

// CreateBuilder inserts a new builder row.
func (r *Repository) CreateBuilder(ctx context.Context, b *Builder) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO builders (id, username, availability, hours_per_week, roles,
			skill_frontend, skill_backend, skill_product, skill_design, skill_execution,
			forge_score, confidence_score, reliability_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, b.ID, b.Username, b.Availability, b.HoursPerWeek, encodeStrings(b.Roles),
		b.Skills.Frontend, b.Skills.Backend, b.Skills.Product, b.Skills.Design, b.Skills.Execution,
		b.ForgeScore, b.ConfidenceScore, b.ReliabilityScore, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}
	return nil
}

// UpdateBuilderSkills writes assessed skill dimensions onto the profile.
func (r *Repository) UpdateBuilderSkills(ctx context.Context, builderID string, skills types.SkillScores) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE builders
		SET skill_frontend = ?, skill_backend = ?, skill_product = ?,
		    skill_design = ?, skill_execution = ?, updated_at = ?
		WHERE id = ?
	`, skills.Frontend, skills.Backend, skills.Product, skills.Design, skills.Execution, time.Now(), builderID)
	if err != nil {
		return fmt.Errorf("failed to update builder skills: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UpdateBuilderScores denormalizes the latest score summary onto the profile
// so match reads avoid a join.
func (r *Repository) UpdateBuilderScores(ctx context.Context, builderID string, effective, confidence, reliability int) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE builders
		SET forge_score = ?, confidence_score = ?, reliability_score = ?, updated_at = ?
		WHERE id = ?
	`, effective, confidence, reliability, time.Now(), builderID)
	if err != nil {
		return fmt.Errorf("failed to update builder scores: %w", err)
	}
	return nil
}

// ListByBuilder returns all of a builder's deliveries, newest first.
func (r *Repository) ListByBuilder(ctx context.Context, builderID string) ([]Delivery, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, builder_id, title, status, started_at, completed_at,
		       deployment_url, repo_url, stack, project_id, created_at, updated_at
		FROM deliveries
		WHERE builder_id = ?
		ORDER BY created_at DESC
	`, builderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []Delivery
	for rows.Next() {
		var d Delivery
		var stack string
		if err := rows.Scan(&d.ID, &d.BuilderID, &d.Title, &d.Status, &d.StartedAt, &d.CompletedAt,
			&d.DeploymentURL, &d.RepoURL, &stack, &d.ProjectID, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery: %w", err)
		}
		d.Stack = decodeStrings(stack)
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}

// GetDelivery loads a single delivery by id. Returns nil when not found.
func (r *Repository) GetDelivery(ctx context.Context, id string) (*Delivery, error) {
	var d Delivery
	var stack string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, builder_id, title, status, started_at, completed_at,
		       deployment_url, repo_url, stack, project_id, created_at, updated_at
		FROM deliveries
		WHERE id = ?
	`, id).Scan(&d.ID, &d.BuilderID, &d.Title, &d.Status, &d.StartedAt, &d.CompletedAt,
		&d.DeploymentURL, &d.RepoURL, &stack, &d.ProjectID, &d.CreatedAt, &d.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery: %w", err)
	}
	d.Stack = decodeStrings(stack)
	return &d, nil
}

// CreateDelivery inserts a delivery claim.
func (r *Repository) CreateDelivery(ctx context.Context, d *Delivery) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deliveries (id, builder_id, title, status, started_at, completed_at,
			deployment_url, repo_url, stack, project_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.BuilderID, d.Title, d.Status, d.StartedAt, d.CompletedAt,
		d.DeploymentURL, d.RepoURL, encodeStrings(d.Stack), d.ProjectID, d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create delivery: %w", err)
	}
	return nil
}

// UpdateDeliveryStatus transitions a delivery's status.
func (r *Repository) UpdateDeliveryStatus(ctx context.Context, id string, status types.DeliveryStatus) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE deliveries SET status = ?, updated_at = ? WHERE id = ?
	`, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update delivery status: %w", err)
	}
	return nil
}

// GetByDeliveries returns verification snapshots keyed by delivery id.
func (r *Repository) GetByDeliveries(ctx context.Context, deliveryIDs []string) (map[string]Verification, error) {
	out := make(map[string]Verification, len(deliveryIDs))
	if len(deliveryIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT id, delivery_id, deployment_reachable, repo_exists,
		       timeline_verified, collaborator_confirmed, overall_status, last_checked_at
		FROM verifications
		WHERE delivery_id IN (%s)
	`, placeholders(len(deliveryIDs)))

	rows, err := r.db.QueryContext(ctx, query, toArgs(deliveryIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query verifications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v Verification
		if err := rows.Scan(&v.ID, &v.DeliveryID, &v.DeploymentReachable, &v.RepoExists,
			&v.TimelineVerified, &v.CollaboratorConfirmed, &v.OverallStatus, &v.LastCheckedAt); err != nil {
			return nil, fmt.Errorf("failed to scan verification: %w", err)
		}
		out[v.DeliveryID] = v
	}
	return out, rows.Err()
}

// UpsertVerification writes the one-per-delivery check snapshot, replacing
// any previous run wholesale.
func (r *Repository) UpsertVerification(ctx context.Context, v *Verification) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO verifications (id, delivery_id, deployment_reachable, repo_exists,
			timeline_verified, collaborator_confirmed, overall_status, last_checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(delivery_id) DO UPDATE SET
			deployment_reachable = excluded.deployment_reachable,
			repo_exists = excluded.repo_exists,
			timeline_verified = excluded.timeline_verified,
			collaborator_confirmed = excluded.collaborator_confirmed,
			overall_status = excluded.overall_status,
			last_checked_at = excluded.last_checked_at
	`, v.ID, v.DeliveryID, v.DeploymentReachable, v.RepoExists,
		v.TimelineVerified, v.CollaboratorConfirmed, v.OverallStatus, v.LastCheckedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert verification: %w", err)
	}
	return nil
}

// ListByDeliveries returns evidence rows grouped by delivery id.
func (r *Repository) ListByDeliveries(ctx context.Context, deliveryIDs []string) (map[string][]Evidence, error) {
	out := make(map[string][]Evidence, len(deliveryIDs))
	if len(deliveryIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT id, delivery_id, evidence_type, url, verified, created_at
		FROM evidence
		WHERE delivery_id IN (%s)
		ORDER BY created_at ASC
	`, placeholders(len(deliveryIDs)))

	rows, err := r.db.QueryContext(ctx, query, toArgs(deliveryIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query evidence: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e Evidence
		if err := rows.Scan(&e.ID, &e.DeliveryID, &e.Type, &e.URL, &e.Verified, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan evidence: %w", err)
		}
		out[e.DeliveryID] = append(out[e.DeliveryID], e)
	}
	return out, rows.Err()
}

// CreateEvidence appends an evidence row. Evidence is never updated or
// deleted once written.
func (r *Repository) CreateEvidence(ctx context.Context, e *Evidence) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO evidence (id, delivery_id, evidence_type, url, verified, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.DeliveryID, e.Type, e.URL, e.Verified, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create evidence: %w", err)
	}
	return nil
}

// ListMemberships returns a builder's team memberships with the parent
// project status joined in.
func (r *Repository) ListMemberships(ctx context.Context, builderID string) ([]TeamMembership, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT m.builder_id, m.project_id, p.status, m.joined_at, m.left_at
		FROM team_memberships m
		JOIN projects p ON p.id = m.project_id
		WHERE m.builder_id = ?
	`, builderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}
	defer rows.Close()

	var memberships []TeamMembership
	for rows.Next() {
		var m TeamMembership
		if err := rows.Scan(&m.BuilderID, &m.ProjectID, &m.ProjectStatus, &m.JoinedAt, &m.LeftAt); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

// CountDistinctCollaborators counts distinct other builders who shared a
// project with the given builder.
func (r *Repository) CountDistinctCollaborators(ctx context.Context, builderID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT other.builder_id)
		FROM team_memberships mine
		JOIN team_memberships other
		  ON other.project_id = mine.project_id AND other.builder_id != mine.builder_id
		WHERE mine.builder_id = ?
	`, builderID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count collaborators: %w", err)
	}
	return n, nil
}

// ListByBuilderSince returns activity events after the given instant.
func (r *Repository) ListByBuilderSince(ctx context.Context, builderID string, since time.Time) ([]ActivityEvent, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, builder_id, kind, created_at
		FROM activity_events
		WHERE builder_id = ? AND created_at > ?
		ORDER BY created_at ASC
	`, builderID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity: %w", err)
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var ev ActivityEvent
		if err := rows.Scan(&ev.ID, &ev.BuilderID, &ev.Kind, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity event: %w", err)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CreateActivityEvent records a timestamped builder action.
func (r *Repository) CreateActivityEvent(ctx context.Context, ev *ActivityEvent) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO activity_events (id, builder_id, kind, created_at)
		VALUES (?, ?, ?, ?)
	`, ev.ID, ev.BuilderID, ev.Kind, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create activity event: %w", err)
	}
	return nil
}

// GetStatuses resolves project statuses for the given ids.
func (r *Repository) GetStatuses(ctx context.Context, projectIDs []string) (map[string]types.ProjectStatus, error) {
	out := make(map[string]types.ProjectStatus, len(projectIDs))
	if len(projectIDs) == 0 {
		return out, nil
	}

	query := fmt.Sprintf(`
		SELECT id, status FROM projects WHERE id IN (%s)
	`, placeholders(len(projectIDs)))

	rows, err := r.db.QueryContext(ctx, query, toArgs(projectIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query project statuses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		var status types.ProjectStatus
		if err := rows.Scan(&id, &status); err != nil {
			return nil, fmt.Errorf("failed to scan project status: %w", err)
		}
		out[id] = status
	}
	return out, rows.Err()
}

// GetProject loads a project by id. Returns nil when not found.
func (r *Repository) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	var skills, roles string
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, title, required_skills, roles_needed,
		       hours_per_week_min, hours_per_week_max, team_size_target,
		       timeline_weeks, category, stage, status, created_at
		FROM projects
		WHERE id = ?
	`, id).Scan(&p.ID, &p.OwnerID, &p.Title, &skills, &roles,
		&p.HoursPerWeekMin, &p.HoursPerWeekMax, &p.TeamSizeTarget,
		&p.TimelineWeeks, &p.Category, &p.Stage, &p.Status, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query project: %w", err)
	}
	p.RequiredSkills = decodeStrings(skills)
	p.RolesNeeded = decodeStrings(roles)
	return &p, nil
}

// CreateProject persists a posted project.
func (r *Repository) CreateProject(ctx context.Context, p *Project) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, title, required_skills, roles_needed,
			hours_per_week_min, hours_per_week_max, team_size_target,
			timeline_weeks, category, stage, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.OwnerID, p.Title, encodeStrings(p.RequiredSkills), encodeStrings(p.RolesNeeded),
		p.HoursPerWeekMin, p.HoursPerWeekMax, p.TeamSizeTarget,
		p.TimelineWeeks, p.Category, p.Stage, p.Status, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// AddMembership records a builder joining a project team.
func (r *Repository) AddMembership(ctx context.Context, m *TeamMembership) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO team_memberships (builder_id, project_id, joined_at, left_at)
		VALUES (?, ?, ?, ?)
	`, m.BuilderID, m.ProjectID, m.JoinedAt, m.LeftAt)
	if err != nil {
		return fmt.Errorf("failed to add membership: %w", err)
	}
	return nil
}

// ListCandidateBuilders returns builders eligible for matching against a
// project: anyone not already on its team, not its owner, and not
// unavailable.
func (r *Repository) ListCandidateBuilders(ctx context.Context, projectID string) ([]Builder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.id, b.username, b.availability, b.hours_per_week, b.roles,
		       b.skill_frontend, b.skill_backend, b.skill_product, b.skill_design, b.skill_execution,
		       b.forge_score, b.confidence_score, b.reliability_score, b.created_at, b.updated_at
		FROM builders b
		WHERE b.availability != ?
		  AND b.id NOT IN (SELECT builder_id FROM team_memberships WHERE project_id = ?)
		  AND b.id NOT IN (SELECT owner_id FROM projects WHERE id = ?)
		ORDER BY b.forge_score DESC, b.username ASC
	`, types.AvailabilityUnavailable, projectID, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	return scanBuilders(rows)
}

// TopBuilders returns the highest effective scores for the leaderboard.
func (r *Repository) TopBuilders(ctx context.Context, limit int) ([]Builder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, username, availability, hours_per_week, roles,
		       skill_frontend, skill_backend, skill_product, skill_design, skill_execution,
		       forge_score, confidence_score, reliability_score, created_at, updated_at
		FROM builders
		WHERE forge_score > 0
		ORDER BY forge_score DESC, username ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top builders: %w", err)
	}
	defer rows.Close()

	return scanBuilders(rows)
}

func scanBuilders(rows *sql.Rows) ([]Builder, error) {
	var builders []Builder
	for rows.Next() {
		var b Builder
		var roles string
		if err := rows.Scan(&b.ID, &b.Username, &b.Availability, &b.HoursPerWeek, &roles,
			&b.Skills.Frontend, &b.Skills.Backend, &b.Skills.Product, &b.Skills.Design, &b.Skills.Execution,
			&b.ForgeScore, &b.ConfidenceScore, &b.ReliabilityScore, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan builder: %w", err)
		}
		b.Roles = decodeStrings(roles)
		builders = append(builders, b)
	}
	return builders, rows.Err()
}

// GetForgeScore loads the persisted score row for a builder. Returns nil
// when no score has been computed yet.
func (r *Repository) GetForgeScore(ctx context.Context, builderID string) (*ForgeScore, error) {
	var s ForgeScore
	err := r.db.QueryRowContext(ctx, `
		SELECT builder_id, score, delivery_success_component, reliability_component,
		       quality_component, consistency_component, confidence, effective_score,
		       model, computed_at
		FROM forge_scores
		WHERE builder_id = ?
	`, builderID).Scan(&s.BuilderID, &s.Score, &s.DeliverySuccessComponent, &s.ReliabilityComponent,
		&s.QualityComponent, &s.ConsistencyComponent, &s.Confidence, &s.EffectiveScore,
		&s.Model, &s.ComputedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query forge score: %w", err)
	}
	return &s, nil
}

// UpsertForgeScore overwrites a builder's score row wholesale, except that a
// legacy-model result never replaces an evidence-model row.
func (r *Repository) UpsertForgeScore(ctx context.Context, s *ForgeScore) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forge_scores (builder_id, score, delivery_success_component,
			reliability_component, quality_component, consistency_component,
			confidence, effective_score, model, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(builder_id) DO UPDATE SET
			score = excluded.score,
			delivery_success_component = excluded.delivery_success_component,
			reliability_component = excluded.reliability_component,
			quality_component = excluded.quality_component,
			consistency_component = excluded.consistency_component,
			confidence = excluded.confidence,
			effective_score = excluded.effective_score,
			model = excluded.model,
			computed_at = excluded.computed_at
		WHERE NOT (forge_scores.model = ? AND excluded.model = ?)
	`, s.BuilderID, s.Score, s.DeliverySuccessComponent,
		s.ReliabilityComponent, s.QualityComponent, s.ConsistencyComponent,
		s.Confidence, s.EffectiveScore, s.Model, s.ComputedAt,
		forge.ModelEvidence, forge.ModelLegacy)
	if err != nil {
		return fmt.Errorf("failed to upsert forge score: %w", err)
	}
	return nil
}

// InviteStats aggregates a builder's invitation outcomes.
type InviteStats struct {
	Received int
	Accepted int
	Declined int
	Recent7d int
}

// GetInviteStats aggregates invitation counts for the acceptance estimator.
func (r *Repository) GetInviteStats(ctx context.Context, builderID string) (InviteStats, error) {
	var s InviteStats
	weekAgo := time.Now().AddDate(0, 0, -7)
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN created_at > ? THEN 1 ELSE 0 END), 0)
		FROM invitations
		WHERE builder_id = ?
	`, types.InviteAccepted, types.InviteDeclined, weekAgo, builderID).Scan(
		&s.Received, &s.Accepted, &s.Declined, &s.Recent7d)
	if err != nil {
		return InviteStats{}, fmt.Errorf("failed to query invite stats: %w", err)
	}
	return s, nil
}

// CreateInvitation inserts an invitation edge.
func (r *Repository) CreateInvitation(ctx context.Context, inv *Invitation) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO invitations (id, project_id, sender_id, builder_id, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, inv.ID, inv.ProjectID, inv.SenderID, inv.BuilderID, inv.Status, inv.ExpiresAt, inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}
	return nil
}

// CountVerifiedByBuilder counts a single builder's verified deliveries.
func (r *Repository) CountVerifiedByBuilder(ctx context.Context, builderID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM deliveries WHERE builder_id = ? AND status = ?
	`, builderID, types.DeliveryVerified).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified deliveries: %w", err)
	}
	return n, nil
}

// ListBuilderCategories returns the distinct categories of projects the
// builder has been on, as a proxy for domain familiarity.
func (r *Repository) ListBuilderCategories(ctx context.Context, builderID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT DISTINCT p.category
		FROM team_memberships m
		JOIN projects p ON p.id = m.project_id
		WHERE m.builder_id = ? AND p.category != ''
	`, builderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query builder categories: %w", err)
	}
	defer rows.Close()

	var categories []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CountBuilders returns the number of registered builders, for live stats.
func (r *Repository) CountBuilders(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM builders`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count builders: %w", err)
	}
	return n, nil
}

// CountVerifiedDeliveries returns the number of verified deliveries across
// the platform, for live stats.
func (r *Repository) CountVerifiedDeliveries(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM deliveries WHERE status = ?
	`, types.DeliveryVerified).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count verified deliveries: %w", err)
	}
	return n, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func toArgs(ids []string) []interface{} {
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return args
}

func encodeStrings(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

func decodeStrings(raw string) []string {
	if raw == "" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
