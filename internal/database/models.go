package database

import (
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/forge-backend/internal/types"
)

// Builder is a platform user who delivers work and accumulates a score.
type Builder struct {
	ID               string             `json:"id" db:"id"`
	Username         string             `json:"username" db:"username"`
	Availability     types.Availability `json:"availability" db:"availability"`
	HoursPerWeek     int                `json:"hours_per_week" db:"hours_per_week"`
	Roles            []string           `json:"roles" db:"roles"`
	Skills           types.SkillScores  `json:"skills" db:"skills"`
	ForgeScore       int                `json:"forge_score" db:"forge_score"` // 0 = not computed
	ConfidenceScore  int                `json:"confidence_score" db:"confidence_score"`
	ReliabilityScore int                `json:"reliability_score" db:"reliability_score"`
	CreatedAt        time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at" db:"updated_at"`
}

// Delivery is a claimed unit of work. Dropped is terminal but retained.
type Delivery struct {
	ID            string               `json:"id" db:"id"`
	BuilderID     string               `json:"builder_id" db:"builder_id"`
	Title         string               `json:"title" db:"title"`
	Status        types.DeliveryStatus `json:"status" db:"status"`
	StartedAt     *time.Time           `json:"started_at" db:"started_at"`
	CompletedAt   *time.Time           `json:"completed_at" db:"completed_at"`
	DeploymentURL string               `json:"deployment_url" db:"deployment_url"`
	RepoURL       string               `json:"repo_url" db:"repo_url"`
	Stack         []string             `json:"stack" db:"stack"`
	ProjectID     string               `json:"project_id" db:"project_id"` // optional team project link
	CreatedAt     time.Time            `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at" db:"updated_at"`
}

// Evidence is an append-only, typed claim attached to a delivery.
type Evidence struct {
	ID         string             `json:"id" db:"id"`
	DeliveryID string             `json:"delivery_id" db:"delivery_id"`
	Type       types.EvidenceType `json:"evidence_type" db:"evidence_type"`
	URL        string             `json:"url" db:"url"`
	Verified   bool               `json:"verified" db:"verified"`
	CreatedAt  time.Time          `json:"created_at" db:"created_at"`
}

// Verification is the one-per-delivery snapshot of check outcomes.
type Verification struct {
	ID                    string                   `json:"id" db:"id"`
	DeliveryID            string                   `json:"delivery_id" db:"delivery_id"`
	DeploymentReachable   *bool                    `json:"deployment_reachable" db:"deployment_reachable"`
	RepoExists            *bool                    `json:"repo_exists" db:"repo_exists"`
	TimelineVerified      *bool                    `json:"timeline_verified" db:"timeline_verified"`
	CollaboratorConfirmed *bool                    `json:"collaborator_confirmed" db:"collaborator_confirmed"`
	OverallStatus         types.VerificationStatus `json:"overall_status" db:"overall_status"`
	LastCheckedAt         time.Time                `json:"last_checked_at" db:"last_checked_at"`
}

// ForgeScore is the single persisted score row per builder, overwritten
// wholesale on each computation.
type ForgeScore struct {
	BuilderID                string    `json:"builder_id" db:"builder_id"`
	Score                    int       `json:"score" db:"score"`
	DeliverySuccessComponent int       `json:"delivery_success_component" db:"delivery_success_component"`
	ReliabilityComponent     int       `json:"reliability_component" db:"reliability_component"`
	QualityComponent         int       `json:"quality_component" db:"quality_component"`
	ConsistencyComponent     int       `json:"consistency_component" db:"consistency_component"`
	Confidence               int       `json:"confidence" db:"confidence"`
	EffectiveScore           int       `json:"effective_score" db:"effective_score"`
	Model                    string    `json:"model" db:"model"`
	ComputedAt               time.Time `json:"computed_at" db:"computed_at"`
}

// Project is a posted work opportunity.
type Project struct {
	ID              string              `json:"id" db:"id"`
	OwnerID         string              `json:"owner_id" db:"owner_id"`
	Title           string              `json:"title" db:"title"`
	RequiredSkills  []string            `json:"required_skills" db:"required_skills"`
	RolesNeeded     []string            `json:"roles_needed" db:"roles_needed"`
	HoursPerWeekMin int                 `json:"hours_per_week_min" db:"hours_per_week_min"`
	HoursPerWeekMax int                 `json:"hours_per_week_max" db:"hours_per_week_max"`
	TeamSizeTarget  int                 `json:"team_size_target" db:"team_size_target"`
	TimelineWeeks   int                 `json:"timeline_weeks" db:"timeline_weeks"`
	Category        string              `json:"category" db:"category"`
	Stage           string              `json:"stage" db:"stage"`
	Status          types.ProjectStatus `json:"status" db:"status"`
	CreatedAt       time.Time           `json:"created_at" db:"created_at"`
}

// Invitation is a directed sender-to-builder edge for a project.
type Invitation struct {
	ID        string                 `json:"id" db:"id"`
	ProjectID string                 `json:"project_id" db:"project_id"`
	SenderID  string                 `json:"sender_id" db:"sender_id"`
	BuilderID string                 `json:"builder_id" db:"builder_id"`
	Status    types.InvitationStatus `json:"status" db:"status"`
	ExpiresAt time.Time              `json:"expires_at" db:"expires_at"`
	CreatedAt time.Time              `json:"created_at" db:"created_at"`
}

// TeamMembership links a builder to a project with the parent status
// denormalized onto the read path.
type TeamMembership struct {
	BuilderID     string              `json:"builder_id" db:"builder_id"`
	ProjectID     string              `json:"project_id" db:"project_id"`
	ProjectStatus types.ProjectStatus `json:"project_status" db:"project_status"`
	JoinedAt      time.Time           `json:"joined_at" db:"joined_at"`
	LeftAt        *time.Time          `json:"left_at" db:"left_at"`
}

// ActivityEvent is any timestamped builder action that counts as activity.
type ActivityEvent struct {
	ID        string    `json:"id" db:"id"`
	BuilderID string    `json:"builder_id" db:"builder_id"`
	Kind      string    `json:"kind" db:"kind"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// NewBuilder creates a builder with defaults applied at signup.
func NewBuilder(username string) *Builder {
	now := time.Now()
	return &Builder{
		ID:           uuid.New().String(),
		Username:     username,
		Availability: types.AvailabilityOpen,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewDelivery creates an in-progress delivery claim.
func NewDelivery(builderID, title string) *Delivery {
	now := time.Now()
	return &Delivery{
		ID:        uuid.New().String(),
		BuilderID: builderID,
		Title:     title,
		Status:    types.DeliveryInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
