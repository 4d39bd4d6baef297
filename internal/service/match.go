package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeline/forge-backend/internal/database"
	apperrors "github.com/forgeline/forge-backend/internal/errors"
	"github.com/forgeline/forge-backend/internal/match"
	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/types"
)

// MatchService produces ranked candidate lists for projects.
type MatchService struct {
	repo   *database.Repository
	logger *monitoring.Logger
}

// NewMatchService wires matching over the repository.
func NewMatchService(repo *database.Repository, logger *monitoring.Logger) *MatchService {
	return &MatchService{repo: repo, logger: logger}
}

// OwnerMatches ranks the best candidates for a project owner's invite view.
func (s *MatchService) OwnerMatches(ctx context.Context, projectID string) (*types.MatchResponse, error) {
	return s.matches(ctx, projectID, "", match.OwnerMatchLimit)
}

// RoleMatches ranks candidates for one named role on the project. The pool
// is wider and coarser than the owner view.
func (s *MatchService) RoleMatches(ctx context.Context, projectID, role string) (*types.MatchResponse, error) {
	return s.matches(ctx, projectID, role, match.RoleMatchLimit)
}

func (s *MatchService) matches(ctx context.Context, projectID, role string, limit int) (*types.MatchResponse, error) {
	project, err := s.repo.GetProject(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load project", err)
	}
	if project == nil {
		return nil, apperrors.NewNotFoundError("project", projectID)
	}

	owner, err := s.repo.GetBuilder(ctx, project.OwnerID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load project owner", err)
	}
	ownerScore := 0
	if owner != nil {
		ownerScore = owner.ForgeScore
	}

	candidates, err := s.repo.ListCandidateBuilders(ctx, projectID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load candidates", err)
	}

	profile := match.ProjectProfile{
		RequiredSkills:  project.RequiredSkills,
		RolesNeeded:     project.RolesNeeded,
		HoursPerWeekMin: project.HoursPerWeekMin,
		HoursPerWeekMax: project.HoursPerWeekMax,
		TeamSizeTarget:  project.TeamSizeTarget,
		Stage:           project.Stage,
		Category:        project.Category,
	}
	if role != "" {
		profile.RolesNeeded = []string{role}
	}

	scored := make([]match.Candidate, 0, len(candidates))
	for _, b := range candidates {
		if role != "" && !hasRole(b.Roles, role) {
			continue
		}

		verified, err := s.repo.CountVerifiedByBuilder(ctx, b.ID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to count deliveries", err)
		}
		categories, err := s.repo.ListBuilderCategories(ctx, b.ID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load categories", err)
		}
		invites, err := s.repo.GetInviteStats(ctx, b.ID)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to load invite history", err)
		}

		comp := match.Compatibility(profile, match.BuilderProfile{
			Skills:             b.Skills,
			Roles:              b.Roles,
			Availability:       b.Availability,
			HoursPerWeek:       b.HoursPerWeek,
			ForgeScore:         b.ForgeScore,
			ReliabilityScore:   b.ReliabilityScore,
			VerifiedDeliveries: verified,
			Categories:         categories,
		})
		acc := match.Acceptance(match.AcceptanceInput{
			Availability:     b.Availability,
			OwnerForgeScore:  ownerScore,
			ProjectStage:     project.Stage,
			CompatibilityPct: comp.ScorePercent,
			History: match.InviteHistory{
				Received:        invites.Received,
				Accepted:        invites.Accepted,
				Declined:        invites.Declined,
				RecentInvites7d: invites.Recent7d,
			},
		})

		scored = append(scored, match.Candidate{
			BuilderID:     b.ID,
			ForgeScore:    b.ForgeScore,
			Compatibility: comp,
			Acceptance:    acc,
		})
	}

	ranked := match.Rank(scored, limit)
	s.logger.MatchLogger(projectID, role, len(scored), len(ranked))

	entries := make([]types.MatchEntry, 0, len(ranked))
	for _, c := range ranked {
		entries = append(entries, types.MatchEntry{
			BuilderID:          c.BuilderID,
			Score:              c.Compatibility.ScorePercent,
			Explanation:        explain(c),
			CapabilityFit:      c.Compatibility.CapabilityFit,
			ReliabilityFit:     c.Compatibility.ReliabilityFit,
			CommitmentFit:      c.Compatibility.CommitmentFit,
			DeliveryHistoryFit: c.Compatibility.DeliveryHistoryFit,
			Acceptance: types.AcceptancePayload{
				Percent:    c.Acceptance.Percent,
				Confidence: c.Acceptance.Confidence,
				Reasons:    c.Acceptance.Reasons,
			},
		})
	}
	return &types.MatchResponse{Matches: entries}, nil
}

// explain names the candidate's strongest facet so the list is scannable.
func explain(c match.Candidate) string {
	strongest, value := "skill alignment", c.Compatibility.CapabilityFit
	if c.Compatibility.ReliabilityFit > value {
		strongest, value = "proven reliability", c.Compatibility.ReliabilityFit
	}
	if c.Compatibility.CommitmentFit > value {
		strongest, value = "availability and commitment", c.Compatibility.CommitmentFit
	}
	if c.Compatibility.DeliveryHistoryFit > value {
		strongest, value = "relevant delivery history", c.Compatibility.DeliveryHistoryFit
	}
	return fmt.Sprintf("%d%% fit, strongest on %s", c.Compatibility.ScorePercent, strongest)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if strings.EqualFold(strings.TrimSpace(r), strings.TrimSpace(role)) {
			return true
		}
	}
	return false
}
