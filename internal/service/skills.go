package service

import (
	"context"
	"sort"
	"time"

	"github.com/forgeline/forge-backend/internal/adapters"
	"github.com/forgeline/forge-backend/internal/database"
	apperrors "github.com/forgeline/forge-backend/internal/errors"
	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/types"
)

// SkillScorer assesses a builder's skills from merged delivery signals.
type SkillScorer interface {
	Assess(ctx context.Context, signals adapters.SkillSignals) (*adapters.SkillAssessment, error)
}

// SkillService refreshes a builder's skill profile via the external scorer.
type SkillService struct {
	repo   *database.Repository
	scorer SkillScorer
	logger *monitoring.Logger
}

// NewSkillService wires a skill-refresh pipeline over the repository.
func NewSkillService(repo *database.Repository, scorer SkillScorer, logger *monitoring.Logger) *SkillService {
	return &SkillService{repo: repo, scorer: scorer, logger: logger}
}

// Refresh gathers the builder's signals, asks the scorer for an assessment,
// and persists the resulting skill scores on the profile.
func (s *SkillService) Refresh(ctx context.Context, builderID string) (*types.SkillRefreshResponse, error) {
	builder, err := s.repo.GetBuilder(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load builder", err)
	}
	if builder == nil {
		return nil, apperrors.NewNotFoundError("builder", builderID)
	}

	deliveries, err := s.repo.ListByBuilder(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load deliveries", err)
	}

	verified, err := s.repo.CountVerifiedByBuilder(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to count verified deliveries", err)
	}

	categories, err := s.repo.ListBuilderCategories(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load project categories", err)
	}

	signals := adapters.SkillSignals{
		BuilderID:          builderID,
		Roles:              builder.Roles,
		Stacks:             stackUnion(deliveries),
		TotalDeliveries:    len(deliveries),
		VerifiedDeliveries: verified,
		ProjectCategories:  categories,
	}

	start := time.Now()
	assessment, err := s.scorer.Assess(ctx, signals)
	if err != nil {
		return nil, apperrors.NewExternalAPIError("skill_scorer", err)
	}

	if err := s.repo.UpdateBuilderSkills(ctx, builderID, assessment.Skills); err != nil {
		return nil, apperrors.NewInternalError("failed to persist skills", err)
	}

	if s.logger != nil {
		s.logger.SkillRefreshLogger(builderID, assessment.Confidence, time.Since(start))
	}

	return &types.SkillRefreshResponse{
		Success:       true,
		Skills:        assessment.Skills,
		Confidence:    assessment.Confidence,
		Justification: assessment.Justification,
	}, nil
}

// stackUnion collects the distinct stack entries across all deliveries.
func stackUnion(deliveries []database.Delivery) []string {
	seen := make(map[string]struct{})
	for _, d := range deliveries {
		for _, s := range d.Stack {
			seen[s] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
