// Package service composes the pure scoring, verification, and matching
// engines over repository reads and writes. Handlers talk to this layer,
// never to the repositories directly.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/forgeline/forge-backend/internal/database"
	apperrors "github.com/forgeline/forge-backend/internal/errors"
	"github.com/forgeline/forge-backend/internal/evidence"
	"github.com/forgeline/forge-backend/internal/forge"
	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/types"
)

// ScoreService computes and persists builder scores.
type ScoreService struct {
	repo     *database.Repository
	agg      *evidence.Aggregator
	evidence forge.Strategy
	legacy   forge.Strategy
	logger   *monitoring.Logger
	now      func() time.Time
}

// NewScoreService wires the score pipeline over the repository.
func NewScoreService(repo *database.Repository, logger *monitoring.Logger) *ScoreService {
	return &ScoreService{
		repo:     repo,
		agg:      evidence.NewAggregator(repo, repo, repo, repo, repo, repo),
		evidence: forge.NewEvidenceStrategy(),
		legacy:   forge.NewLegacyStrategy(),
		logger:   logger,
		now:      time.Now,
	}
}

// Compute aggregates the builder's evidence, runs the scoring model, and
// persists the result. Builders with no verified deliveries but pre-existing
// self-reported history are scored with the legacy model instead; a legacy
// result never overwrites a stored evidence result.
func (s *ScoreService) Compute(ctx context.Context, builderID string) (*types.ScorePayload, error) {
	builder, err := s.repo.GetBuilder(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load builder", err)
	}
	if builder == nil {
		return nil, apperrors.NewNotFoundError("builder", builderID)
	}

	input, err := s.agg.Collect(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to aggregate evidence", err)
	}

	strategy := s.evidence
	if input.Delivery.Verified == 0 && input.Legacy.TotalDeliveries > 0 {
		strategy = s.legacy
	}

	start := s.now()
	result := strategy.Score(input)
	s.logger.ScoreLogger(builderID, result.Model, result.Score, result.Confidence, s.now().Sub(start))

	row := &database.ForgeScore{
		BuilderID:                builderID,
		Score:                    result.Score,
		DeliverySuccessComponent: result.DeliverySuccessComponent,
		ReliabilityComponent:     result.ReliabilityComponent,
		QualityComponent:         result.QualityComponent,
		ConsistencyComponent:     result.ConsistencyComponent,
		Confidence:               result.Confidence,
		EffectiveScore:           result.EffectiveScore,
		Model:                    result.Model,
		ComputedAt:               s.now(),
	}
	if err := s.repo.UpsertForgeScore(ctx, row); err != nil {
		return nil, apperrors.NewInternalError("failed to persist score", err)
	}

	// The upsert guard may have kept an existing evidence row; read back the
	// stored state so the response reflects what is actually persisted.
	stored, err := s.repo.GetForgeScore(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to read back score", err)
	}
	if stored == nil {
		stored = row
	}

	if err := s.repo.UpdateBuilderScores(ctx, builderID, stored.EffectiveScore, stored.Confidence, stored.ReliabilityComponent/10); err != nil {
		return nil, apperrors.NewInternalError("failed to denormalize score", err)
	}

	payload := scorePayload(stored)
	return &payload, nil
}

// Get returns the persisted score for a builder, or a not-found error when
// none has been computed.
func (s *ScoreService) Get(ctx context.Context, builderID string) (*types.ScorePayload, error) {
	builder, err := s.repo.GetBuilder(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load builder", err)
	}
	if builder == nil {
		return nil, apperrors.NewNotFoundError("builder", builderID)
	}

	stored, err := s.repo.GetForgeScore(ctx, builderID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load score", err)
	}
	if stored == nil {
		return nil, apperrors.NewNotFoundError("score", builderID)
	}

	payload := scorePayload(stored)
	return &payload, nil
}

func scorePayload(s *database.ForgeScore) types.ScorePayload {
	return types.ScorePayload{
		Score:                    s.Score,
		DeliverySuccessComponent: s.DeliverySuccessComponent,
		ReliabilityComponent:     s.ReliabilityComponent,
		QualityComponent:         s.QualityComponent,
		ConsistencyComponent:     s.ConsistencyComponent,
		Confidence:               s.Confidence,
		EffectiveScore:           s.EffectiveScore,
		Model:                    s.Model,
		ComputedAt:               s.ComputedAt,
	}
}

func newID() string {
	return uuid.New().String()
}
