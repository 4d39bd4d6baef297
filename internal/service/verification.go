package service

import (
	"context"
	"time"

	"github.com/forgeline/forge-backend/internal/database"
	apperrors "github.com/forgeline/forge-backend/internal/errors"
	"github.com/forgeline/forge-backend/internal/monitoring"
	"github.com/forgeline/forge-backend/internal/types"
	"github.com/forgeline/forge-backend/internal/verify"
)

// VerificationService runs evidence checks for a delivery and persists the
// snapshot.
type VerificationService struct {
	repo   *database.Repository
	logger *monitoring.Logger
	now    func() time.Time
}

// NewVerificationService wires verification over the repository.
func NewVerificationService(repo *database.Repository, logger *monitoring.Logger) *VerificationService {
	return &VerificationService{repo: repo, logger: logger, now: time.Now}
}

// Run evaluates a delivery's evidence, replaces its verification snapshot,
// and promotes a completed delivery to verified when every assessed check
// passed. Re-running is always safe: the snapshot is replaced wholesale and
// the promotion only moves completed forward.
func (s *VerificationService) Run(ctx context.Context, deliveryID string) (*types.VerificationPayload, error) {
	delivery, err := s.repo.GetDelivery(ctx, deliveryID)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load delivery", err)
	}
	if delivery == nil {
		return nil, apperrors.NewNotFoundError("delivery", deliveryID)
	}

	evidenceRows, err := s.repo.ListByDeliveries(ctx, []string{deliveryID})
	if err != nil {
		return nil, apperrors.NewInternalError("failed to load evidence", err)
	}

	items := make([]verify.EvidenceItem, 0, len(evidenceRows[deliveryID]))
	for _, e := range evidenceRows[deliveryID] {
		items = append(items, verify.EvidenceItem{Type: e.Type, Verified: e.Verified})
	}

	result := verify.Run(verify.Input{
		Evidence:      items,
		DeploymentURL: delivery.DeploymentURL,
		RepoURL:       delivery.RepoURL,
		StartedAt:     delivery.StartedAt,
		CompletedAt:   delivery.CompletedAt,
	})

	row := &database.Verification{
		ID:                    newID(),
		DeliveryID:            deliveryID,
		DeploymentReachable:   result.DeploymentReachable,
		RepoExists:            result.RepoExists,
		TimelineVerified:      result.TimelineVerified,
		CollaboratorConfirmed: result.CollaboratorConfirmed,
		OverallStatus:         result.OverallStatus,
		LastCheckedAt:         s.now(),
	}
	if err := s.repo.UpsertVerification(ctx, row); err != nil {
		return nil, apperrors.NewInternalError("failed to persist verification", err)
	}

	if result.OverallStatus == types.VerificationVerified && delivery.Status == types.DeliveryCompleted {
		if err := s.repo.UpdateDeliveryStatus(ctx, deliveryID, types.DeliveryVerified); err != nil {
			return nil, apperrors.NewInternalError("failed to promote delivery", err)
		}
	}

	s.logger.VerificationLogger(deliveryID, string(result.OverallStatus), len(items))

	return &types.VerificationPayload{
		DeploymentReachable:   result.DeploymentReachable,
		RepoExists:            result.RepoExists,
		TimelineVerified:      result.TimelineVerified,
		CollaboratorConfirmed: result.CollaboratorConfirmed,
		OverallStatus:         result.OverallStatus,
	}, nil
}
