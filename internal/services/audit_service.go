package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/driftboard/driftboard/internal/domain/audit"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/metrics"
)

// AuditService implements audit.Recorder
type AuditService struct {
	repo   audit.Repository
	logger *logger.Logger
}

// NewAuditService creates a new audit recorder
func NewAuditService(repo audit.Repository, log *logger.Logger) audit.Recorder {
	return &AuditService{
		repo:   repo,
		logger: log,
	}
}

// Record appends an audit entry. A storage failure is logged and
// swallowed: audit logging must never block the operation that
// triggered it, so Record returns nil instead of an error.
func (s *AuditService) Record(ctx context.Context, e audit.Entry) *audit.Log {
	l := &audit.Log{
		ID:         uuid.New().String(),
		Action:     e.Action,
		DriftID:    e.DriftID,
		ActorID:    e.ActorID,
		ActorEmail: e.ActorEmail,
		OldValue:   marshalSnapshot(e.OldValue),
		NewValue:   marshalSnapshot(e.NewValue),
		Details:    e.Details,
		CreatedAt:  time.Now(),
	}

	if err := s.repo.Create(ctx, l); err != nil {
		metrics.AuditWriteFailed()
		s.logger.WithFields(map[string]interface{}{
			"action":   e.Action,
			"drift_id": e.DriftID,
			"actor_id": e.ActorID,
		}).WithError(err).Error("Failed to write audit log")
		return nil
	}

	return l
}

// List retrieves audit entries with filters and pagination
func (s *AuditService) List(ctx context.Context, filter audit.Filter, limit, offset int) ([]*audit.Log, int64, error) {
	return s.repo.ListWithPagination(ctx, filter, limit, offset)
}

func marshalSnapshot(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
