package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/pkg/logger"
	"github.com/driftboard/driftboard/internal/pkg/metrics"
)

// AlertService implements alert.Service
type AlertService struct {
	repo   alert.Repository
	logger *logger.Logger
}

// NewAlertService creates a new alert service
func NewAlertService(repo alert.Repository, log *logger.Logger) alert.Service {
	return &AlertService{
		repo:   repo,
		logger: log,
	}
}

// Create persists a new alert
func (s *AlertService) Create(ctx context.Context, a *alert.Alert) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create alert")
		return err
	}

	metrics.AlertCreated(string(a.Type))
	s.logger.WithFields(map[string]interface{}{
		"alert_id": a.ID,
		"drift_id": a.DriftID,
		"severity": a.Severity,
		"type":     a.Type,
	}).Info("Alert created")

	return nil
}

// MarkAllByDriftAsRead marks every unread alert linked to the drift as
// read. Best-effort: a storage failure is logged and 0 is returned.
func (s *AlertService) MarkAllByDriftAsRead(ctx context.Context, driftID, actorID string) int64 {
	count, err := s.repo.MarkAllByDriftRead(ctx, driftID, actorID)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"drift_id": driftID,
			"actor_id": actorID,
		}).WithError(err).Error("Failed to mark drift alerts read")
		return 0
	}

	if count > 0 {
		s.logger.WithFields(map[string]interface{}{
			"drift_id": driftID,
			"count":    count,
		}).Info("Drift alerts marked read")
	}

	return count
}

// MarkRead marks a single alert as read
func (s *AlertService) MarkRead(ctx context.Context, id, actorID string) (*alert.Alert, error) {
	a, err := s.repo.MarkRead(ctx, id, actorID)
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"alert_id": id,
		"actor_id": actorID,
	}).Info("Alert marked read")

	return a, nil
}

// GetUnreadCount counts unread alerts
func (s *AlertService) GetUnreadCount(ctx context.Context) (int, error) {
	return s.repo.UnreadCount(ctx)
}

// CountByDrift counts alerts referencing the drift
func (s *AlertService) CountByDrift(ctx context.Context, driftID string) (int, error) {
	return s.repo.CountByDrift(ctx, driftID)
}

// List retrieves alerts with filters and pagination
func (s *AlertService) List(ctx context.Context, filter alert.Filter, limit, offset int) ([]*alert.Alert, int64, error) {
	return s.repo.ListWithPagination(ctx, filter, limit, offset)
}
