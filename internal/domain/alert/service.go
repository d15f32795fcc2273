package alert

import "context"

// Service defines the alert generator consumed by the drift lifecycle
// orchestrator and the HTTP layer.
type Service interface {
	// Create persists a new alert.
	Create(ctx context.Context, a *Alert) error

	// MarkAllByDriftAsRead marks every unread alert linked to the
	// drift as read. Best-effort: failures are logged and the method
	// returns 0 instead of propagating.
	MarkAllByDriftAsRead(ctx context.Context, driftID, actorID string) int64

	// MarkRead marks a single alert as read.
	MarkRead(ctx context.Context, id, actorID string) (*Alert, error)

	// GetUnreadCount counts unread alerts.
	GetUnreadCount(ctx context.Context) (int, error)

	// CountByDrift counts alerts referencing the drift.
	CountByDrift(ctx context.Context, driftID string) (int, error)

	// List retrieves alerts with filters and pagination.
	List(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)
}
