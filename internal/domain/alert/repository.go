package alert

import "context"

// Repository defines the interface for alert data access.
type Repository interface {
	// Create persists a new alert.
	Create(ctx context.Context, a *Alert) error

	// GetByID retrieves an alert by ID.
	GetByID(ctx context.Context, id string) (*Alert, error)

	// MarkRead marks a single alert as read by the given actor.
	MarkRead(ctx context.Context, id, actorID string) (*Alert, error)

	// MarkAllByDriftRead marks every unread alert linked to the drift
	// as read and returns the number of rows updated.
	MarkAllByDriftRead(ctx context.Context, driftID, actorID string) (int64, error)

	// CountByDrift counts alerts referencing the drift.
	CountByDrift(ctx context.Context, driftID string) (int, error)

	// UnreadCount counts unread alerts.
	UnreadCount(ctx context.Context) (int, error)

	// ListWithPagination retrieves alerts with filters and pagination.
	ListWithPagination(ctx context.Context, filter Filter, limit, offset int) ([]*Alert, int64, error)
}
