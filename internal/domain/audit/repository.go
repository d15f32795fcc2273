package audit

import "context"

// Repository defines the interface for audit log data access. The store
// is append-only: no update or delete operation exists.
type Repository interface {
	// Create appends an audit entry.
	Create(ctx context.Context, l *Log) error

	// ListWithPagination retrieves audit entries with filters and
	// pagination, newest first.
	ListWithPagination(ctx context.Context, filter Filter, limit, offset int) ([]*Log, int64, error)
}
