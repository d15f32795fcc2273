package drift

import (
	"context"
	"time"
)

// StatusUpdate carries the target status and the transition-specific
// fields stamped alongside it. Only the group matching Status is set.
type StatusUpdate struct {
	Status Status

	ApprovedAt     *time.Time
	ApprovedBy     string
	ApprovalReason string

	RejectedAt      *time.Time
	RejectedBy      string
	RejectionReason string

	ResolvedAt  *time.Time
	ResolvedHow ResolvedHow
}

// Repository defines the interface for drift data access.
type Repository interface {
	// Create persists a new drift record.
	Create(ctx context.Context, d *Drift) error

	// GetByID retrieves a drift by ID.
	GetByID(ctx context.Context, id string) (*Drift, error)

	// FindOpenDuplicate returns the most recently detected open drift
	// for the same (resourceID, resourceType) detected at or after
	// since, or nil when none exists.
	FindOpenDuplicate(ctx context.Context, resourceID string, resourceType ResourceType, since time.Time) (*Drift, error)

	// UpdateStatus performs the transition as a single conditional
	// update: the row is modified only while its status is in from.
	// Zero rows affected yields a not-found error when the drift does
	// not exist, and a conflict error naming the current status when
	// it does.
	UpdateStatus(ctx context.Context, id string, from []Status, u StatusUpdate) (*Drift, error)

	// ListWithPagination retrieves drifts with filters, sorting and
	// pagination, returning the page and the total match count.
	ListWithPagination(ctx context.Context, filter Filter, sort Sort, limit, offset int) ([]*Drift, int64, error)

	// CountByStatus counts drifts grouped by status.
	CountByStatus(ctx context.Context) (map[Status]int, error)

	// CountBySeverity counts drifts grouped by severity.
	CountBySeverity(ctx context.Context) (map[Severity]int, error)

	// OpenCostImpact sums the monthly cost impact of open drifts.
	OpenCostImpact(ctx context.Context) (float64, error)
}
