package drift

import "context"

// CreateInput is a detection event handed to the orchestrator. Expected
// and actual state are the pre-computed documents supplied by the
// external detection trigger.
type CreateInput struct {
	ResourceID        string
	ResourceType      ResourceType
	Region            string
	AccountID         string
	ExpectedState     StateDoc
	ActualState       StateDoc
	Severity          Severity
	CostImpactMonthly float64
	DetectedBy        DetectedBy
}

// WithMeta is a drift augmented with derived read-model fields.
type WithMeta struct {
	*Drift
	AlertCount int  `json:"alert_count"`
	CanApprove bool `json:"can_approve"`
	CanReject  bool `json:"can_reject"`
}

// Summary aggregates drift counts and the open cost exposure.
type Summary struct {
	ByStatus              map[Status]int   `json:"by_status"`
	BySeverity            map[Severity]int `json:"by_severity"`
	OpenCostImpactMonthly float64          `json:"open_cost_impact_monthly"`
}

// Service defines the drift lifecycle orchestrator.
type Service interface {
	// Create validates a detection event, suppresses near-duplicates
	// and persists a new drift in detected status.
	Create(ctx context.Context, in CreateInput, actorID string) (*Drift, error)

	// Triage moves a detected drift into triage.
	Triage(ctx context.Context, id, actorID string) (*Drift, error)

	// Approve records an approval decision on an open drift.
	Approve(ctx context.Context, id, reason, actorID string) (*Drift, error)

	// Reject records a rejection decision on an open drift.
	Reject(ctx context.Context, id, reason, actorID string) (*Drift, error)

	// Resolve closes an approved or rejected drift.
	Resolve(ctx context.Context, id string, how ResolvedHow, actorID string) (*Drift, error)

	// GetWithMeta retrieves a drift with its alert count and derived
	// transition eligibility flags.
	GetWithMeta(ctx context.Context, id string) (*WithMeta, error)

	// List retrieves drifts with filters, sorting and pagination.
	List(ctx context.Context, filter Filter, sort Sort, page, limit int) ([]*Drift, int64, error)

	// Summary aggregates counts by status and severity plus the open
	// cost exposure.
	Summary(ctx context.Context) (*Summary, error)
}
