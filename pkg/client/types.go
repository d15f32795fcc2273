package client

import (
	"encoding/json"
	"time"
)

// Drift is a configuration drift record as returned by the API.
type Drift struct {
	ID                string                 `json:"id"`
	ResourceID        string                 `json:"resource_id"`
	ResourceType      string                 `json:"resource_type"`
	Region            string                 `json:"region"`
	AccountID         string                 `json:"account_id,omitempty"`
	ExpectedState     map[string]interface{} `json:"expected_state,omitempty"`
	ActualState       map[string]interface{} `json:"actual_state,omitempty"`
	Difference        map[string]FieldDiff   `json:"difference,omitempty"`
	Severity          string                 `json:"severity"`
	CostImpactMonthly float64                `json:"cost_impact_monthly"`
	Status            string                 `json:"status"`
	DetectedAt        time.Time              `json:"detected_at"`
	DetectedBy        string                 `json:"detected_by"`
	ApprovedAt        *time.Time             `json:"approved_at,omitempty"`
	ApprovedBy        string                 `json:"approved_by,omitempty"`
	ApprovalReason    string                 `json:"approval_reason,omitempty"`
	RejectedAt        *time.Time             `json:"rejected_at,omitempty"`
	RejectedBy        string                 `json:"rejected_by,omitempty"`
	RejectionReason   string                 `json:"rejection_reason,omitempty"`
	ResolvedAt        *time.Time             `json:"resolved_at,omitempty"`
	ResolvedHow       string                 `json:"resolved_how,omitempty"`
	CreatedAt         time.Time              `json:"created_at"`
}

// FieldDiff is one diverged top-level state key.
type FieldDiff struct {
	Expected interface{} `json:"expected"`
	Actual   interface{} `json:"actual"`
}

// DriftWithMeta is a drift with derived read-model fields.
type DriftWithMeta struct {
	Drift
	AlertCount int  `json:"alert_count"`
	CanApprove bool `json:"can_approve"`
	CanReject  bool `json:"can_reject"`
}

// DriftSummary aggregates drift counts and open cost exposure.
type DriftSummary struct {
	ByStatus              map[string]int `json:"by_status"`
	BySeverity            map[string]int `json:"by_severity"`
	OpenCostImpactMonthly float64        `json:"open_cost_impact_monthly"`
}

// Alert is an alert record as returned by the API.
type Alert struct {
	ID        string     `json:"id"`
	DriftID   string     `json:"drift_id"`
	Type      string     `json:"type"`
	Severity  string     `json:"severity"`
	Title     string     `json:"title"`
	Message   string     `json:"message"`
	Read      bool       `json:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	ReadBy    string     `json:"read_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// AuditLog is an audit log entry as returned by the API.
type AuditLog struct {
	ID         string          `json:"id"`
	Action     string          `json:"action"`
	DriftID    string          `json:"drift_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	ActorEmail string          `json:"actor_email,omitempty"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Details    string          `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Page wraps a paginated list response.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int64 `json:"total_items"`
	TotalPages int   `json:"total_pages"`
}

// ListOptions contains common pagination and sorting options.
type ListOptions struct {
	Page  int
	Limit int
	Sort  string
	Order string
}
