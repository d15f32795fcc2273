package drift

import "time"

// Drift represents a detected divergence between a resource's expected
// and actual cloud configuration.
type Drift struct {
	ID                string               `json:"id"`
	ResourceID        string               `json:"resource_id"`
	ResourceType      ResourceType         `json:"resource_type"`
	Region            string               `json:"region"`
	AccountID         string               `json:"account_id,omitempty"`
	ExpectedState     StateDoc             `json:"expected_state"`
	ActualState       StateDoc             `json:"actual_state"`
	Difference        map[string]FieldDiff `json:"difference"`
	Severity          Severity             `json:"severity"`
	CostImpactMonthly float64              `json:"cost_impact_monthly"`
	Status            Status               `json:"status"`
	DetectedAt        time.Time            `json:"detected_at"`
	DetectedBy        DetectedBy           `json:"detected_by"`
	ApprovedAt        *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy        string               `json:"approved_by,omitempty"`
	ApprovalReason    string               `json:"approval_reason,omitempty"`
	RejectedAt        *time.Time           `json:"rejected_at,omitempty"`
	RejectedBy        string               `json:"rejected_by,omitempty"`
	RejectionReason   string               `json:"rejection_reason,omitempty"`
	ResolvedAt        *time.Time           `json:"resolved_at,omitempty"`
	ResolvedHow       ResolvedHow          `json:"resolved_how,omitempty"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at,omitempty"`
}

// FieldDiff holds the expected and actual values of a single top-level
// state key that diverged.
type FieldDiff struct {
	Expected any `json:"expected"`
	Actual   any `json:"actual"`
}

// ResourceType is the kind of cloud resource a drift was detected on.
type ResourceType string

const (
	ResourceEC2           ResourceType = "EC2"
	ResourceRDS           ResourceType = "RDS"
	ResourceS3            ResourceType = "S3"
	ResourceIAMRole       ResourceType = "IAM_ROLE"
	ResourceSecurityGroup ResourceType = "SECURITY_GROUP"
)

// Valid reports whether t is a known resource type.
func (t ResourceType) Valid() bool {
	switch t {
	case ResourceEC2, ResourceRDS, ResourceS3, ResourceIAMRole, ResourceSecurityGroup:
		return true
	}
	return false
}

// Severity levels
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return true
	}
	return false
}

// Status is a drift's lifecycle state.
type Status string

const (
	StatusDetected Status = "detected"
	StatusTriaged  Status = "triaged"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusResolved Status = "resolved"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDetected, StatusTriaged, StatusApproved, StatusRejected, StatusResolved:
		return true
	}
	return false
}

// Open reports whether a drift in this status is still awaiting a
// human decision.
func (s Status) Open() bool {
	return s == StatusDetected || s == StatusTriaged
}

// OpenStatuses are the states from which approve and reject are valid.
var OpenStatuses = []Status{StatusDetected, StatusTriaged}

// DetectedBy identifies the origin of a detection event.
type DetectedBy string

const (
	DetectedByScheduler DetectedBy = "scheduler"
	DetectedByManual    DetectedBy = "manual"
	DetectedByAPI       DetectedBy = "api"
)

// Valid reports whether d is a known detection origin.
func (d DetectedBy) Valid() bool {
	switch d {
	case DetectedByScheduler, DetectedByManual, DetectedByAPI:
		return true
	}
	return false
}

// ResolvedHow records the outcome a resolved drift was closed with.
type ResolvedHow string

const (
	ResolvedRemediated    ResolvedHow = "remediated"
	ResolvedAccepted      ResolvedHow = "accepted"
	ResolvedFalsePositive ResolvedHow = "false_positive"
)

// Valid reports whether h is a known resolution outcome.
func (h ResolvedHow) Valid() bool {
	switch h {
	case ResolvedRemediated, ResolvedAccepted, ResolvedFalsePositive:
		return true
	}
	return false
}

// SystemActor is the sentinel actor identity recorded for side effects
// the orchestrator performs on its own behalf, such as bulk-clearing
// alerts when a drift is approved.
const SystemActor = "system"

// TransitionVerb returns the operation name that produces the given
// target status, for use in conflict messages.
func TransitionVerb(to Status) string {
	switch to {
	case StatusTriaged:
		return "triage"
	case StatusApproved:
		return "approve"
	case StatusRejected:
		return "reject"
	case StatusResolved:
		return "resolve"
	}
	return "transition"
}

// Filter contains drift filtering options.
type Filter struct {
	Status       Status
	Severity     Severity
	ResourceType ResourceType
	Region       string
	Search       string // substring match on resource_id
}

// Sort fields accepted by List.
const (
	SortCreatedAt  = "created_at"
	SortDetectedAt = "detected_at"
	SortCostImpact = "cost_impact_monthly"
	SortSeverity   = "severity"
)

// Sort describes the requested list ordering.
type Sort struct {
	Field string
	Desc  bool
}

// ValidSortField reports whether f is an accepted sort field.
func ValidSortField(f string) bool {
	switch f {
	case SortCreatedAt, SortDetectedAt, SortCostImpact, SortSeverity:
		return true
	}
	return false
}
