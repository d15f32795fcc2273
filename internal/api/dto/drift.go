package dto

import (
	"time"

	"github.com/driftboard/driftboard/internal/domain/drift"
)

// CreateDriftRequest is the payload accepted by POST /drifts. Expected
// and actual state documents are the pre-computed snapshots supplied by
// the detection trigger.
type CreateDriftRequest struct {
	ResourceID        string         `json:"resource_id" validate:"required"`
	ResourceType      string         `json:"resource_type" validate:"required,oneof=EC2 RDS S3 IAM_ROLE SECURITY_GROUP"`
	Region            string         `json:"region" validate:"required"`
	AccountID         string         `json:"account_id,omitempty"`
	ExpectedState     drift.StateDoc `json:"expected_state" validate:"required"`
	ActualState       drift.StateDoc `json:"actual_state" validate:"required"`
	Severity          string         `json:"severity" validate:"required,oneof=critical warning info"`
	CostImpactMonthly float64        `json:"cost_impact_monthly" validate:"gte=0"`
	DetectedBy        string         `json:"detected_by" validate:"required,oneof=scheduler manual api"`
}

// DecisionRequest is the payload for approve and reject.
type DecisionRequest struct {
	Reason string `json:"reason" validate:"required,min=10"`
}

// ResolveRequest is the payload for resolve.
type ResolveRequest struct {
	How string `json:"how" validate:"required,oneof=remediated accepted false_positive"`
}

// DriftDTO is the wire representation of a drift.
type DriftDTO struct {
	ID                string                     `json:"id"`
	ResourceID        string                     `json:"resource_id"`
	ResourceType      drift.ResourceType         `json:"resource_type"`
	Region            string                     `json:"region"`
	AccountID         string                     `json:"account_id,omitempty"`
	ExpectedState     drift.StateDoc             `json:"expected_state,omitempty"`
	ActualState       drift.StateDoc             `json:"actual_state,omitempty"`
	Difference        map[string]drift.FieldDiff `json:"difference,omitempty"`
	Severity          drift.Severity             `json:"severity"`
	CostImpactMonthly float64                    `json:"cost_impact_monthly"`
	Status            drift.Status               `json:"status"`
	DetectedAt        time.Time                  `json:"detected_at"`
	DetectedBy        drift.DetectedBy           `json:"detected_by"`
	ApprovedAt        *time.Time                 `json:"approved_at,omitempty"`
	ApprovedBy        string                     `json:"approved_by,omitempty"`
	ApprovalReason    string                     `json:"approval_reason,omitempty"`
	RejectedAt        *time.Time                 `json:"rejected_at,omitempty"`
	RejectedBy        string                     `json:"rejected_by,omitempty"`
	RejectionReason   string                     `json:"rejection_reason,omitempty"`
	ResolvedAt        *time.Time                 `json:"resolved_at,omitempty"`
	ResolvedHow       drift.ResolvedHow          `json:"resolved_how,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
}

// DriftWithMetaDTO augments DriftDTO with derived read-model fields.
type DriftWithMetaDTO struct {
	DriftDTO
	AlertCount int  `json:"alert_count"`
	CanApprove bool `json:"can_approve"`
	CanReject  bool `json:"can_reject"`
}

// FromDrift maps a domain drift onto its wire representation.
func FromDrift(d *drift.Drift) DriftDTO {
	return DriftDTO{
		ID:                d.ID,
		ResourceID:        d.ResourceID,
		ResourceType:      d.ResourceType,
		Region:            d.Region,
		AccountID:         d.AccountID,
		ExpectedState:     d.ExpectedState,
		ActualState:       d.ActualState,
		Difference:        d.Difference,
		Severity:          d.Severity,
		CostImpactMonthly: d.CostImpactMonthly,
		Status:            d.Status,
		DetectedAt:        d.DetectedAt,
		DetectedBy:        d.DetectedBy,
		ApprovedAt:        d.ApprovedAt,
		ApprovedBy:        d.ApprovedBy,
		ApprovalReason:    d.ApprovalReason,
		RejectedAt:        d.RejectedAt,
		RejectedBy:        d.RejectedBy,
		RejectionReason:   d.RejectionReason,
		ResolvedAt:        d.ResolvedAt,
		ResolvedHow:       d.ResolvedHow,
		CreatedAt:         d.CreatedAt,
	}
}
