package alert

import (
	"time"

	"github.com/driftboard/driftboard/internal/domain/drift"
)

// Alert is a notification record derived from a drift.
type Alert struct {
	ID        string         `json:"id"`
	DriftID   string         `json:"drift_id"`
	Type      Type           `json:"type"`
	Severity  drift.Severity `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	ReadBy    string         `json:"read_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Alert types
type Type string

const (
	TypeDriftDetected     Type = "drift_detected"
	TypeApprovalNeeded    Type = "approval_needed"
	TypeRemediationFailed Type = "remediation_failed"
)

// Valid reports whether t is a known alert type.
func (t Type) Valid() bool {
	switch t {
	case TypeDriftDetected, TypeApprovalNeeded, TypeRemediationFailed:
		return true
	}
	return false
}

// Filter contains alert filtering options.
type Filter struct {
	DriftID  string
	Type     Type
	Severity drift.Severity
	Read     *bool
}
