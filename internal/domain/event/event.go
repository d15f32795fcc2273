package event

import (
	"time"

	"github.com/driftboard/driftboard/internal/domain/drift"
)

// Type tags a lifecycle event.
type Type string

const (
	TypeDriftCreated  Type = "drift:created"
	TypeDriftTriaged  Type = "drift:triaged"
	TypeDriftApproved Type = "drift:approved"
	TypeDriftRejected Type = "drift:rejected"
	TypeDriftResolved Type = "drift:resolved"
)

// Event is a lifecycle notification delivered best-effort to connected
// clients.
type Event struct {
	Type      Type      `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Sink accepts lifecycle events for fan-out. Emit must not block the
// caller on delivery; implementations drop when saturated.
type Sink interface {
	Emit(e Event)
}

// CreatedPayload is the redacted summary emitted on drift:created. The
// full state documents never go over the wire.
type CreatedPayload struct {
	ID                string             `json:"id"`
	ResourceID        string             `json:"resource_id"`
	ResourceType      drift.ResourceType `json:"resource_type"`
	Region            string             `json:"region"`
	Severity          drift.Severity     `json:"severity"`
	CostImpactMonthly float64            `json:"cost_impact_monthly"`
	DetectedAt        time.Time          `json:"detected_at"`
	Status            drift.Status       `json:"status"`
}

// TransitionPayload is emitted on triage, approve, reject and resolve.
type TransitionPayload struct {
	ID     string       `json:"id"`
	Status drift.Status `json:"status"`
	At     *time.Time   `json:"at,omitempty"`
	By     string       `json:"by,omitempty"`
}

// NewCreated builds the drift:created event for a drift.
func NewCreated(d *drift.Drift) Event {
	return Event{
		Type: TypeDriftCreated,
		Data: CreatedPayload{
			ID:                d.ID,
			ResourceID:        d.ResourceID,
			ResourceType:      d.ResourceType,
			Region:            d.Region,
			Severity:          d.Severity,
			CostImpactMonthly: d.CostImpactMonthly,
			DetectedAt:        d.DetectedAt,
			Status:            d.Status,
		},
		Timestamp: time.Now(),
	}
}

// NewTransition builds the event for a completed status transition.
func NewTransition(t Type, d *drift.Drift) Event {
	p := TransitionPayload{ID: d.ID, Status: d.Status}
	switch d.Status {
	case drift.StatusApproved:
		p.At, p.By = d.ApprovedAt, d.ApprovedBy
	case drift.StatusRejected:
		p.At, p.By = d.RejectedAt, d.RejectedBy
	case drift.StatusResolved:
		p.At = d.ResolvedAt
	}
	return Event{Type: t, Data: p, Timestamp: time.Now()}
}
