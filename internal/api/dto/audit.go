package dto

import (
	"encoding/json"
	"time"

	"github.com/driftboard/driftboard/internal/domain/audit"
)

// AuditLogDTO is the wire representation of an audit log entry.
type AuditLogDTO struct {
	ID         string          `json:"id"`
	Action     audit.Action    `json:"action"`
	DriftID    string          `json:"drift_id,omitempty"`
	ActorID    string          `json:"actor_id"`
	ActorEmail string          `json:"actor_email,omitempty"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Details    string          `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// FromAuditLog maps a domain audit log onto its wire representation.
func FromAuditLog(l *audit.Log) AuditLogDTO {
	return AuditLogDTO{
		ID:         l.ID,
		Action:     l.Action,
		DriftID:    l.DriftID,
		ActorID:    l.ActorID,
		ActorEmail: l.ActorEmail,
		OldValue:   l.OldValue,
		NewValue:   l.NewValue,
		Details:    l.Details,
		CreatedAt:  l.CreatedAt,
	}
}
