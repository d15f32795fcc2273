package dto

import (
	"time"

	"github.com/driftboard/driftboard/internal/domain/alert"
	"github.com/driftboard/driftboard/internal/domain/drift"
)

// AlertDTO is the wire representation of an alert.
type AlertDTO struct {
	ID        string         `json:"id"`
	DriftID   string         `json:"drift_id"`
	Type      alert.Type     `json:"type"`
	Severity  drift.Severity `json:"severity"`
	Title     string         `json:"title"`
	Message   string         `json:"message"`
	Read      bool           `json:"read"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	ReadBy    string         `json:"read_by,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// UnreadCountResponse wraps the unread alert counter.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// FromAlert maps a domain alert onto its wire representation.
func FromAlert(a *alert.Alert) AlertDTO {
	return AlertDTO{
		ID:        a.ID,
		DriftID:   a.DriftID,
		Type:      a.Type,
		Severity:  a.Severity,
		Title:     a.Title,
		Message:   a.Message,
		Read:      a.Read,
		ReadAt:    a.ReadAt,
		ReadBy:    a.ReadBy,
		CreatedAt: a.CreatedAt,
	}
}
