package audit

import (
	"encoding/json"
	"time"
)

// Log is an immutable, append-only record of a state-changing action.
// Entries are never updated or deleted after creation.
type Log struct {
	ID         string          `json:"id"`
	Action     Action          `json:"action"`
	DriftID    string          `json:"drift_id,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	ActorEmail string          `json:"actor_email,omitempty"`
	OldValue   json.RawMessage `json:"old_value,omitempty"`
	NewValue   json.RawMessage `json:"new_value,omitempty"`
	Details    string          `json:"details,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Action tags the kind of state change an audit entry records.
type Action string

const (
	ActionDriftCreated  Action = "drift_created"
	ActionDriftTriaged  Action = "drift_triaged"
	ActionDriftApproved Action = "drift_approved"
	ActionDriftRejected Action = "drift_rejected"
	ActionDriftResolved Action = "drift_resolved"
	ActionAlertsCleared Action = "alerts_cleared"

	ActionAccountCreated Action = "account_created"
	ActionAccountUpdated Action = "account_updated"
	ActionAccountDeleted Action = "account_deleted"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionDriftCreated, ActionDriftTriaged, ActionDriftApproved,
		ActionDriftRejected, ActionDriftResolved, ActionAlertsCleared,
		ActionAccountCreated, ActionAccountUpdated, ActionAccountDeleted:
		return true
	}
	return false
}

// Filter contains audit log filtering options.
type Filter struct {
	DriftID string
	Action  Action
	ActorID string
}
