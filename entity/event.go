package entity

import (
	"encoding/json"
	"time"
)

// ReviewEvent is the audit trail entry written with every creation or transition.
type ReviewEvent struct {
	ID         int64           `json:"id"`
	Kind       Kind            `json:"kind"`
	EntityID   string          `json:"entity_id"`
	Action     string          `json:"action"`
	FromStatus Status          `json:"from_status,omitempty"`
	ToStatus   Status          `json:"to_status"`
	Actor      string          `json:"actor"`
	Reason     string          `json:"reason,omitempty"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Type is the event name used as the relay message type.
func (e *ReviewEvent) Type() string {
	return string(e.Kind) + "." + e.Action
}
