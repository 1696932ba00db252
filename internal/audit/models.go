package audit

import "time"

// Action labels what happened to a record.
type Action string

const (
	ActionRegistered Action = "participant.registered"
	ActionFinalized  Action = "participant.finalized"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Action    Action    `json:"action"`
	Owner     string    `json:"owner"`
	Actor     string    `json:"actor,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}
