package workflow

import (
	"time"

	"github.com/google/uuid"
)

// EventType classifies a history event.
type EventType string

const (
	EventStart              EventType = "start"
	EventAdvance            EventType = "advance"
	EventCompleteStep       EventType = "complete_step"
	EventCheckpointApproved EventType = "checkpoint_approved"
	EventCheckpointRejected EventType = "checkpoint_rejected"
	EventRetry              EventType = "retry"
	EventSkip               EventType = "skip"
	EventAbort              EventType = "abort"
	EventComplete           EventType = "complete"
)

// Event is one entry in a workflow's append-only history.
//
// Data carries the action-specific payload. Documented keys: "step"
// (1-based order the action applied to), "reason", "note",
// "workflow_type". Anything else is preserved as-is.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// NewEvent builds an event with a fresh id and the given payload.
func NewEvent(t EventType, now time.Time, data map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		Timestamp: now,
		Data:      data,
	}
}

// History is the append-only event log of one instance. Events are never
// dropped or reordered.
type History struct {
	WorkflowID string  `json:"workflow_id"`
	Events     []Event `json:"events"`
}
