package core

import (
	"time"

	"github.com/google/uuid"
)

// Stable event type vocabulary. External dashboards and log pipelines key off
// these strings; treat them as a wire contract.
const (
	// EventDelegateStart is emitted after every admission check passed and
	// before the target agent's generation turn begins.
	EventDelegateStart = "delegate:start"
	// EventDelegateEnd is emitted exactly once per delegated execution,
	// carrying either a result summary or an error.
	EventDelegateEnd = "delegate:end"
	// EventToolCall is emitted when an agent invokes a tool.
	EventToolCall = "tool:call"
	// EventToolResult is emitted when a tool invocation completes.
	EventToolResult = "tool:result"
	// EventStatus carries free-form lifecycle state transitions.
	EventStatus = "status"
)

// Event is an immutable lifecycle record published on the Bus. Data is a
// free-form key/value payload; the Timestamp is assigned at emission time.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent creates an event of the given type stamped with the current UTC
// time and a fresh unique ID.
func NewEvent(eventType string, data map[string]any) Event {
	return Event{
		ID:        NewID(),
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewID generates a new unique identifier used for events, messages and runs.
func NewID() string { return uuid.NewString() }
