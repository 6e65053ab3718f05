package agent

import (
	"context"

	"github.com/google/uuid"
)

// EventType is emitted by the agent loop for observability.
type EventType string

const (
	EventTypeAssistantMessage EventType = "assistant_message"
	EventTypeToolResult       EventType = "tool_result"
	EventTypeTurnCompleted    EventType = "turn_completed"
	EventTypeRunawayLoop      EventType = "runaway_loop"
)

// Event is intentionally compact so sinks can map it to logs or metrics.
// EventID is a fresh correlation id per event, useful for tying a burst of
// log lines from one turn together downstream.
type Event struct {
	EventID     string      `json:"event_id"`
	ConvID      string      `json:"conversation_id"`
	Round       int         `json:"round"`
	Type        EventType   `json:"type"`
	Message     *Message    `json:"message,omitempty"`
	ToolResult  *ToolResult `json:"tool_result,omitempty"`
	Description string      `json:"description,omitempty"`
}

// NewEvent stamps a fresh EventID on a partially built event.
func NewEvent(convID string, round int, typ EventType) Event {
	return Event{
		EventID: uuid.NewString(),
		ConvID:  convID,
		Round:   round,
		Type:    typ,
	}
}

// EventSink receives normalized runtime events.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// NoopEventSink discards every event. Used as the default when a caller
// does not care about observability.
type NoopEventSink struct{}

func (NoopEventSink) Publish(context.Context, Event) error { return nil }
