// Package events defines execution lifecycle events and the in-process listener bus.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/hsetrack/hseflow/pkg/models"
)

type EventType string

// Topic carries every execution event when forwarded to a message broker.
const Topic = "hseflow.executions"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ExecutionCreated   EventType = "execution:created"
	ExecutionStarted   EventType = "execution:started"
	ExecutionProgress  EventType = "execution:progress"
	ExecutionCompleted EventType = "execution:completed"
	ExecutionFailed    EventType = "execution:failed"
	ExecutionCancelled EventType = "execution:cancelled"
	ExecutionUpdated   EventType = "execution:updated"

	// AllEvents subscribes a handler to every event type.
	AllEvents EventType = "*"
)

// EventTypes lists every concrete event type.
var EventTypes = []EventType{
	ExecutionCreated,
	ExecutionStarted,
	ExecutionProgress,
	ExecutionCompleted,
	ExecutionFailed,
	ExecutionCancelled,
	ExecutionUpdated,
}

// IsValid reports whether t is a concrete event type or AllEvents.
func (t EventType) IsValid() bool {
	if t == AllEvents {
		return true
	}

	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}

	return false
}

// ExecutionEvent delivers a snapshot of the execution at the time of the transition.
type ExecutionEvent struct {
	ID        string                  `json:"id"`
	Type      EventType               `json:"type"`
	Timestamp time.Time               `json:"timestamp"`
	Execution *models.ExecutionRecord `json:"execution"`
}

// NewExecutionEvent wraps record, which must already be a snapshot owned by the event.
func NewExecutionEvent(eventType EventType, record *models.ExecutionRecord, at time.Time) ExecutionEvent {
	return ExecutionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: at,
		Execution: record,
	}
}

func (e ExecutionEvent) GetType() EventType {
	return e.Type
}
