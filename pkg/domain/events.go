package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTransition EventType = "transition"
	EventReprompt   EventType = "reprompt"
	EventFinalize   EventType = "finalize"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id,omitempty"`
}

// StepEvent describes a step change, or a re-prompt when From == To.
type StepEvent struct {
	EventBase
	From Step `json:"from"`
	To   Step `json:"to"`
}

// FinalizeEvent is fired when the finalize latch trips.
type FinalizeEvent struct {
	EventBase
	Outcome Outcome `json:"outcome"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnTransition func(context.Context, *StepEvent)
	OnReprompt   func(context.Context, *StepEvent)
	OnFinalize   func(context.Context, *FinalizeEvent)
}
