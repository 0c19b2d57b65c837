package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type enumerates event categories.
type Type string

const (
	// TypeValveChanged is emitted when an output changes level.
	TypeValveChanged Type = "valve.changed"
	// TypeModeChanged is emitted when manual mode is toggled.
	TypeModeChanged Type = "mode.changed"
	// TypeScheduleUpdated is emitted when a device window is replaced.
	TypeScheduleUpdated Type = "schedule.updated"
	// TypeClockSynced is emitted when the clock offset is recomputed.
	TypeClockSynced Type = "clock.synced"
)

// Payload is the event body.
type Payload map[string]any

// Event is one state change.
type Event struct {
	// ID is unique per event so consumers can deduplicate redeliveries.
	ID string `json:"id"`
	// Type is the event category.
	Type Type `json:"type"`
	// Time is when the change happened, in controller time.
	Time time.Time `json:"time"`
	// Payload carries type-specific fields.
	Payload Payload `json:"payload"`
}

// New stamps a fresh event.
func New(eventType Type, at time.Time, payload Payload) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Time:    at,
		Payload: payload,
	}
}

// Marshal encodes the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("encode event %s: %w", e.Type, err)
	}

	return data, nil
}
