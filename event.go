package eventstorage

import (
	"time"
)

// Event is a domain event recorded by an aggregate.
//
// The store never mutates an event. It reads the payload and the recording
// time when saving, and rebuilds a new value through the factory registered
// for its type when loading.
type Event interface {
	// Payload returns the event specific data. It is stored as is.
	Payload() map[string]any

	// RecordedAt returns the instant the event was recorded, with at least
	// microsecond precision.
	RecordedAt() time.Time
}

// FromPayloadFunc rebuilds a typed event from a stored payload.
type FromPayloadFunc[E Event] func(aggregateRootID string, payload map[string]any, recordedAt time.Time) (E, error)
