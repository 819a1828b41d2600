package events

import "time"

// Kind names an event type, namespaced by turn stage ("turn.*").
type Kind string

// Event is what every turn lifecycle notification satisfies. Concrete events
// embed Base and add their own payload fields.
type Event interface {
	Kind() Kind
	Timestamp() time.Time
}

// Base carries the kind and emission time shared by all events.
type Base struct {
	kind      Kind
	timestamp time.Time
}

// NewBase stamps a new event with the current time.
func NewBase(kind Kind) Base {
	return Base{kind: kind, timestamp: time.Now()}
}

func (b Base) Kind() Kind {
	return b.kind
}

// Timestamp is the moment the event was created, not delivered.
func (b Base) Timestamp() time.Time {
	return b.timestamp
}
