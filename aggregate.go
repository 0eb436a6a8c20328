package eventstorage

// Aggregate is the interface that all event sourced aggregates must implement
// to be saved and loaded by an EventStore.
type Aggregate interface {

	// AggregateRootID returns the canonical string form of the aggregate identity.
	AggregateRootID() string

	// Events returns the events recorded since the aggregate was created or
	// loaded, in recording order.
	Events() []Event

	// Apply mutates the aggregate state for a single event. It is used for
	// replay and must not add the event to the pending events.
	Apply(event Event)
}

// AggregateBase holds the identity and pending events of an aggregate.
// Embed it and implement Apply to satisfy Aggregate.
type AggregateBase struct {
	id     string
	events []Event
}

// NewAggregateBase creates an aggregate base with the given identity.
func NewAggregateBase(id string) *AggregateBase {
	return &AggregateBase{
		id:     id,
		events: make([]Event, 0),
	}
}

// AggregateRootID implements the AggregateRootID method of the Aggregate interface.
func (a *AggregateBase) AggregateRootID() string {
	return a.id
}

// Events implements the Events method of the Aggregate interface.
func (a *AggregateBase) Events() []Event {
	return a.events
}

// Record appends an event to the pending events. The caller is expected to
// apply it as well.
func (a *AggregateBase) Record(event Event) {
	a.events = append(a.events, event)
}

// ClearEvents drops all pending events, typically after a successful save.
func (a *AggregateBase) ClearEvents() {
	a.events = make([]Event, 0)
}
