package eventstorage

import (
	"fmt"
	"reflect"
	"sync"
	"time"
)

// EventType identifies a concrete event kind and knows how to rebuild it
// from a stored payload. Build one with Type.
type EventType struct {
	typ         reflect.Type
	fromPayload func(aggregateRootID string, payload map[string]any, recordedAt time.Time) (Event, error)
}

// Type returns the EventType for E, rebuilt by fromPayload when loading.
//
// Example Usage:
//
//	registry.Register(
//	    eventstorage.Type(InvoiceWasCreatedFromPayload),
//	    eventstorage.Type(PaymentTransactionWasStartedFromPayload),
//	)
func Type[E Event](fromPayload FromPayloadFunc[E]) EventType {
	if fromPayload == nil {
		panic("eventstorage: nil fromPayload factory")
	}
	return EventType{
		typ: reflect.TypeFor[E](),
		fromPayload: func(aggregateRootID string, payload map[string]any, recordedAt time.Time) (Event, error) {
			return fromPayload(aggregateRootID, payload, recordedAt)
		},
	}
}

// GoType returns the Go type of the event kind.
func (t EventType) GoType() reflect.Type {
	return t.typ
}

// FromPayload rebuilds an event of this kind.
func (t EventType) FromPayload(aggregateRootID string, payload map[string]any, recordedAt time.Time) (Event, error) {
	if t.fromPayload == nil {
		return nil, fmt.Errorf("event type %v has no factory", t.typ)
	}
	return t.fromPayload(aggregateRootID, payload, recordedAt)
}

// Registry is the set of event types an EventStore can resolve stored
// records to.
//
// A Registry is meant to be configured once, at startup, and then shared by
// the stores of a bounded context. Register replaces the whole set, it is
// not additive.
type Registry struct {
	mu        sync.RWMutex
	describer Describer
	types     []EventType
	byLabel   map[string]EventType
}

// NewRegistry creates an empty registry labelling types with describer.
// A nil describer defaults to KebabCase.
func NewRegistry(describer Describer, types ...EventType) *Registry {
	if describer == nil {
		describer = KebabCase{}
	}
	r := &Registry{
		describer: describer,
		byLabel:   map[string]EventType{},
	}
	r.Register(types...)
	return r
}

// Register sets the registered types to exactly types, discarding anything
// registered before. Calling it without arguments clears the registry.
// When two types share a label the first one wins.
func (r *Registry) Register(types ...EventType) {
	byLabel := make(map[string]EventType, len(types))
	for _, t := range types {
		label := r.describer.Describe(t.typ)
		if _, exists := byLabel[label]; !exists {
			byLabel[label] = t
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.types = append([]EventType(nil), types...)
	r.byLabel = byLabel
}

// All returns the registered types in registration order.
func (r *Registry) All() []EventType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]EventType(nil), r.types...)
}

// Lookup returns the registered type stored under label.
func (r *Registry) Lookup(label string) (EventType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.byLabel[label]
	return t, ok
}

// Label returns the label event is stored under. The event does not need
// to be registered.
func (r *Registry) Label(event Event) string {
	return r.describer.Describe(reflect.TypeOf(event))
}

// Describer returns the describer used to label types.
func (r *Registry) Describer() Describer {
	return r.describer
}
