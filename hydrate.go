package eventstorage

import (
	"reflect"
)

// HydrateHandler applies events of a single type.
type HydrateHandler interface {
	EventType() reflect.Type
	Apply(event Event)
}

type genericHydrateHandler[E Event] struct {
	applyFunc func(event E)
}

// On creates a HydrateHandler for the event type inferred from the
// argument of applyFunc.
func On[E Event](applyFunc func(event E)) HydrateHandler {
	return genericHydrateHandler[E]{applyFunc: applyFunc}
}

func (h genericHydrateHandler[E]) EventType() reflect.Type {
	return reflect.TypeFor[E]()
}

func (h genericHydrateHandler[E]) Apply(e Event) {
	h.applyFunc(e.(E))
}

// Hydrate returns an apply function routing each event to the handler of
// its type. Events without a handler are ignored.
//
// Example Usage:
//
//	func (i *Invoice) Apply(event eventstorage.Event) {
//	    i.apply(event)
//	}
//
//	i.apply = eventstorage.Hydrate(
//	    eventstorage.On(i.whenCreated),
//	    eventstorage.On(i.whenPaid),
//	)
func Hydrate(handlers ...HydrateHandler) func(event Event) {
	byType := make(map[reflect.Type]HydrateHandler, len(handlers))

	for _, handler := range handlers {
		if _, exists := byType[handler.EventType()]; exists {
			panic("eventstorage: duplicate hydrate handler for " + handler.EventType().String())
		}
		byType[handler.EventType()] = handler
	}

	return func(event Event) {
		if handler, ok := byType[reflect.TypeOf(event)]; ok {
			handler.Apply(event)
		}
	}
}
