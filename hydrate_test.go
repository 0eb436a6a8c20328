package eventstorage

import (
	"testing"
)

func TestHydrate(t *testing.T) {
	var samples []string
	var others int

	apply := Hydrate(
		On(func(e sampleEvent) { samples = append(samples, e.Data) }),
		On(func(e otherEvent) { others++ }),
	)

	apply(sampleEvent{Data: "1"})
	apply(otherEvent{})
	apply(sampleEvent{Data: "2"})
	apply(&sampleEvent{Data: "pointer is another type"})

	if len(samples) != 2 || samples[0] != "1" || samples[1] != "2" {
		t.Errorf("unexpected samples %v", samples)
	}
	if others != 1 {
		t.Errorf("expected 1 other event, got %d", others)
	}
}

func TestHydrateDuplicateHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected a panic")
		}
	}()

	Hydrate(
		On(func(sampleEvent) {}),
		On(func(sampleEvent) {}),
	)
}
