package eventstorage

import "testing"

func TestAggregateBase(t *testing.T) {
	a := NewAggregateBase("a-1")

	if a.AggregateRootID() != "a-1" {
		t.Fatalf("unexpected id %q", a.AggregateRootID())
	}
	if a.Events() == nil || len(a.Events()) != 0 {
		t.Fatalf("expected no pending events, got %v", a.Events())
	}

	a.Record(sampleEvent{Data: "1"})
	a.Record(sampleEvent{Data: "2"})

	events := a.Events()
	if len(events) != 2 || events[1].(sampleEvent).Data != "2" {
		t.Fatalf("unexpected pending events %v", events)
	}

	a.ClearEvents()
	if len(a.Events()) != 0 {
		t.Fatalf("expected cleared events, got %v", a.Events())
	}
}
