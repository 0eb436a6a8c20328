package fixtures

import (
	"fmt"
	"time"

	es "github.com/terraskye/eventstorage"
)

// Epoch is the time of the first event built by a TestEventBuilder.
var Epoch = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

// TestEvent is a configurable test event implementing the Event interface.
type TestEvent struct {
	ID   string
	At   time.Time
	Data string
}

func (e TestEvent) RecordedAt() time.Time { return e.At }

func (e TestEvent) Payload() map[string]any {
	return map[string]any{"data": e.Data}
}

// TestEventFromPayload rebuilds a TestEvent. A non-string data field fails.
func TestEventFromPayload(id string, payload map[string]any, at time.Time) (TestEvent, error) {
	data, ok := payload["data"].(string)
	if !ok && payload["data"] != nil {
		return TestEvent{}, fmt.Errorf("data: unexpected %T", payload["data"])
	}
	return TestEvent{ID: id, At: at, Data: data}, nil
}

// OtherEvent is a second event type, labelled "other-event" by KebabCase.
type OtherEvent struct {
	ID   string
	At   time.Time
	Name string
}

func (e OtherEvent) RecordedAt() time.Time { return e.At }

func (e OtherEvent) Payload() map[string]any {
	return map[string]any{"name": e.Name}
}

func OtherEventFromPayload(id string, payload map[string]any, at time.Time) (OtherEvent, error) {
	name, _ := payload["name"].(string)
	return OtherEvent{ID: id, At: at, Name: name}, nil
}

// Types returns the event types of this package.
func Types() []es.EventType {
	return []es.EventType{
		es.Type(TestEventFromPayload),
		es.Type(OtherEventFromPayload),
	}
}

// Registry returns a registry knowing TestEvent and OtherEvent.
func Registry() *es.Registry {
	return es.NewRegistry(es.KebabCase{}, Types()...)
}

// TestEventBuilder provides a fluent API for constructing test events.
type TestEventBuilder struct {
	id   string
	at   time.Time
	step time.Duration
	data string
}

// NewTestEvent creates a new TestEventBuilder with sensible defaults.
func NewTestEvent() *TestEventBuilder {
	return &TestEventBuilder{
		id:   "aggregate-1",
		at:   Epoch,
		step: time.Second,
	}
}

// WithID sets the aggregate ID.
func (b *TestEventBuilder) WithID(id string) *TestEventBuilder {
	b.id = id
	return b
}

// At sets the time of the first event.
func (b *TestEventBuilder) At(at time.Time) *TestEventBuilder {
	b.at = at
	return b
}

// Every sets the time between events built by BuildN.
func (b *TestEventBuilder) Every(step time.Duration) *TestEventBuilder {
	b.step = step
	return b
}

// WithData sets custom data on the event.
func (b *TestEventBuilder) WithData(data string) *TestEventBuilder {
	b.data = data
	return b
}

// Build constructs the TestEvent.
func (b *TestEventBuilder) Build() TestEvent {
	return TestEvent{
		ID:   b.id,
		At:   b.at,
		Data: b.data,
	}
}

// BuildN creates n events with sequential data and increasing times.
func (b *TestEventBuilder) BuildN(n int) []es.Event {
	events := make([]es.Event, n)
	for i := range n {
		events[i] = TestEvent{
			ID:   b.id,
			At:   b.at.Add(time.Duration(i) * b.step),
			Data: fmt.Sprintf("%s-%d", b.data, i+1),
		}
	}
	return events
}

// TestAggregate records the events replayed into it.
type TestAggregate struct {
	*es.AggregateBase
	Applied []es.Event
}

// NewTestAggregate creates an aggregate with the given identity and
// pending events.
func NewTestAggregate(id string, events ...es.Event) *TestAggregate {
	a := &TestAggregate{AggregateBase: es.NewAggregateBase(id)}
	for _, e := range events {
		a.Record(e)
	}
	return a
}

func (a *TestAggregate) Apply(event es.Event) {
	a.Applied = append(a.Applied, event)
}
