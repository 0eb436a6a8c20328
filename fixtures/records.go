package fixtures

import (
	"time"

	es "github.com/terraskye/eventstorage"
)

// RecordOption is a functional option for configuring a Record.
type RecordOption func(*es.Record)

// NewRecord creates a valid test-event record at Epoch, changed by opts.
func NewRecord(opts ...RecordOption) es.Record {
	recordedAt, micro := es.SplitTime(Epoch)
	r := es.Record{
		AggregateRootID: "aggregate-1",
		Type:            "test-event",
		Payload:         map[string]any{"data": ""},
		RecordedAt:      recordedAt,
		Microseconds:    micro,
	}

	for _, opt := range opts {
		opt(&r)
	}

	return r
}

func WithAggregateRootID(id string) RecordOption {
	return func(r *es.Record) {
		r.AggregateRootID = id
	}
}

func WithType(label string) RecordOption {
	return func(r *es.Record) {
		r.Type = label
	}
}

func WithPayload(payload map[string]any) RecordOption {
	return func(r *es.Record) {
		r.Payload = payload
	}
}

// WithData sets the data field TestEventFromPayload reads.
func WithData(data string) RecordOption {
	return func(r *es.Record) {
		r.Payload = map[string]any{"data": data}
	}
}

// WithTime sets both recordedAt and microseconds from t.
func WithTime(t time.Time) RecordOption {
	return func(r *es.Record) {
		r.RecordedAt, r.Microseconds = es.SplitTime(t)
	}
}

// WithRecordedAt sets the raw recordedAt string.
func WithRecordedAt(recordedAt string) RecordOption {
	return func(r *es.Record) {
		r.RecordedAt = recordedAt
	}
}

func WithMicroseconds(micro int) RecordOption {
	return func(r *es.Record) {
		r.Microseconds = micro
	}
}

// RecordsFromEvents converts events to records the way a Store does.
func RecordsFromEvents(registry *es.Registry, aggregateRootID string, events ...es.Event) []es.Record {
	records := make([]es.Record, len(events))
	for i, e := range events {
		records[i] = es.NewRecord(aggregateRootID, registry.Label(e), e)
	}
	return records
}
