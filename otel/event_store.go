package otel

import (
	"context"
	"errors"
	"time"

	"github.com/terraskye/eventstorage"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ eventstorage.EventStore = (*TelemetryStore)(nil)

// TelemetryStore traces and measures the calls to an EventStore.
type TelemetryStore struct {
	next   eventstorage.EventStore
	config config
	tracer trace.Tracer
}

// WithEventStoreTelemetry wraps next with a span per operation and the
// eventstorage.eventstore.* metrics.
func WithEventStoreTelemetry(next eventstorage.EventStore, options ...Option) *TelemetryStore {
	c := newConfig(options)
	return &TelemetryStore{
		next:   next,
		config: c,
		tracer: c.tracer(),
	}
}

// Save with metrics + span
func (t *TelemetryStore) Save(ctx context.Context, aggregate eventstorage.Aggregate) error {
	count := len(aggregate.Events())

	ctx, span := t.tracer.Start(ctx, "EventStore.Save",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.config.attributes(ctx,
			AttrOperation.String("save"),
			AttrAggregateID.String(aggregate.AggregateRootID()),
			AttrEventCount.Int(count),
		)...),
	)
	defer span.End()

	start := time.Now()
	err := t.next.Save(ctx, aggregate)

	EventStoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("save")),
	)
	EventStoreSaves.Add(ctx, 1)

	if err != nil {
		t.fail(ctx, span, "save", err)
		return err
	}

	EventsAppended.Add(ctx, int64(count))
	return nil
}

// Load with metrics + span
func (t *TelemetryStore) Load(ctx context.Context, aggregate eventstorage.Aggregate) error {
	ctx, span := t.tracer.Start(ctx, "EventStore.Load",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.config.attributes(ctx,
			AttrOperation.String("load"),
			AttrAggregateID.String(aggregate.AggregateRootID()),
		)...),
	)
	defer span.End()

	counting := &countingAggregate{Aggregate: aggregate}

	start := time.Now()
	err := t.next.Load(ctx, counting)

	EventStoreDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("load")),
	)
	EventStoreLoads.Add(ctx, 1)
	EventsLoaded.Add(ctx, int64(counting.applied))
	span.SetAttributes(AttrEventCount.Int(counting.applied))

	if err != nil {
		t.fail(ctx, span, "load", err)
		return err
	}
	return nil
}

func (t *TelemetryStore) fail(ctx context.Context, span trace.Span, operation string, err error) {
	kind := errorKind(err)
	EventStoreErrors.Add(ctx, 1, metric.WithAttributes(
		AttrOperation.String(operation),
		AttrErrorKind.String(kind),
	))
	span.SetAttributes(AttrErrorKind.String(kind))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, eventstorage.ErrStorageFailed):
		return "storage"
	case errors.Is(err, eventstorage.ErrRetrievalFailed):
		return "retrieval"
	case errors.Is(err, eventstorage.ErrQueryFailed):
		return "query"
	}
	return "unknown"
}

// countingAggregate counts the events replayed into the wrapped aggregate.
type countingAggregate struct {
	eventstorage.Aggregate
	applied int
}

func (c *countingAggregate) Apply(event eventstorage.Event) {
	c.applied++
	c.Aggregate.Apply(event)
}
