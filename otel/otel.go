// Package otel decorates event stores and collections with OpenTelemetry
// tracing and metrics.
package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName    = "github.com/terraskye/eventstorage"
	instrumentationVersion = "0.1.0"
)

// Semantic attribute keys following OpenTelemetry conventions
const (
	AttrAggregateID    = attribute.Key("eventstorage.aggregate.id")
	AttrEventType      = attribute.Key("eventstorage.event.type")
	AttrEventCount     = attribute.Key("eventstorage.events.count")
	AttrOperation      = attribute.Key("eventstorage.operation")
	AttrErrorKind      = attribute.Key("eventstorage.error.kind")
	AttrSortFields     = attribute.Key("eventstorage.sort.fields")
	AttrMicroseconds   = attribute.Key("eventstorage.event.microseconds")
	AttrStoreOperation = attribute.Key("eventstorage.store.operation")
)

var (
	meter = otel.Meter(instrumentationName, metric.WithInstrumentationVersion(instrumentationVersion))

	EventsAppended, _ = meter.Int64Counter(
		"eventstorage.events.appended",
		metric.WithDescription("Number of events appended to collections"),
		metric.WithUnit("{event}"),
	)

	EventsLoaded, _ = meter.Int64Counter(
		"eventstorage.events.loaded",
		metric.WithDescription("Number of events replayed into aggregates"),
		metric.WithUnit("{event}"),
	)

	EventStoreSaves, _ = meter.Int64Counter(
		"eventstorage.eventstore.saves",
		metric.WithDescription("Number of save operations"),
		metric.WithUnit("{operation}"),
	)

	EventStoreLoads, _ = meter.Int64Counter(
		"eventstorage.eventstore.loads",
		metric.WithDescription("Number of load operations"),
		metric.WithUnit("{operation}"),
	)

	EventStoreDuration, _ = meter.Float64Histogram(
		"eventstorage.eventstore.duration",
		metric.WithDescription("Event store operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)

	EventStoreErrors, _ = meter.Int64Counter(
		"eventstorage.eventstore.errors",
		metric.WithDescription("Number of event store errors"),
		metric.WithUnit("{error}"),
	)

	CollectionDuration, _ = meter.Float64Histogram(
		"eventstorage.collection.duration",
		metric.WithDescription("Collection operation duration"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
)
