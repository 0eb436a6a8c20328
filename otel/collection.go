package otel

import (
	"context"
	"strings"
	"time"

	"github.com/terraskye/eventstorage"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var _ eventstorage.Collection = (*TelemetryCollection)(nil)

// TelemetryCollection traces the calls a store makes to its collection.
type TelemetryCollection struct {
	next   eventstorage.Collection
	config config
	tracer trace.Tracer
}

// WithCollectionTelemetry wraps next with a span per InsertOne and Find.
func WithCollectionTelemetry(next eventstorage.Collection, options ...Option) *TelemetryCollection {
	c := newConfig(options)
	return &TelemetryCollection{
		next:   next,
		config: c,
		tracer: c.tracer(),
	}
}

func (t *TelemetryCollection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	ctx, span := t.tracer.Start(ctx, "Collection.InsertOne",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.config.attributes(ctx,
			AttrOperation.String("insert"),
			AttrAggregateID.String(record.AggregateRootID),
			AttrEventType.String(record.Type),
			AttrMicroseconds.Int(record.Microseconds),
		)...),
		trace.WithAttributes(storeAttributes(ctx)...),
	)
	defer span.End()

	start := time.Now()
	err := t.next.InsertOne(ctx, record)
	CollectionDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("insert")),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (t *TelemetryCollection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	fields := make([]string, 0, len(sort))
	for _, f := range sort {
		fields = append(fields, f.Field)
	}

	ctx, span := t.tracer.Start(ctx, "Collection.Find",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(t.config.attributes(ctx,
			AttrOperation.String("find"),
			AttrAggregateID.String(filter.AggregateRootID),
			AttrSortFields.String(strings.Join(fields, ",")),
		)...),
		trace.WithAttributes(storeAttributes(ctx)...),
	)
	defer span.End()

	start := time.Now()
	iter, err := t.next.Find(ctx, filter, sort)
	CollectionDuration.Record(ctx, float64(time.Since(start).Milliseconds()),
		metric.WithAttributes(AttrOperation.String("find")),
	)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return iter, err
}

// storeAttributes describes the Store call ctx was created by, if any.
func storeAttributes(ctx context.Context) []attribute.KeyValue {
	op := eventstorage.OperationFromContext(ctx)
	if op == "" {
		return nil
	}
	return []attribute.KeyValue{AttrStoreOperation.String(op)}
}
