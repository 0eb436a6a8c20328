package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/fixtures"
)

func newRecorder() (*tracetest.SpanRecorder, Option) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	return recorder, WithTracerProvider(provider)
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := map[attribute.Key]attribute.Value{}
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

type storeFunc struct {
	save func(ctx context.Context, aggregate eventstorage.Aggregate) error
	load func(ctx context.Context, aggregate eventstorage.Aggregate) error
}

func (s storeFunc) Save(ctx context.Context, aggregate eventstorage.Aggregate) error {
	return s.save(ctx, aggregate)
}

func (s storeFunc) Load(ctx context.Context, aggregate eventstorage.Aggregate) error {
	return s.load(ctx, aggregate)
}

func TestTelemetryStore_Save(t *testing.T) {
	recorder, tp := newRecorder()
	collection := fixtures.NewCollectionSpy()
	store := WithEventStoreTelemetry(eventstorage.NewStore(collection, fixtures.Registry()), tp,
		WithAttributes(attribute.String("service", "billing")),
	)

	aggregate := fixtures.NewTestAggregate("a-1", fixtures.NewTestEvent().BuildN(3)...)
	require.NoError(t, store.Save(t.Context(), aggregate))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "EventStore.Save", spans[0].Name())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	got := attrs(spans[0])
	assert.Equal(t, "a-1", got[AttrAggregateID].AsString())
	assert.Equal(t, int64(3), got[AttrEventCount].AsInt64())
	assert.Equal(t, "save", got[AttrOperation].AsString())
	assert.Equal(t, "billing", got["service"].AsString())
}

func TestTelemetryStore_SaveError(t *testing.T) {
	recorder, tp := newRecorder()
	collection := fixtures.NewCollectionSpy().FailOnInsert(1, errors.New("disk full"))
	store := WithEventStoreTelemetry(eventstorage.NewStore(collection, fixtures.Registry()), tp)

	err := store.Save(t.Context(), fixtures.NewTestAggregate("a-1", fixtures.NewTestEvent().Build()))
	require.ErrorIs(t, err, eventstorage.ErrStorageFailed)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "storage", attrs(spans[0])[AttrErrorKind].AsString())
	require.Len(t, spans[0].Events(), 1)
	assert.Equal(t, "exception", spans[0].Events()[0].Name)
}

func TestTelemetryStore_Load(t *testing.T) {
	recorder, tp := newRecorder()
	registry := fixtures.Registry()
	collection := fixtures.NewCollectionSpy().WithRecords(
		fixtures.RecordsFromEvents(registry, "a-1", fixtures.NewTestEvent().BuildN(2)...)...,
	)
	store := WithEventStoreTelemetry(eventstorage.NewStore(collection, registry), tp)

	aggregate := fixtures.NewTestAggregate("a-1")
	require.NoError(t, store.Load(t.Context(), aggregate))
	assert.Len(t, aggregate.Applied, 2)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "EventStore.Load", spans[0].Name())
	assert.Equal(t, int64(2), attrs(spans[0])[AttrEventCount].AsInt64())
}

func TestTelemetryStore_LoadUnknownType(t *testing.T) {
	recorder, tp := newRecorder()
	collection := fixtures.NewCollectionSpy().WithRecords(
		fixtures.NewRecord(fixtures.WithAggregateRootID("a-1"), fixtures.WithType("gone-event")),
	)
	store := WithEventStoreTelemetry(eventstorage.NewStore(collection, fixtures.Registry()), tp)

	err := store.Load(t.Context(), fixtures.NewTestAggregate("a-1"))
	require.ErrorIs(t, err, eventstorage.ErrRetrievalFailed)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "retrieval", attrs(spans[0])[AttrErrorKind].AsString())
}

func TestTelemetryStore_PropagatesSpanContext(t *testing.T) {
	_, tp := newRecorder()

	var inner context.Context
	store := WithEventStoreTelemetry(storeFunc{
		save: func(ctx context.Context, _ eventstorage.Aggregate) error {
			inner = ctx
			return nil
		},
	}, tp)

	require.NoError(t, store.Save(t.Context(), fixtures.NewTestAggregate("a-1")))
	require.NotNil(t, inner)
	assert.True(t, traceSpanValid(inner))
}

func TestWithAttributeGetter(t *testing.T) {
	recorder, tp := newRecorder()
	type tenantKey struct{}

	store := WithEventStoreTelemetry(storeFunc{
		load: func(context.Context, eventstorage.Aggregate) error { return nil },
	}, tp, WithAttributeGetter(func(ctx context.Context) []attribute.KeyValue {
		tenant, _ := ctx.Value(tenantKey{}).(string)
		return []attribute.KeyValue{attribute.String("tenant", tenant)}
	}))

	ctx := context.WithValue(t.Context(), tenantKey{}, "acme")
	require.NoError(t, store.Load(ctx, fixtures.NewTestAggregate("a-1")))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "acme", attrs(spans[0])["tenant"].AsString())
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&eventstorage.StorageFailedError{AggregateRootID: "a", Err: errors.New("x")}, "storage"},
		{&eventstorage.RetrievalFailedError{Type: "t"}, "retrieval"},
		{&eventstorage.QueryFailedError{AggregateRootID: "a", Err: errors.New("x")}, "query"},
		{errors.New("x"), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, errorKind(tt.err))
		})
	}
}

func TestTelemetryCollection(t *testing.T) {
	recorder, tp := newRecorder()
	collection := WithCollectionTelemetry(fixtures.NewCollectionSpy(), tp)

	record := fixtures.NewRecord(fixtures.WithMicroseconds(42))
	require.NoError(t, collection.InsertOne(t.Context(), record))

	iter, err := collection.Find(t.Context(), eventstorage.Filter{AggregateRootID: record.AggregateRootID}, eventstorage.DefaultSort)
	require.NoError(t, err)
	records, err := iter.All(t.Context())
	require.NoError(t, err)
	assert.Len(t, records, 1)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	insert := attrs(spans[0])
	assert.Equal(t, "Collection.InsertOne", spans[0].Name())
	assert.Equal(t, "test-event", insert[AttrEventType].AsString())
	assert.Equal(t, int64(42), insert[AttrMicroseconds].AsInt64())

	find := attrs(spans[1])
	assert.Equal(t, "Collection.Find", spans[1].Name())
	assert.Equal(t, "recordedAt,microseconds", find[AttrSortFields].AsString())

	// direct calls do not belong to a store operation
	assert.NotContains(t, insert, AttrStoreOperation)
	assert.NotContains(t, find, AttrStoreOperation)
}

func TestTelemetryCollection_StoreOperation(t *testing.T) {
	recorder, tp := newRecorder()
	store := eventstorage.NewStore(WithCollectionTelemetry(fixtures.NewCollectionSpy(), tp), fixtures.Registry())

	require.NoError(t, store.Save(t.Context(), fixtures.NewTestAggregate("a-1", fixtures.NewTestEvent().BuildN(2)...)))
	require.NoError(t, store.Load(t.Context(), fixtures.NewTestAggregate("a-1")))

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	want := []struct{ name, operation string }{
		{"Collection.InsertOne", eventstorage.OperationSave},
		{"Collection.InsertOne", eventstorage.OperationSave},
		{"Collection.Find", eventstorage.OperationLoad},
	}
	for i, w := range want {
		assert.Equal(t, w.name, spans[i].Name())
		assert.Equal(t, w.operation, attrs(spans[i])[AttrStoreOperation].AsString())
		assert.Equal(t, "a-1", attrs(spans[i])[AttrAggregateID].AsString())
	}
}

func TestTelemetryCollection_FindError(t *testing.T) {
	recorder, tp := newRecorder()
	collection := WithCollectionTelemetry(fixtures.FailingCollection(errors.New("timeout")), tp)

	_, err := collection.Find(t.Context(), eventstorage.Filter{AggregateRootID: "a-1"}, eventstorage.DefaultSort)
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "timeout", spans[0].Status().Description)
}

func traceSpanValid(ctx context.Context) bool {
	return trace.SpanContextFromContext(ctx).IsValid()
}
