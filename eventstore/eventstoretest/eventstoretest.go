// Package eventstoretest holds the behaviour every Collection backend must
// share. Backend packages run it from their own tests.
package eventstoretest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	es "github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/example"
	"github.com/terraskye/eventstorage/fixtures"
)

// Run runs the conformance suite. newCollection must return an empty
// collection on every call.
func Run(t *testing.T, newCollection func(t *testing.T) es.Collection) {
	t.Helper()

	tests := []struct {
		name string
		run  func(t *testing.T, c es.Collection)
	}{
		{"find unknown aggregate is empty", testFindEmpty},
		{"find filters by aggregate", testFilter},
		{"default sort orders by instant", testDefaultSort},
		{"ties keep insertion order", testTies},
		{"microsecond bounds", testMicrosecondBounds},
		{"mixed offsets are rejected", testMixedOffsets},
		{"descending sort", testDescending},
		{"payload round trip", testPayload},
		{"invalid record", testInvalidRecord},
		{"unknown sort field", testUnknownSortField},
		{"store round trip", testStoreRoundTrip},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.run(t, newCollection(t))
		})
	}
}

func find(t *testing.T, c es.Collection, id string, sort es.Sort) []es.Record {
	t.Helper()
	iter, err := c.Find(t.Context(), es.Filter{AggregateRootID: id}, sort)
	require.NoError(t, err)
	records, err := iter.All(t.Context())
	require.NoError(t, err)
	return records
}

func insert(t *testing.T, c es.Collection, records ...es.Record) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, c.InsertOne(t.Context(), r))
	}
}

func data(records []es.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i], _ = r.Payload["data"].(string)
	}
	return out
}

func testFindEmpty(t *testing.T, c es.Collection) {
	assert.Empty(t, find(t, c, "missing", es.DefaultSort))
}

func testFilter(t *testing.T, c es.Collection) {
	insert(t, c,
		fixtures.NewRecord(fixtures.WithAggregateRootID("a"), fixtures.WithData("a1")),
		fixtures.NewRecord(fixtures.WithAggregateRootID("b"), fixtures.WithData("b1")),
		fixtures.NewRecord(fixtures.WithAggregateRootID("a"), fixtures.WithData("a2")),
	)

	assert.Equal(t, []string{"a1", "a2"}, data(find(t, c, "a", es.DefaultSort)))
	assert.Equal(t, []string{"b1"}, data(find(t, c, "b", es.DefaultSort)))
}

func testDefaultSort(t *testing.T, c es.Collection) {
	base := fixtures.Epoch
	insert(t, c,
		fixtures.NewRecord(fixtures.WithTime(base.Add(2*time.Second)), fixtures.WithData("third")),
		fixtures.NewRecord(fixtures.WithTime(base.Add(500*time.Microsecond)), fixtures.WithData("second")),
		fixtures.NewRecord(fixtures.WithTime(base.Add(20*time.Microsecond)), fixtures.WithData("first")),
		fixtures.NewRecord(fixtures.WithTime(base.Add(time.Minute)), fixtures.WithData("fourth")),
	)

	assert.Equal(t, []string{"first", "second", "third", "fourth"}, data(find(t, c, "aggregate-1", es.DefaultSort)))
}

func testTies(t *testing.T, c es.Collection) {
	at := fixtures.WithTime(fixtures.Epoch.Add(7 * time.Microsecond))
	insert(t, c,
		fixtures.NewRecord(at, fixtures.WithData("1")),
		fixtures.NewRecord(at, fixtures.WithData("2")),
		fixtures.NewRecord(at, fixtures.WithData("3")),
	)

	assert.Equal(t, []string{"1", "2", "3"}, data(find(t, c, "aggregate-1", es.DefaultSort)))
}

func testMicrosecondBounds(t *testing.T, c es.Collection) {
	insert(t, c,
		fixtures.NewRecord(fixtures.WithMicroseconds(es.MaxMicroseconds), fixtures.WithData("max")),
		fixtures.NewRecord(fixtures.WithMicroseconds(0), fixtures.WithData("zero")),
	)

	records := find(t, c, "aggregate-1", es.DefaultSort)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"zero", "max"}, data(records))
	assert.Equal(t, 0, records[0].Microseconds)
	assert.Equal(t, es.MaxMicroseconds, records[1].Microseconds)

	at, err := records[1].Time()
	require.NoError(t, err)
	assert.True(t, fixtures.Epoch.Add(999999*time.Microsecond).Equal(at))
}

func testMixedOffsets(t *testing.T, c es.Collection) {
	// 10:00+02:00 is 08:00Z and would sort after 09:00Z as a string
	err := c.InsertOne(t.Context(), fixtures.NewRecord(
		fixtures.WithRecordedAt("2024-03-01T10:00:00+02:00"), fixtures.WithData("eight"),
	))
	require.ErrorIs(t, err, es.ErrInvalidArgument)

	insert(t, c,
		fixtures.NewRecord(fixtures.WithRecordedAt("2024-03-01T09:00:00+00:00"), fixtures.WithData("nine")),
		fixtures.NewRecord(fixtures.WithTime(time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("CEST", 2*3600))), fixtures.WithData("eight")),
	)

	records := find(t, c, "aggregate-1", es.DefaultSort)
	assert.Equal(t, []string{"eight", "nine"}, data(records))
	assert.Equal(t, "2024-03-01T08:00:00+00:00", records[0].RecordedAt)
}

func testDescending(t *testing.T, c es.Collection) {
	insert(t, c,
		fixtures.NewRecord(fixtures.WithTime(fixtures.Epoch), fixtures.WithData("old")),
		fixtures.NewRecord(fixtures.WithTime(fixtures.Epoch.Add(time.Hour)), fixtures.WithData("new")),
	)

	sort := es.Sort{
		{Field: es.FieldRecordedAt, Descending: true},
		{Field: es.FieldMicroseconds, Descending: true},
	}
	assert.Equal(t, []string{"new", "old"}, data(find(t, c, "aggregate-1", sort)))
}

func testPayload(t *testing.T, c es.Collection) {
	record := fixtures.NewRecord(
		fixtures.WithType("invoice-was-created"),
		fixtures.WithTime(fixtures.Epoch.Add(123456*time.Microsecond)),
		fixtures.WithPayload(map[string]any{
			"number": "2024-0001",
			"nested": map[string]any{"flag": true, "none": nil},
			"items":  []any{"a", "b"},
			"amount": 10.5,
		}),
	)
	insert(t, c, record)

	records := find(t, c, "aggregate-1", es.DefaultSort)
	require.Len(t, records, 1)
	got := records[0]

	assert.Equal(t, record.AggregateRootID, got.AggregateRootID)
	assert.Equal(t, "invoice-was-created", got.Type)
	assert.Equal(t, record.RecordedAt, got.RecordedAt)
	assert.Equal(t, 123456, got.Microseconds)
	assert.Equal(t, "2024-0001", got.Payload["number"])
	assert.EqualValues(t, 10.5, got.Payload["amount"])

	// backends may hand back their own named map and slice types
	assert.EqualValues(t, map[string]any{"flag": true, "none": nil}, got.Payload["nested"])
	assert.EqualValues(t, []any{"a", "b"}, got.Payload["items"])
}

func testInvalidRecord(t *testing.T, c es.Collection) {
	tests := []struct {
		name   string
		record es.Record
	}{
		{"empty aggregate root id", fixtures.NewRecord(fixtures.WithAggregateRootID(""))},
		{"empty type", fixtures.NewRecord(fixtures.WithType(""))},
		{"negative microseconds", fixtures.NewRecord(fixtures.WithMicroseconds(-1))},
		{"microseconds overflow", fixtures.NewRecord(fixtures.WithMicroseconds(es.MaxMicroseconds + 1))},
		{"malformed recordedAt", fixtures.NewRecord(fixtures.WithRecordedAt("yesterday"))},
		{"recordedAt with offset", fixtures.NewRecord(fixtures.WithRecordedAt("2024-03-01T10:00:00+02:00"))},
		{"recordedAt in zulu form", fixtures.NewRecord(fixtures.WithRecordedAt("2024-03-01T10:00:00Z"))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.InsertOne(t.Context(), tt.record)
			assert.ErrorIs(t, err, es.ErrInvalidArgument)
		})
	}

	assert.Empty(t, find(t, c, "aggregate-1", es.DefaultSort))
}

func testUnknownSortField(t *testing.T, c es.Collection) {
	_, err := c.Find(t.Context(), es.Filter{AggregateRootID: "aggregate-1"}, es.Sort{{Field: "payload"}})
	assert.ErrorIs(t, err, es.ErrInvalidArgument)
}

func testStoreRoundTrip(t *testing.T, c es.Collection) {
	store := es.NewStore(c, es.NewRegistry(es.KebabCase{}, example.Types()...))

	invoice := example.Create("2024-0001",
		example.NewItem("prod.123.456", "Product", 3, 5.95, 21),
		example.NewItem("", "Shipping", 1, 4.95, 0),
	)
	tx := invoice.StartPaymentTransaction("Manual", 10)
	require.NoError(t, invoice.CompletePaymentTransaction(tx.ID))

	require.NoError(t, store.Save(t.Context(), invoice))

	loaded := example.Init(invoice.AggregateRootID())
	require.NoError(t, store.Load(t.Context(), loaded))

	assert.Equal(t, "2024-0001", loaded.Number)
	assert.Empty(t, loaded.Events())
	require.Len(t, loaded.Items, 2)
	require.NotNil(t, loaded.Items[0].Reference)
	assert.Equal(t, "prod.123.456", *loaded.Items[0].Reference)
	assert.Nil(t, loaded.Items[1].Reference)
	assert.Equal(t, 22.8, loaded.SubTotal())
	assert.Equal(t, 3.75, loaded.Tax())
	assert.Equal(t, 16.55, loaded.Total())
	assert.True(t, invoice.CreatedAt.Truncate(time.Microsecond).Equal(loaded.CreatedAt))
}
