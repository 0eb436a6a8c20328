package eventstorage_test

import (
	"context"
	"testing"

	es "github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/fixtures"
)

func TestContextGetters(t *testing.T) {
	type seen struct{ operation, id string }
	var got []seen

	collection := fixtures.NewCollectionSpy()
	collection.InsertOneFn = func(ctx context.Context, record es.Record) error {
		got = append(got, seen{es.OperationFromContext(ctx), es.AggregateRootIDFromContext(ctx)})
		return nil
	}
	collection.FindFn = func(ctx context.Context, filter es.Filter, sort es.Sort) (*es.Iterator[es.Record], error) {
		got = append(got, seen{es.OperationFromContext(ctx), es.AggregateRootIDFromContext(ctx)})
		return fixtures.EmptyIterator(), nil
	}

	store := es.NewStore(collection, fixtures.Registry())

	if err := store.Save(t.Context(), fixtures.NewTestAggregate("a-1", fixtures.NewTestEvent().Build())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Load(t.Context(), fixtures.NewTestAggregate("a-2")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []seen{{es.OperationSave, "a-1"}, {es.OperationLoad, "a-2"}}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestContextGettersOutsideStore(t *testing.T) {
	if id := es.AggregateRootIDFromContext(t.Context()); id != "" {
		t.Errorf("expected no aggregate root id, got %q", id)
	}
	if op := es.OperationFromContext(t.Context()); op != "" {
		t.Errorf("expected no operation, got %q", op)
	}
}
