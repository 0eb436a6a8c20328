package eventstorage

import (
	"context"
)

// EventStore persists the events of aggregates and rebuilds aggregates from
// their persisted events.
//
// Implementations must guarantee:
//   - Save writes the pending events in the order the aggregate recorded them.
//   - Load applies stored events oldest first, ordered by (recordedAt, microseconds).
//
// Save is not atomic across the pending events: when it fails, the events
// before the failing one are persisted and the ones after it are not.
type EventStore interface {
	// Save appends the pending events of aggregate, one write per event.
	//
	// Errors:
	//   - *StorageFailedError when a write fails. Remaining events are skipped.
	Save(ctx context.Context, aggregate Aggregate) error

	// Load applies every stored event of aggregate to it, in recorded order.
	// The pending events of aggregate are left untouched.
	//
	// Errors:
	//   - *RetrievalFailedError when a stored type is not registered or the
	//     event cannot be rebuilt. Earlier events stay applied.
	//   - *QueryFailedError when the collection cannot be read.
	Load(ctx context.Context, aggregate Aggregate) error
}

var _ EventStore = (*Store)(nil)

// Store is the EventStore backed by a Collection.
type Store struct {
	collection Collection
	registry   *Registry
}

// NewStore creates a store writing to collection and resolving stored
// types through registry.
func NewStore(collection Collection, registry *Registry) *Store {
	if registry == nil {
		registry = NewRegistry(KebabCase{})
	}
	return &Store{
		collection: collection,
		registry:   registry,
	}
}

// Registry returns the registry the store resolves types with.
func (s *Store) Registry() *Registry {
	return s.registry
}

// Save implements the Save method of the EventStore interface.
func (s *Store) Save(ctx context.Context, aggregate Aggregate) error {
	id := aggregate.AggregateRootID()
	ctx = withOperation(ctx, OperationSave, id)

	for _, event := range aggregate.Events() {
		record := NewRecord(id, s.registry.Label(event), event)

		if err := s.collection.InsertOne(ctx, record); err != nil {
			return &StorageFailedError{AggregateRootID: id, Err: err}
		}
	}

	return nil
}

// Load implements the Load method of the EventStore interface.
func (s *Store) Load(ctx context.Context, aggregate Aggregate) error {
	id := aggregate.AggregateRootID()
	ctx = withOperation(ctx, OperationLoad, id)

	iter, err := s.collection.Find(ctx, Filter{AggregateRootID: id}, DefaultSort)
	if err != nil {
		return &QueryFailedError{AggregateRootID: id, Err: err}
	}

	for iter.Next(ctx) {
		record := iter.Value()

		eventType, ok := s.registry.Lookup(record.Type)
		if !ok {
			return &RetrievalFailedError{Type: record.Type}
		}

		recordedAt, err := record.Time()
		if err != nil {
			return &RetrievalFailedError{Type: record.Type, Err: err}
		}

		event, err := eventType.FromPayload(id, record.Payload, recordedAt)
		if err != nil {
			return &RetrievalFailedError{Type: record.Type, Err: err}
		}

		aggregate.Apply(event)
	}

	if err := iter.Err(); err != nil {
		return &QueryFailedError{AggregateRootID: id, Err: err}
	}

	return nil
}
