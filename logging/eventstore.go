package logging

import (
	"context"
	"log/slog"

	"github.com/terraskye/eventstorage"
)

type eventStore struct {
	logger *slog.Logger
	next   eventstorage.EventStore
}

// WithEventStore logs every Save and Load of next on logger.
func WithEventStore(logger *slog.Logger, next eventstorage.EventStore) eventstorage.EventStore {
	return &eventStore{logger: logger, next: next}
}

func (s *eventStore) Save(ctx context.Context, aggregate eventstorage.Aggregate) error {
	l := s.logger.With(
		"aggregate-root-id", aggregate.AggregateRootID(),
		"events", len(aggregate.Events()),
	)

	l.DebugContext(ctx, "saving events")

	err := s.next.Save(ctx, aggregate)

	if err != nil {
		l.ErrorContext(ctx, "error saving events", "error", err)
	} else {
		l.DebugContext(ctx, "events saved successfully")
	}

	return err
}

func (s *eventStore) Load(ctx context.Context, aggregate eventstorage.Aggregate) error {
	l := s.logger.With(
		"aggregate-root-id", aggregate.AggregateRootID(),
	)

	l.DebugContext(ctx, "loading events")

	err := s.next.Load(ctx, aggregate)

	if err != nil {
		l.ErrorContext(ctx, "error loading events", "error", err)
	} else {
		l.DebugContext(ctx, "events loaded successfully")
	}

	return err
}
