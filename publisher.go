package eventstorage

import (
	"context"
	"fmt"
)

// Publisher is notified of every record a collection persisted.
type Publisher interface {
	Publish(ctx context.Context, record Record) error
}

// PublisherFunc adapts a plain function to the Publisher interface.
type PublisherFunc func(ctx context.Context, record Record) error

func (f PublisherFunc) Publish(ctx context.Context, record Record) error {
	return f(ctx, record)
}

type publishingCollection struct {
	next       Collection
	publishers []Publisher
}

// WithPublisher returns a Collection that hands every successfully inserted
// record to publishers, in order, before InsertOne returns. A failing
// publisher makes InsertOne fail even though the record is persisted.
func WithPublisher(next Collection, publishers ...Publisher) Collection {
	return &publishingCollection{
		next:       next,
		publishers: publishers,
	}
}

func (c *publishingCollection) InsertOne(ctx context.Context, record Record) error {
	if err := c.next.InsertOne(ctx, record); err != nil {
		return err
	}

	for _, p := range c.publishers {
		if err := p.Publish(ctx, record); err != nil {
			return fmt.Errorf("publish %s record of aggregate %s: %w", record.Type, record.AggregateRootID, err)
		}
	}

	return nil
}

func (c *publishingCollection) Find(ctx context.Context, filter Filter, sort Sort) (*Iterator[Record], error) {
	return c.next.Find(ctx, filter, sort)
}
