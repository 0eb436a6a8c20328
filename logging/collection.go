package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/terraskye/eventstorage"
)

type collection struct {
	logger *logrus.Entry
	next   eventstorage.Collection
}

// WithCollection logs every record written to and every query run against
// next. Failed calls are logged at error level.
func WithCollection(logger *logrus.Entry, next eventstorage.Collection) eventstorage.Collection {
	return &collection{logger: logger, next: next}
}

func (c *collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	l := c.logger.WithContext(ctx).WithFields(logrus.Fields{
		"aggregate-root-id": record.AggregateRootID,
		"type":              record.Type,
		"recorded-at":       record.RecordedAt,
		"microseconds":      record.Microseconds,
	})
	l = withOperation(ctx, l)

	l.Debugf("InsertOne: %s", record.Type)

	err := c.next.InsertOne(ctx, record)
	if err != nil {
		l.WithError(err).Errorf("InsertOne failed: %s", record.Type)
	}

	return err
}

func (c *collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	l := c.logger.WithContext(ctx).WithField("aggregate-root-id", filter.AggregateRootID)
	l = withOperation(ctx, l)

	l.Debugf("Find: %d sort keys", len(sort))

	iter, err := c.next.Find(ctx, filter, sort)
	if err != nil {
		l.WithError(err).Error("Find failed")
	}

	return iter, err
}

// withOperation adds the Store operation ctx belongs to.
func withOperation(ctx context.Context, l *logrus.Entry) *logrus.Entry {
	if op := eventstorage.OperationFromContext(ctx); op != "" {
		return l.WithField("operation", op)
	}
	return l
}
