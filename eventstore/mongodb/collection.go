// Package mongodb provides an eventstorage.Collection backed by a MongoDB
// collection, one document per record.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/terraskye/eventstorage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var _ eventstorage.Collection = (*Collection)(nil)

// Collection stores records in a MongoDB collection.
type Collection struct {
	coll *mongo.Collection
}

// NewCollection returns a collection storing records in databaseName.collectionName.
func NewCollection(client *mongo.Client, databaseName, collectionName string) *Collection {
	// Embedded documents decode to bson.M so payloads come back as plain maps.
	opts := options.Collection().SetBSONOptions(&options.BSONOptions{
		DefaultDocumentM: true,
	})
	return &Collection{
		coll: client.Database(databaseName).Collection(collectionName, opts),
	}
}

// Connect opens a client for uri and returns the collection together with
// the client, which the caller must disconnect.
func Connect(ctx context.Context, uri, databaseName, collectionName string) (*Collection, *mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return NewCollection(client, databaseName, collectionName), client, nil
}

// EnsureIndexes creates the index serving Find.
func (c *Collection) EnsureIndexes(ctx context.Context) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: eventstorage.FieldAggregateRootID, Value: 1},
			{Key: eventstorage.FieldRecordedAt, Value: 1},
			{Key: eventstorage.FieldMicroseconds, Value: 1},
			{Key: "_id", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// Drop removes the underlying collection.
func (c *Collection) Drop(ctx context.Context) error {
	return c.coll.Drop(ctx)
}

// InsertOne implements eventstorage.Collection.
func (c *Collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if _, err := c.coll.InsertOne(ctx, record); err != nil {
		return classify("insert record", err)
	}
	return nil
}

// Find implements eventstorage.Collection. Ties are broken by _id, which
// increases with insertion for driver generated ObjectIDs.
func (c *Collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	order := make(bson.D, 0, len(sort)+1)
	for _, f := range sort {
		direction := 1
		if f.Descending {
			direction = -1
		}
		order = append(order, bson.E{Key: f.Field, Value: direction})
	}
	order = append(order, bson.E{Key: "_id", Value: 1})

	cursor, err := c.coll.Find(ctx,
		bson.D{{Key: eventstorage.FieldAggregateRootID, Value: filter.AggregateRootID}},
		options.Find().SetSort(order),
	)
	if err != nil {
		return nil, classify("find records", err)
	}

	records := make([]eventstorage.Record, 0)
	if err := cursor.All(ctx, &records); err != nil {
		return nil, classify("read records", err)
	}

	return eventstorage.NewSliceIterator(records), nil
}

// classify wraps driver errors, marking the ones caused by the request
// itself with eventstorage.ErrInvalidArgument.
func classify(op string, err error) error {
	var (
		marshalErr mongo.MarshalError
		writeErr   mongo.WriteException
	)
	switch {
	case errors.Is(err, mongo.ErrNilDocument),
		errors.Is(err, mongo.ErrEmptySlice),
		errors.As(err, &marshalErr):
		return fmt.Errorf("%s: %w: %v", op, eventstorage.ErrInvalidArgument, err)
	case errors.As(err, &writeErr) && !mongo.IsNetworkError(err) && !mongo.IsTimeout(err):
		return fmt.Errorf("%s: %w: %v", op, eventstorage.ErrInvalidArgument, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
