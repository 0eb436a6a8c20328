// Package kurrentdb provides an eventstorage.Collection backed by KurrentDB.
//
// Every aggregate gets its own stream named "<category>-<aggregate root id>".
// Records are appended as JSON events whose event type is the record type.
// Find reads the whole stream and orders it in memory; records that tie on
// the sort keys keep their stream order.
package kurrentdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/kurrent-io/KurrentDB-Client-Go/kurrentdb"

	"github.com/terraskye/eventstorage"
)

var _ eventstorage.Collection = (*Collection)(nil)

// Collection stores records in KurrentDB streams of one category.
type Collection struct {
	client   *kurrentdb.Client
	category string
}

// NewCollection returns a collection appending to the streams of category.
func NewCollection(client *kurrentdb.Client, category string) *Collection {
	return &Collection{client: client, category: category}
}

// Connect opens a client for the connection string uri and returns the
// collection together with the client, which the caller must close.
func Connect(uri, category string) (*Collection, *kurrentdb.Client, error) {
	if strings.TrimSpace(category) == "" {
		return nil, nil, errors.New("kurrentdb collection: category is required")
	}

	settings, err := kurrentdb.ParseConnectionString(uri)
	if err != nil {
		return nil, nil, fmt.Errorf("parse kurrentdb connection string: %w", err)
	}

	client, err := kurrentdb.NewClient(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("connect kurrentdb: %w", err)
	}

	return NewCollection(client, category), client, nil
}

func (c *Collection) streamID(aggregateRootID string) string {
	return c.category + "-" + aggregateRootID
}

// InsertOne implements eventstorage.Collection.
func (c *Collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w: %v", eventstorage.ErrInvalidArgument, err)
	}

	_, err = c.client.AppendToStream(ctx, c.streamID(record.AggregateRootID), kurrentdb.AppendToStreamOptions{
		StreamState: kurrentdb.Any{},
	}, kurrentdb.EventData{
		EventID:     uuid.New(),
		EventType:   record.Type,
		ContentType: kurrentdb.ContentTypeJson,
		Data:        data,
	})
	if err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

// Find implements eventstorage.Collection. A stream that does not exist
// yields no records.
func (c *Collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	stream, err := c.client.ReadStream(ctx, c.streamID(filter.AggregateRootID), kurrentdb.ReadStreamOptions{
		Direction: kurrentdb.Forwards,
		From:      kurrentdb.Start{},
	}, math.MaxInt64)
	if err != nil {
		if isNotFound(err) {
			return eventstorage.NewSliceIterator([]eventstorage.Record{}), nil
		}
		return nil, fmt.Errorf("read stream: %w", err)
	}
	defer stream.Close()

	records := make([]eventstorage.Record, 0)
	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			if isNotFound(err) {
				break
			}
			return nil, fmt.Errorf("read stream: %w", err)
		}

		recorded := event.OriginalEvent()
		var record eventstorage.Record
		if err := json.Unmarshal(recorded.Data, &record); err != nil {
			return nil, fmt.Errorf("decode record %s@%d: %w", recorded.StreamID, recorded.EventNumber, err)
		}
		records = append(records, record)
	}

	slices.SortStableFunc(records, sort.Compare)

	return eventstorage.NewSliceIterator(records), nil
}

func isNotFound(err error) bool {
	var kerr *kurrentdb.Error
	return errors.As(err, &kerr) && kerr.IsErrorCode(kurrentdb.ErrorCodeResourceNotFound)
}
