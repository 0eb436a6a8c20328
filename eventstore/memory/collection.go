// Package memory provides an in-process eventstorage.Collection.
package memory

import (
	"context"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/terraskye/eventstorage"
)

var _ eventstorage.Collection = (*Collection)(nil)

// Collection keeps records in memory, grouped by aggregate root id.
// It is safe for concurrent use.
type Collection struct {
	mu      sync.RWMutex
	records map[string][]eventstorage.Record
	count   int
}

// NewCollection creates an empty collection.
func NewCollection() *Collection {
	return &Collection{
		records: make(map[string][]eventstorage.Record),
	}
}

// InsertOne implements eventstorage.Collection.
func (c *Collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	record.Payload = maps.Clone(record.Payload)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.records[record.AggregateRootID] = append(c.records[record.AggregateRootID], record)
	c.count++

	return nil
}

// Find implements eventstorage.Collection. The sort is stable so records
// with equal keys keep their insertion order.
func (c *Collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	c.mu.RLock()
	records := slices.Clone(c.records[filter.AggregateRootID])
	c.mu.RUnlock()

	slices.SortStableFunc(records, sort.Compare)

	idx := 0
	return eventstorage.NewIteratorFunc(func(ctx context.Context) (eventstorage.Record, error) {
		if err := ctx.Err(); err != nil {
			return eventstorage.Record{}, err
		}
		if idx >= len(records) {
			return eventstorage.Record{}, io.EOF
		}
		record := records[idx]
		idx++
		return record, nil
	}), nil
}

// Len returns the number of stored records across all aggregates.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.count
}

// Close drops all records.
func (c *Collection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = make(map[string][]eventstorage.Record)
	c.count = 0
	return nil
}
