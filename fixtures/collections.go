package fixtures

import (
	"context"
	"slices"
	"sync"

	es "github.com/terraskye/eventstorage"
)

var _ es.Collection = (*CollectionSpy)(nil)

// CollectionSpy is a configurable in-memory Collection for testing.
// It tracks calls and allows injecting custom behavior or failures.
type CollectionSpy struct {
	mu sync.Mutex

	// Function overrides for custom behavior
	InsertOneFn func(ctx context.Context, record es.Record) error
	FindFn      func(ctx context.Context, filter es.Filter, sort es.Sort) (*es.Iterator[es.Record], error)

	// Call tracking
	InsertOneCalls int
	FindCalls      int

	// Captured arguments
	Inserted   []es.Record
	LastFilter es.Filter
	LastSort   es.Sort

	records []es.Record

	// Error injection
	insertErr    error
	insertFailAt int
	findErr      error
}

// NewCollectionSpy creates a new CollectionSpy with default behavior.
func NewCollectionSpy() *CollectionSpy {
	return &CollectionSpy{}
}

// WithRecords pre-populates the collection.
func (c *CollectionSpy) WithRecords(records ...es.Record) *CollectionSpy {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, records...)
	return c
}

// FailOnInsert makes the n-th InsertOne call (1-based) and every call after
// it fail with err.
func (c *CollectionSpy) FailOnInsert(n int, err error) *CollectionSpy {
	c.insertFailAt = n
	c.insertErr = err
	return c
}

// FailOnFind makes Find return err.
func (c *CollectionSpy) FailOnFind(err error) *CollectionSpy {
	c.findErr = err
	return c
}

// InsertOne implements Collection.InsertOne.
func (c *CollectionSpy) InsertOne(ctx context.Context, record es.Record) error {
	c.mu.Lock()
	c.InsertOneCalls++
	call := c.InsertOneCalls
	c.Inserted = append(c.Inserted, record)
	c.mu.Unlock()

	if c.InsertOneFn != nil {
		return c.InsertOneFn(ctx, record)
	}

	if c.insertErr != nil && call >= c.insertFailAt {
		return c.insertErr
	}

	c.mu.Lock()
	c.records = append(c.records, record)
	c.mu.Unlock()
	return nil
}

// Find implements Collection.Find. Records are filtered and stably sorted.
func (c *CollectionSpy) Find(ctx context.Context, filter es.Filter, sort es.Sort) (*es.Iterator[es.Record], error) {
	c.mu.Lock()
	c.FindCalls++
	c.LastFilter = filter
	c.LastSort = sort
	c.mu.Unlock()

	if c.FindFn != nil {
		return c.FindFn(ctx, filter, sort)
	}

	if c.findErr != nil {
		return nil, c.findErr
	}
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	var matched []es.Record
	for _, r := range c.records {
		if r.AggregateRootID == filter.AggregateRootID {
			matched = append(matched, r)
		}
	}
	c.mu.Unlock()

	slices.SortStableFunc(matched, sort.Compare)
	return es.NewSliceIterator(matched), nil
}

// Stored returns the records accepted so far.
func (c *CollectionSpy) Stored() []es.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.records)
}

// FailingCollection returns a CollectionSpy that fails on all operations.
func FailingCollection(err error) *CollectionSpy {
	return NewCollectionSpy().FailOnInsert(1, err).FailOnFind(err)
}
