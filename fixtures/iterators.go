package fixtures

import (
	"context"
	"io"

	es "github.com/terraskye/eventstorage"
)

// EmptyIterator returns an iterator that yields no records.
func EmptyIterator() *es.Iterator[es.Record] {
	return es.NewIteratorFunc(func(ctx context.Context) (es.Record, error) {
		return es.Record{}, io.EOF
	})
}

// FailingIterator returns an iterator that fails with the given error.
func FailingIterator(err error) *es.Iterator[es.Record] {
	return es.NewIteratorFunc(func(ctx context.Context) (es.Record, error) {
		return es.Record{}, err
	})
}

// FailAfterNIterator returns an iterator that yields n records, then fails.
func FailAfterNIterator(records []es.Record, n int, err error) *es.Iterator[es.Record] {
	idx := 0
	return es.NewIteratorFunc(func(ctx context.Context) (es.Record, error) {
		if idx >= n {
			return es.Record{}, err
		}
		if idx >= len(records) {
			return es.Record{}, io.EOF
		}
		r := records[idx]
		idx++
		return r, nil
	})
}

// CountingIterator counts the records handed out.
type CountingIterator struct {
	inner *es.Iterator[es.Record]
	Count int
}

// NewCountingIterator creates a CountingIterator.
func NewCountingIterator(records []es.Record) *CountingIterator {
	ci := &CountingIterator{}
	idx := 0
	ci.inner = es.NewIteratorFunc(func(ctx context.Context) (es.Record, error) {
		if idx >= len(records) {
			return es.Record{}, io.EOF
		}
		ci.Count++
		r := records[idx]
		idx++
		return r, nil
	})
	return ci
}

// Iterator returns the underlying iterator.
func (c *CountingIterator) Iterator() *es.Iterator[es.Record] {
	return c.inner
}
