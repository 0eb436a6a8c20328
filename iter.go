package eventstorage

import (
	"context"
	"errors"
	"io"
)

// Iterator is a pull iterator over the results of a collection query.
type Iterator[T any] struct {
	nextFunc func(ctx context.Context) (T, error)
	current  T
	err      error
	done     bool
}

// NewIteratorFunc creates an Iterator from a function producing the next
// item. The function returns io.EOF when there are no more items, or any
// other error to abort the iteration.
func NewIteratorFunc[T any](nextFunc func(ctx context.Context) (T, error)) *Iterator[T] {
	return &Iterator[T]{
		nextFunc: nextFunc,
	}
}

// NewSliceIterator creates an Iterator over items.
func NewSliceIterator[T any](items []T) *Iterator[T] {
	idx := 0
	return NewIteratorFunc(func(ctx context.Context) (T, error) {
		if idx >= len(items) {
			var zero T
			return zero, io.EOF
		}
		item := items[idx]
		idx++
		return item, nil
	})
}

// Next advances the iterator. It returns false once the iterator is
// exhausted or failed, and never calls the producer again after that.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}

	v, err := it.nextFunc(ctx)
	if err != nil {
		var zero T
		it.current = zero
		it.done = true
		if !errors.Is(err, io.EOF) {
			it.err = err
		}
		return false
	}

	it.current = v
	return true
}

// Value returns the current item.
func (it *Iterator[T]) Value() T {
	return it.current
}

// Err returns the error that stopped the iteration, if any. Reaching the
// end is not an error.
func (it *Iterator[T]) Err() error {
	return it.err
}

// All consumes the iterator and returns all remaining items.
func (it *Iterator[T]) All(ctx context.Context) ([]T, error) {
	results := make([]T, 0)
	for it.Next(ctx) {
		results = append(results, it.Value())
	}
	return results, it.Err()
}
