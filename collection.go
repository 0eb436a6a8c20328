package eventstorage

import (
	"cmp"
	"context"
	"fmt"
	"slices"
)

// Collection is the storage capability the EventStore persists records to.
// There is one collection per aggregate category.
type Collection interface {
	// InsertOne stores a single record as one atomic write. Invalid records
	// are rejected with an error wrapping ErrInvalidArgument.
	InsertOne(ctx context.Context, record Record) error

	// Find returns the records matching filter in the order given by sort.
	// Records with equal sort keys are returned in insertion order.
	Find(ctx context.Context, filter Filter, sort Sort) (*Iterator[Record], error)
}

// Filter is an equality match on the aggregate root identity.
type Filter struct {
	AggregateRootID string
}

// SortField is a single sort key.
type SortField struct {
	Field      string
	Descending bool
}

// Sort lists sort keys by priority.
type Sort []SortField

// DefaultSort orders records by recording instant, oldest first. Sorting by
// recordedAt alone is not enough since it only has second resolution.
var DefaultSort = Sort{
	{Field: FieldRecordedAt},
	{Field: FieldMicroseconds},
}

// sortable lists the fields a Sort may reference.
var sortable = []string{FieldAggregateRootID, FieldType, FieldRecordedAt, FieldMicroseconds}

// Validate checks that every sort key is a sortable record field.
func (s Sort) Validate() error {
	for _, f := range s {
		if !slices.Contains(sortable, f.Field) {
			return fmt.Errorf("sort: unknown field %q: %w", f.Field, ErrInvalidArgument)
		}
	}
	return nil
}

// Compare compares two records by the sort keys. It returns a negative
// number when a sorts before b, and zero when the keys are equal.
func (s Sort) Compare(a, b Record) int {
	for _, f := range s {
		c := compareField(f.Field, a, b)
		if f.Descending {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

func compareField(field string, a, b Record) int {
	switch field {
	case FieldAggregateRootID:
		return cmp.Compare(a.AggregateRootID, b.AggregateRootID)
	case FieldType:
		return cmp.Compare(a.Type, b.Type)
	case FieldRecordedAt:
		return compareRecordedAt(a.RecordedAt, b.RecordedAt)
	case FieldMicroseconds:
		return cmp.Compare(a.Microseconds, b.Microseconds)
	}
	return 0
}
