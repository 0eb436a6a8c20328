package eventstorage

import (
	"fmt"
	"strings"
	"time"
)

// Stored field names. SQL backends use the snake_case form of the same names.
const (
	FieldAggregateRootID = "aggregateRootId"
	FieldType            = "type"
	FieldPayload         = "payload"
	FieldRecordedAt      = "recordedAt"
	FieldMicroseconds    = "microseconds"
)

// RecordedAtLayout is the layout of Record.RecordedAt: date, time to the
// second and a numeric UTC offset.
const RecordedAtLayout = "2006-01-02T15:04:05-07:00"

// MaxMicroseconds is the largest valid value of Record.Microseconds.
const MaxMicroseconds = 999999

// Record is the persisted form of a single event.
//
// RecordedAt only carries whole seconds. The sub-second part lives in
// Microseconds and both fields are needed to rebuild the instant.
type Record struct {
	AggregateRootID string         `json:"aggregateRootId" bson:"aggregateRootId"`
	Type            string         `json:"type" bson:"type"`
	Payload         map[string]any `json:"payload" bson:"payload"`
	RecordedAt      string         `json:"recordedAt" bson:"recordedAt"`
	Microseconds    int            `json:"microseconds" bson:"microseconds"`
}

// NewRecord builds the record for an event of the given aggregate.
func NewRecord(aggregateRootID, label string, event Event) Record {
	recordedAt, micro := SplitTime(event.RecordedAt())
	return Record{
		AggregateRootID: aggregateRootID,
		Type:            label,
		Payload:         event.Payload(),
		RecordedAt:      recordedAt,
		Microseconds:    micro,
	}
}

// Time returns the instant the record was recorded at.
func (r Record) Time() (time.Time, error) {
	return JoinTime(r.RecordedAt, r.Microseconds)
}

// Validate reports whether the record can be stored. RecordedAt must be in
// RecordedAtLayout with a +00:00 offset. The returned error wraps
// ErrInvalidArgument.
func (r Record) Validate() error {
	switch {
	case r.AggregateRootID == "":
		return fmt.Errorf("record: empty aggregate root id: %w", ErrInvalidArgument)
	case r.Type == "":
		return fmt.Errorf("record: empty type: %w", ErrInvalidArgument)
	case r.Microseconds < 0 || r.Microseconds > MaxMicroseconds:
		return fmt.Errorf("record: microseconds %d out of range: %w", r.Microseconds, ErrInvalidArgument)
	}
	// Backends sort the raw string, so only the UTC form SplitTime produces
	// orders the same as the instant.
	t, err := time.Parse(RecordedAtLayout, r.RecordedAt)
	if err != nil || t.UTC().Format(RecordedAtLayout) != r.RecordedAt {
		return fmt.Errorf("record: recordedAt %q is not in UTC %s form: %w", r.RecordedAt, RecordedAtLayout, ErrInvalidArgument)
	}
	return nil
}

// Less orders records by recording instant, comparing whole seconds first
// and microseconds second.
func (r Record) Less(other Record) bool {
	if c := compareRecordedAt(r.RecordedAt, other.RecordedAt); c != 0 {
		return c < 0
	}
	return r.Microseconds < other.Microseconds
}

// compareRecordedAt compares two RecordedAt values as instants truncated to
// the second. Unparsable values fall back to a string comparison.
func compareRecordedAt(a, b string) int {
	ta, errA := time.Parse(time.RFC3339, a)
	tb, errB := time.Parse(time.RFC3339, b)
	if errA != nil || errB != nil {
		return strings.Compare(a, b)
	}
	return ta.Truncate(time.Second).Compare(tb.Truncate(time.Second))
}

// SplitTime converts t to UTC and splits it into the second resolution
// RecordedAt string and the microsecond component. Nanoseconds below the
// microsecond are truncated.
func SplitTime(t time.Time) (recordedAt string, microseconds int) {
	t = t.UTC()
	return t.Format(RecordedAtLayout), t.Nanosecond() / int(time.Microsecond)
}

// JoinTime parses recordedAt and replaces its sub-second part with exactly
// the given microseconds. Both "Z" and numeric offsets are accepted.
func JoinTime(recordedAt string, microseconds int) (time.Time, error) {
	if microseconds < 0 || microseconds > MaxMicroseconds {
		return time.Time{}, fmt.Errorf("microseconds %d out of range [0, %d]", microseconds, MaxMicroseconds)
	}

	t, err := time.Parse(time.RFC3339, recordedAt)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse recordedAt %q: %w", recordedAt, err)
	}

	return t.Truncate(time.Second).Add(time.Duration(microseconds) * time.Microsecond), nil
}
