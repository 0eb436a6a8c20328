package eventstorage

import (
	"errors"
	"testing"
	"time"
)

func TestSplitTime(t *testing.T) {
	amsterdam := time.FixedZone("CET", 3600)

	tests := []struct {
		name      string
		in        time.Time
		wantAt    string
		wantMicro int
	}{
		{
			name:      "whole second",
			in:        time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			wantAt:    "2024-03-01T10:00:00+00:00",
			wantMicro: 0,
		},
		{
			name:      "largest microsecond",
			in:        time.Date(2024, 3, 1, 10, 0, 0, 999999000, time.UTC),
			wantAt:    "2024-03-01T10:00:00+00:00",
			wantMicro: 999999,
		},
		{
			name:      "nanoseconds are truncated",
			in:        time.Date(2024, 3, 1, 10, 0, 0, 123456789, time.UTC),
			wantAt:    "2024-03-01T10:00:00+00:00",
			wantMicro: 123456,
		},
		{
			name:      "converted to utc",
			in:        time.Date(2024, 3, 1, 11, 30, 15, 5000, amsterdam),
			wantAt:    "2024-03-01T10:30:15+00:00",
			wantMicro: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			at, micro := SplitTime(tt.in)
			if at != tt.wantAt || micro != tt.wantMicro {
				t.Errorf("SplitTime() = (%q, %d), want (%q, %d)", at, micro, tt.wantAt, tt.wantMicro)
			}
		})
	}
}

func TestJoinTime(t *testing.T) {
	tests := []struct {
		name       string
		recordedAt string
		micro      int
		want       time.Time
		wantErr    bool
	}{
		{
			name:       "numeric offset",
			recordedAt: "2024-03-01T10:00:00+00:00",
			micro:      250,
			want:       time.Date(2024, 3, 1, 10, 0, 0, 250000, time.UTC),
		},
		{
			name:       "zulu",
			recordedAt: "2024-03-01T10:00:00Z",
			micro:      999999,
			want:       time.Date(2024, 3, 1, 10, 0, 0, 999999000, time.UTC),
		},
		{
			name:       "non utc offset",
			recordedAt: "2024-03-01T11:00:00+01:00",
			want:       time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		},
		{
			name:       "fraction in recordedAt is replaced",
			recordedAt: "2024-03-01T10:00:00.5+00:00",
			micro:      1,
			want:       time.Date(2024, 3, 1, 10, 0, 0, 1000, time.UTC),
		},
		{name: "negative micro", recordedAt: "2024-03-01T10:00:00+00:00", micro: -1, wantErr: true},
		{name: "micro overflow", recordedAt: "2024-03-01T10:00:00+00:00", micro: 1000000, wantErr: true},
		{name: "malformed", recordedAt: "01/03/2024", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinTime(tt.recordedAt, tt.micro)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("JoinTime() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitJoinRoundTrip(t *testing.T) {
	start := time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)

	for _, micro := range []int{0, 1, 500000, 999998, 999999} {
		in := start.Add(time.Duration(micro) * time.Microsecond)

		at, m := SplitTime(in)
		out, err := JoinTime(at, m)
		if err != nil {
			t.Fatalf("micro %d: unexpected error: %v", micro, err)
		}
		if !out.Equal(in) {
			t.Errorf("micro %d: got %v, want %v", micro, out, in)
		}
	}
}

func TestRecordValidate(t *testing.T) {
	valid := Record{
		AggregateRootID: "invoice-1",
		Type:            "invoice-was-created",
		Payload:         map[string]any{},
		RecordedAt:      "2024-03-01T10:00:00+00:00",
		Microseconds:    0,
	}

	tests := []struct {
		name   string
		mutate func(r *Record)
		valid  bool
	}{
		{name: "valid", mutate: func(r *Record) {}, valid: true},
		{name: "max microseconds", mutate: func(r *Record) { r.Microseconds = MaxMicroseconds }, valid: true},
		{name: "nil payload", mutate: func(r *Record) { r.Payload = nil }, valid: true},
		{name: "empty id", mutate: func(r *Record) { r.AggregateRootID = "" }},
		{name: "empty type", mutate: func(r *Record) { r.Type = "" }},
		{name: "negative microseconds", mutate: func(r *Record) { r.Microseconds = -1 }},
		{name: "microseconds overflow", mutate: func(r *Record) { r.Microseconds = MaxMicroseconds + 1 }},
		{name: "bad recordedAt", mutate: func(r *Record) { r.RecordedAt = "now" }},
		{name: "zulu recordedAt", mutate: func(r *Record) { r.RecordedAt = "2024-03-01T10:00:00Z" }},
		{name: "non utc offset", mutate: func(r *Record) { r.RecordedAt = "2024-03-01T12:00:00+02:00" }},
		{name: "fractional seconds", mutate: func(r *Record) { r.RecordedAt = "2024-03-01T10:00:00.5+00:00" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)

			err := r.Validate()
			if tt.valid {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got %v", err)
			}
		})
	}
}

func TestRecordLess(t *testing.T) {
	at := func(recordedAt string, micro int) Record {
		return Record{RecordedAt: recordedAt, Microseconds: micro}
	}

	tests := []struct {
		name string
		a, b Record
		want bool
	}{
		{name: "earlier second", a: at("2024-03-01T10:00:00+00:00", 999999), b: at("2024-03-01T10:00:01+00:00", 0), want: true},
		{name: "later second", a: at("2024-03-01T10:00:01+00:00", 0), b: at("2024-03-01T10:00:00+00:00", 999999)},
		{name: "same second earlier micro", a: at("2024-03-01T10:00:00+00:00", 1), b: at("2024-03-01T10:00:00+00:00", 2), want: true},
		{name: "equal", a: at("2024-03-01T10:00:00+00:00", 5), b: at("2024-03-01T10:00:00+00:00", 5)},
		{name: "same instant other offset", a: at("2024-03-01T11:00:00+01:00", 1), b: at("2024-03-01T10:00:00Z", 2), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Less(tt.b); got != tt.want {
				t.Errorf("Less() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewRecord(t *testing.T) {
	at := time.Date(2024, 3, 1, 10, 0, 0, 42000, time.UTC)
	r := NewRecord("invoice-1", "sample-event", sampleEvent{At: at, Data: "x"})

	if r.AggregateRootID != "invoice-1" || r.Type != "sample-event" {
		t.Fatalf("unexpected identity %+v", r)
	}
	if r.RecordedAt != "2024-03-01T10:00:00+00:00" || r.Microseconds != 42 {
		t.Fatalf("unexpected time (%q, %d)", r.RecordedAt, r.Microseconds)
	}
	if r.Payload["data"] != "x" {
		t.Fatalf("unexpected payload %v", r.Payload)
	}

	got, err := r.Time()
	if err != nil || !got.Equal(at) {
		t.Fatalf("Time() = %v, %v", got, err)
	}
}

func TestSortCompare(t *testing.T) {
	a := Record{AggregateRootID: "a", Type: "x", RecordedAt: "2024-03-01T10:00:00+00:00", Microseconds: 1}
	b := Record{AggregateRootID: "a", Type: "y", RecordedAt: "2024-03-01T10:00:00+00:00", Microseconds: 2}

	if DefaultSort.Compare(a, b) >= 0 {
		t.Error("expected a before b by default")
	}
	if (Sort{{Field: FieldMicroseconds, Descending: true}}).Compare(a, b) <= 0 {
		t.Error("expected b before a descending")
	}
	if (Sort{{Field: FieldAggregateRootID}}).Compare(a, b) != 0 {
		t.Error("expected equal aggregate root ids to compare equal")
	}
	if (Sort{{Field: FieldType}, {Field: FieldMicroseconds}}).Compare(b, a) <= 0 {
		t.Error("expected type to take priority")
	}
}

func TestSortValidate(t *testing.T) {
	if err := DefaultSort.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Sort{}).Validate(); err != nil {
		t.Fatalf("unexpected error for empty sort: %v", err)
	}
	if err := (Sort{{Field: FieldPayload}}).Validate(); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}
