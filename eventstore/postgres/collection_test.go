package postgres

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/eventstore/eventstoretest"
)

func TestCollection(t *testing.T) {
	dsn := os.Getenv("EVENTSTORAGE_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("EVENTSTORAGE_POSTGRES_DSN not set")
	}

	db, err := Open(t.Context(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	n := 0
	eventstoretest.Run(t, func(t *testing.T) eventstorage.Collection {
		n++
		table := fmt.Sprintf("events_test_%d_%d", time.Now().UnixNano(), n)

		c, err := NewCollection(t.Context(), db, table)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = db.Exec("DROP TABLE IF EXISTS " + table)
		})
		return c
	})
}

func TestDialectPlaceholder(t *testing.T) {
	assert.Equal(t, "$1", dialect.Placeholder(1))
	assert.Equal(t, "$12", dialect.Placeholder(12))
}

func TestIsInvalidArgument(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "invalid text representation", err: &pq.Error{Code: "22P02"}, want: true},
		{name: "check violation", err: &pq.Error{Code: "23514"}, want: true},
		{name: "wrapped not null violation", err: fmt.Errorf("exec: %w", &pq.Error{Code: "23502"}), want: true},
		{name: "connection failure", err: &pq.Error{Code: "08006"}, want: false},
		{name: "undefined table", err: &pq.Error{Code: "42P01"}, want: false},
		{name: "plain error", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isInvalidArgument(tt.err))
		})
	}
}
