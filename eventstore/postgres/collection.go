// Package postgres provides an eventstorage.Collection backed by a
// PostgreSQL table.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"
	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/eventstore/internal/sqlcollection"
)

const schema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                BIGSERIAL PRIMARY KEY,
	aggregate_root_id TEXT NOT NULL,
	"type"            TEXT NOT NULL,
	payload           JSONB NOT NULL,
	recorded_at       TEXT NOT NULL,
	microseconds      INTEGER NOT NULL CHECK (microseconds BETWEEN 0 AND 999999)
);
CREATE INDEX IF NOT EXISTS %[1]s_aggregate_root_idx ON %[1]s (aggregate_root_id, recorded_at, microseconds, id);
`

var dialect = sqlcollection.Dialect{
	Placeholder: func(n int) string {
		return "$" + strconv.Itoa(n)
	},
	IsInvalidArgument: isInvalidArgument,
}

// Collection stores records in a PostgreSQL table.
type Collection struct {
	*sqlcollection.Collection
}

var _ eventstorage.Collection = (*Collection)(nil)

// NewCollection returns a collection over table, creating the table when
// it does not exist.
func NewCollection(ctx context.Context, db *sql.DB, table string) (*Collection, error) {
	if err := sqlcollection.ValidateTable(table); err != nil {
		return nil, err
	}
	if _, err := db.ExecContext(ctx, fmt.Sprintf(schema, table)); err != nil {
		return nil, fmt.Errorf("create table %s: %w", table, err)
	}

	c, err := sqlcollection.New(db, table, dialect)
	if err != nil {
		return nil, err
	}
	return &Collection{Collection: c}, nil
}

// Open establishes a connection pool to PostgreSQL.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// isInvalidArgument reports data exceptions (class 22) and integrity
// constraint violations (class 23).
func isInvalidArgument(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch pqErr.Code.Class() {
	case "22", "23":
		return true
	}
	return false
}
