// Package sqlite provides an eventstorage.Collection backed by a SQLite
// table, using the pure Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/eventstore/internal/sqlcollection"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	aggregate_root_id TEXT NOT NULL,
	"type"            TEXT NOT NULL,
	payload           TEXT NOT NULL,
	recorded_at       TEXT NOT NULL,
	microseconds      INTEGER NOT NULL CHECK (microseconds BETWEEN 0 AND 999999)
);
CREATE INDEX IF NOT EXISTS %[1]s_aggregate_root_idx ON %[1]s (aggregate_root_id, recorded_at, microseconds, id);
`

var dialect = sqlcollection.Dialect{
	Placeholder: func(int) string {
		return "?"
	},
	IsInvalidArgument: isInvalidArgument,
}

// Collection stores records in a SQLite table.
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

// Open opens the SQLite database at path in WAL mode.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	return db, nil
}

func isInvalidArgument(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3lib.SQLITE_CONSTRAINT, sqlite3lib.SQLITE_MISMATCH, sqlite3lib.SQLITE_TOOBIG:
		return true
	}
	return false
}
