// Package sqlcollection implements eventstorage.Collection on top of
// database/sql. Dialect packages provide the schema, placeholders and error
// classification.
package sqlcollection

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/terraskye/eventstorage"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

// columns maps record fields to table columns.
var columns = map[string]string{
	eventstorage.FieldAggregateRootID: "aggregate_root_id",
	eventstorage.FieldType:            `"type"`,
	eventstorage.FieldRecordedAt:      "recorded_at",
	eventstorage.FieldMicroseconds:    "microseconds",
}

// Dialect captures what differs between SQL databases.
type Dialect struct {
	// Placeholder returns the bind parameter for the n-th argument, 1-based.
	Placeholder func(n int) string

	// IsInvalidArgument reports whether err was caused by the written data
	// rather than by the database or the connection.
	IsInvalidArgument func(err error) bool
}

// Collection stores records in a single table. The table has an
// auto-incrementing id column, used to break ties in insertion order.
type Collection struct {
	db      *sql.DB
	table   string
	dialect Dialect
}

// ValidateTable checks that table can be used as an unquoted SQL identifier.
func ValidateTable(table string) error {
	if !identifier.MatchString(table) {
		return fmt.Errorf("table name %q: %w", table, eventstorage.ErrInvalidArgument)
	}
	return nil
}

// New returns a collection over table. The table must exist.
func New(db *sql.DB, table string, dialect Dialect) (*Collection, error) {
	if err := ValidateTable(table); err != nil {
		return nil, err
	}
	return &Collection{db: db, table: table, dialect: dialect}, nil
}

// InsertOne implements eventstorage.Collection.
func (c *Collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w: %v", eventstorage.ErrInvalidArgument, err)
	}

	p := c.dialect.Placeholder
	query := fmt.Sprintf(
		`INSERT INTO %s (aggregate_root_id, "type", payload, recorded_at, microseconds) VALUES (%s, %s, %s, %s, %s)`,
		c.table, p(1), p(2), p(3), p(4), p(5),
	)

	_, err = c.db.ExecContext(ctx, query,
		record.AggregateRootID,
		record.Type,
		string(payload),
		record.RecordedAt,
		record.Microseconds,
	)
	if err != nil {
		if c.dialect.IsInvalidArgument != nil && c.dialect.IsInvalidArgument(err) {
			return fmt.Errorf("insert record: %w: %v", eventstorage.ErrInvalidArgument, err)
		}
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

// Find implements eventstorage.Collection.
func (c *Collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	order := make([]string, 0, len(sort)+1)
	for _, f := range sort {
		direction := "ASC"
		if f.Descending {
			direction = "DESC"
		}
		order = append(order, columns[f.Field]+" "+direction)
	}
	order = append(order, "id ASC")

	query := fmt.Sprintf(
		`SELECT aggregate_root_id, "type", payload, recorded_at, microseconds FROM %s WHERE aggregate_root_id = %s ORDER BY %s`,
		c.table, c.dialect.Placeholder(1), strings.Join(order, ", "),
	)

	rows, err := c.db.QueryContext(ctx, query, filter.AggregateRootID)
	if err != nil {
		return nil, fmt.Errorf("find records: %w", err)
	}
	defer rows.Close()

	// Rows are read eagerly so an abandoned iterator never pins a connection.
	records := make([]eventstorage.Record, 0)
	for rows.Next() {
		var (
			record  eventstorage.Record
			payload []byte
		)
		if err := rows.Scan(&record.AggregateRootID, &record.Type, &payload, &record.RecordedAt, &record.Microseconds); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if err := json.Unmarshal(payload, &record.Payload); err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}

	return eventstorage.NewSliceIterator(records), nil
}
