// Package disk provides an eventstorage.Collection storing one JSON file
// per record.
//
// Records of an aggregate live in their own directory and are named after
// their insertion sequence, so reading a directory in name order yields the
// records in insertion order:
//
//	<dir>/<aggregate root id>/0000000001-invoice-was-created.json
//
// The aggregate root id is path escaped. The ids "." and ".." are rejected
// with eventstorage.ErrInvalidArgument.
package disk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/terraskye/eventstorage"
)

var _ eventstorage.Collection = (*Collection)(nil)

// Collection stores records as files below a base directory.
type Collection struct {
	baseDir string
	mu      sync.Mutex
}

// NewCollection creates the base directory when needed and returns a
// collection storing records below it.
func NewCollection(dir string) (*Collection, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("disk collection: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("disk collection: create %s: %w", dir, err)
	}
	return &Collection{baseDir: dir}, nil
}

// streamDir returns the directory of an aggregate. Ids that escape to "."
// or ".." would not name a directory of their own below baseDir.
func (c *Collection) streamDir(id string) (string, error) {
	name := url.PathEscape(id)
	if name == "" || name == "." || name == ".." {
		return "", fmt.Errorf("aggregate root id %q is not a valid stream name: %w", id, eventstorage.ErrInvalidArgument)
	}
	dir := filepath.Join(c.baseDir, name)
	if filepath.Dir(dir) != filepath.Clean(c.baseDir) {
		return "", fmt.Errorf("aggregate root id %q leaves %s: %w", id, c.baseDir, eventstorage.ErrInvalidArgument)
	}
	return dir, nil
}

// InsertOne implements eventstorage.Collection.
func (c *Collection) InsertOne(ctx context.Context, record eventstorage.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dir, err := c.streamDir(record.AggregateRootID)
	if err != nil {
		return err
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w: %v", eventstorage.ErrInvalidArgument, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create stream dir: %w", err)
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read stream dir: %w", err)
	}

	name := fmt.Sprintf("%010d-%s.json", len(files)+1, url.PathEscape(record.Type))
	path := filepath.Join(dir, name)

	// Write to a temporary file first so a crash never leaves a partial record.
	tmp := filepath.Join(c.baseDir, "."+url.PathEscape(record.AggregateRootID)+"-"+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit record: %w", err)
	}

	return nil
}

// Find implements eventstorage.Collection.
func (c *Collection) Find(ctx context.Context, filter eventstorage.Filter, sort eventstorage.Sort) (*eventstorage.Iterator[eventstorage.Record], error) {
	if err := sort.Validate(); err != nil {
		return nil, err
	}

	dir, err := c.streamDir(filter.AggregateRootID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	files, err := os.ReadDir(dir)
	c.mu.Unlock()
	if err != nil {
		if os.IsNotExist(err) {
			return eventstorage.NewSliceIterator([]eventstorage.Record{}), nil
		}
		return nil, fmt.Errorf("read stream dir: %w", err)
	}

	records := make([]eventstorage.Record, 0, len(files))
	for _, fi := range files {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), ".json") {
			continue
		}

		path := filepath.Join(dir, fi.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read record %s: %w", fi.Name(), err)
		}

		var record eventstorage.Record
		if err := json.Unmarshal(data, &record); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", fi.Name(), err)
		}
		records = append(records, record)
	}

	slices.SortStableFunc(records, sort.Compare)

	return eventstorage.NewSliceIterator(records), nil
}

// Close implements io.Closer. Files need no cleanup.
func (c *Collection) Close() error {
	return nil
}
