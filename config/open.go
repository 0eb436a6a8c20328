package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/terraskye/eventstorage"
	kafkabus "github.com/terraskye/eventstorage/eventbus/kafka"
	"github.com/terraskye/eventstorage/eventstore/disk"
	"github.com/terraskye/eventstorage/eventstore/kurrentdb"
	"github.com/terraskye/eventstorage/eventstore/memory"
	"github.com/terraskye/eventstorage/eventstore/mongodb"
	"github.com/terraskye/eventstorage/eventstore/postgres"
	"github.com/terraskye/eventstorage/eventstore/sqlite"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// closers closes in reverse order of registration.
type closers []io.Closer

func (c closers) Close() error {
	var errs []error
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Open creates the configured collection. The returned closer releases the
// connections and writers behind it.
func Open(ctx context.Context, cfg Config) (eventstorage.Collection, io.Closer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	collection, closer, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	all := closers{closer}

	if len(cfg.Kafka.Brokers) > 0 {
		publisher := kafkabus.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		collection = eventstorage.WithPublisher(collection, publisher)
		all = append(all, publisher)
	}

	return collection, all, nil
}

func openBackend(ctx context.Context, cfg Config) (eventstorage.Collection, io.Closer, error) {
	switch cfg.Backend {
	case BackendMemory:
		c := memory.NewCollection()
		return c, c, nil

	case BackendDisk:
		c, err := disk.NewCollection(filepath.Join(cfg.Dir, cfg.Collection))
		if err != nil {
			return nil, nil, err
		}
		return c, c, nil

	case BackendMongoDB:
		c, client, err := mongodb.Connect(ctx, cfg.URI, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		if err := c.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, nil, err
		}
		return c, closerFunc(func() error {
			return client.Disconnect(context.Background())
		}), nil

	case BackendPostgres:
		db, err := postgres.Open(ctx, cfg.URI)
		if err != nil {
			return nil, nil, err
		}
		c, err := postgres.NewCollection(ctx, db, cfg.Collection)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return c, db, nil

	case BackendSQLite:
		db, err := sqlite.Open(ctx, cfg.URI)
		if err != nil {
			return nil, nil, err
		}
		c, err := sqlite.NewCollection(ctx, db, cfg.Collection)
		if err != nil {
			_ = db.Close()
			return nil, nil, err
		}
		return c, db, nil

	case BackendKurrentDB:
		c, client, err := kurrentdb.Connect(cfg.URI, cfg.Collection)
		if err != nil {
			return nil, nil, err
		}
		return c, client, nil
	}

	return nil, nil, fmt.Errorf("unsupported backend %q", cfg.Backend)
}
