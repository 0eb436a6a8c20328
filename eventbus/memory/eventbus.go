// Package memory publishes persisted records on a Go channel.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/terraskye/eventstorage"
)

var _ eventstorage.Publisher = (*Publisher)(nil)

// Publisher forwards records to a buffered channel. When the buffer is full
// the record is dropped and counted, so publishing never blocks a save.
type Publisher struct {
	mu      sync.RWMutex
	records chan eventstorage.Record
	closed  bool
	dropped atomic.Int64
}

// NewPublisher creates a publisher with a channel of the given capacity.
func NewPublisher(buffer int) *Publisher {
	return &Publisher{
		records: make(chan eventstorage.Record, buffer),
	}
}

// Publish implements eventstorage.Publisher.
func (p *Publisher) Publish(ctx context.Context, record eventstorage.Record) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return nil
	}

	select {
	case p.records <- record:
	default:
		p.dropped.Add(1)
	}
	return nil
}

// Records returns the channel records are published on.
func (p *Publisher) Records() <-chan eventstorage.Record {
	return p.records
}

// Dropped returns the number of records dropped on a full buffer.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

// Close closes the channel. Later records are ignored.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.closed {
		p.closed = true
		close(p.records)
	}
	return nil
}
