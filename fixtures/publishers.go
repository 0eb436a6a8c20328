package fixtures

import (
	"context"
	"sync"

	es "github.com/terraskye/eventstorage"
)

var _ es.Publisher = (*PublisherSpy)(nil)

// PublisherSpy captures the records handed to it.
type PublisherSpy struct {
	mu sync.Mutex

	PublishFn func(ctx context.Context, record es.Record) error

	PublishCalls int
	Published    []es.Record

	publishErr error
}

func NewPublisherSpy() *PublisherSpy {
	return &PublisherSpy{}
}

// FailOnPublish configures the publisher to return err on every call.
func (p *PublisherSpy) FailOnPublish(err error) *PublisherSpy {
	p.publishErr = err
	return p
}

// Publish implements Publisher.Publish.
func (p *PublisherSpy) Publish(ctx context.Context, record es.Record) error {
	p.mu.Lock()
	p.PublishCalls++
	p.mu.Unlock()

	if p.PublishFn != nil {
		return p.PublishFn(ctx, record)
	}
	if p.publishErr != nil {
		return p.publishErr
	}

	p.mu.Lock()
	p.Published = append(p.Published, record)
	p.mu.Unlock()
	return nil
}
