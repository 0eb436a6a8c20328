// Package kafka publishes persisted records to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/terraskye/eventstorage"
)

var _ eventstorage.Publisher = (*Publisher)(nil)

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per record, keyed by aggregate root id so
// the records of an aggregate stay on one partition, in order.
type Publisher struct {
	writer MessageWriter
}

// NewPublisher creates a publisher writing synchronously to topic.
func NewPublisher(brokers []string, topic string) *Publisher {
	return NewPublisherWithWriter(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	})
}

// NewPublisherWithWriter creates a publisher over an existing writer.
func NewPublisherWithWriter(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer}
}

// Publish implements eventstorage.Publisher.
func (p *Publisher) Publish(ctx context.Context, record eventstorage.Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	recordedAt, err := record.Time()
	if err != nil {
		recordedAt = time.Now()
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(record.AggregateRootID),
		Value: data,
		Time:  recordedAt,
		Headers: []kafka.Header{
			{Key: eventstorage.FieldType, Value: []byte(record.Type)},
		},
	})
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
