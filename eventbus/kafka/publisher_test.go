package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terraskye/eventstorage"
	"github.com/terraskye/eventstorage/fixtures"
)

type writerSpy struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *writerSpy) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *writerSpy) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	writer := &writerSpy{}
	p := NewPublisherWithWriter(writer)

	at := time.Date(2024, 3, 1, 10, 0, 0, 250000000, time.UTC)
	record := fixtures.NewRecord(
		fixtures.WithAggregateRootID("invoice-1"),
		fixtures.WithType("invoice-was-created"),
		fixtures.WithTime(at),
		fixtures.WithPayload(map[string]any{"number": "2024-0001"}),
	)

	require.NoError(t, p.Publish(t.Context(), record))
	require.Len(t, writer.messages, 1)

	msg := writer.messages[0]
	assert.Equal(t, []byte("invoice-1"), msg.Key)
	assert.True(t, at.Equal(msg.Time))
	assert.Equal(t, []kafka.Header{{Key: "type", Value: []byte("invoice-was-created")}}, msg.Headers)

	var decoded eventstorage.Record
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, record, decoded)
}

func TestPublisher_WriteError(t *testing.T) {
	boom := errors.New("broker unavailable")
	p := NewPublisherWithWriter(&writerSpy{err: boom})

	err := p.Publish(t.Context(), fixtures.NewRecord())
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_UnencodablePayload(t *testing.T) {
	writer := &writerSpy{}
	p := NewPublisherWithWriter(writer)

	err := p.Publish(t.Context(), fixtures.NewRecord(fixtures.WithPayload(map[string]any{"ch": make(chan int)})))
	assert.ErrorContains(t, err, "encode record")
	assert.Empty(t, writer.messages)
}

func TestPublisher_Close(t *testing.T) {
	writer := &writerSpy{}
	require.NoError(t, NewPublisherWithWriter(writer).Close())
	assert.True(t, writer.closed)
}

func TestPublisher_WithCollection(t *testing.T) {
	writer := &writerSpy{}
	collection := eventstorage.WithPublisher(fixtures.NewCollectionSpy(), NewPublisherWithWriter(writer))

	require.NoError(t, collection.InsertOne(t.Context(), fixtures.NewRecord()))
	assert.Len(t, writer.messages, 1)
}
