package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// Header keys stamped on every event.
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
	HeaderTimestamp = "timestamp"
)

var ErrProducerClosed = errors.New("kafka producer is closed")

// Producer is a thin wrapper around a kafka-go writer that stamps event
// metadata headers on each message. Messages are hashed by key so events for
// one carrier stay ordered.
type Producer struct {
	writer *kafka.Writer
	source string

	mu     sync.RWMutex
	closed bool
}

func NewProducer(brokers []string, topic, source string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker is required")
	}
	if topic == "" {
		return nil, errors.New("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
	}

	return &Producer{writer: writer, source: source}, nil
}

// Publish writes one event. The key selects the partition; eventType lands in
// the event-type header.
func (p *Producer) Publish(ctx context.Context, key, eventType string, value []byte) error {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrProducerClosed
	}

	now := time.Now()
	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  now,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.New().String())},
			{Key: HeaderEventType, Value: []byte(eventType)},
			{Key: HeaderSource, Value: []byte(p.source)},
			{Key: HeaderTimestamp, Value: []byte(now.Format(time.RFC3339))},
		},
	}

	return p.writer.WriteMessages(ctx, msg)
}

func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
