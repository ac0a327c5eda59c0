// Package kafka publishes index events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/papercomputeco/marquee/pkg/eventstream"
	"github.com/papercomputeco/marquee/pkg/logger"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	Brokers []string
	Topic   string
	Logger  *slog.Logger
}

// Publisher writes JSON-encoded events keyed by build id, so every event for
// one build lands on the same partition.
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher. Connections are made lazily on the
// first publish.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(c.Brokers...),
		Topic:                  c.Topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}

	return newPublisher(w, c.Topic, c.Logger), nil
}

func newPublisher(w messageWriter, topic string, log *slog.Logger) *Publisher {
	if log == nil {
		log = logger.Nop()
	}
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: log,
	}
}

// PublishIndexRebuilt writes event to the topic.
func (p *Publisher) PublishIndexRebuilt(ctx context.Context, event *eventstream.IndexRebuiltEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.BuildID),
		Value: payload,
		Time:  event.EmittedAt,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing to kafka topic %s: %w", p.topic, err)
	}

	p.logger.Debug("published index event",
		"topic", p.topic,
		"event_id", event.EventID,
		"build_id", event.BuildID,
	)
	return nil
}

// Close flushes pending writes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

var _ eventstream.Publisher = (*Publisher)(nil)
