// Package kafka provides an eventstream publisher backed by a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/raglinehq/ragline/pkg/eventstream"
)

// DefaultTopic is the topic turn events are published to when none is
// configured.
const DefaultTopic = "ragline.turns"

// Publisher publishes turn events to a Kafka topic. Events are keyed by
// user ID so all turns for one user land on the same partition in order.
type Publisher struct {
	writer *kafkago.Writer
	logger *zap.Logger
}

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of bootstrap broker addresses.
	Brokers []string

	// Topic is the topic to publish to. Defaults to DefaultTopic if empty.
	Topic string
}

// NewPublisher creates a new Kafka-backed eventstream publisher.
func NewPublisher(c Config, logger *zap.Logger) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	return &Publisher{
		writer: &kafkago.Writer{
			Addr:     kafkago.TCP(c.Brokers...),
			Topic:    topic,
			Balancer: &kafkago.LeastBytes{},
		},
		logger: logger,
	}, nil
}

// PublishTurn serializes the event as JSON and writes it to the topic.
func (p *Publisher) PublishTurn(ctx context.Context, event *eventstream.TurnPersistedEvent) error {
	if event == nil {
		return eventstream.ErrNilTurnEvent
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling turn event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.UserID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("writing turn event: %w", err)
	}

	p.logger.Debug("published turn event",
		zap.String("event_id", event.EventID),
		zap.String("conversation_id", event.ConversationID),
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

// Ensure Publisher implements eventstream.Publisher
var _ eventstream.Publisher = (*Publisher)(nil)
