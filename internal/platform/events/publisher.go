// Copyright (c) 2026 Sonora. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package events publishes domain events to Kafka.

Download grant lifecycle events (issued, redeemed) are emitted for analytics
and royalty accounting. Publishing is best-effort from the caller's point of
view: a failed publish is logged and never fails the user's request.

When no brokers are configured, [Noop] stands in for the Kafka publisher.
*/
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout    = 5 * time.Second
	headerEventType = "event_type"
)

// Event is the envelope written to the topic.
type Event struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	// Subject is the partition key; all events of one identity stay ordered.
	Subject string `json:"subject"`
	Data    any    `json:"data"`
}

// NewEvent stamps a new event with a sortable ULID.
func NewEvent(eventType, subject string, data any, occurredAt time.Time) Event {
	return Event{
		ID:         ulid.Make().String(),
		Type:       eventType,
		OccurredAt: occurredAt.UTC(),
		Subject:    subject,
		Data:       data,
	}
}

// Publisher is the interface used by services to publish events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Writer defines the subset of [kafka.Writer] we need, which keeps the publisher testable.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// # Kafka

// KafkaPublisher is a thin wrapper around a kafka writer implementing [Publisher].
type KafkaPublisher struct {
	writer Writer
	logger *slog.Logger
}

// NewKafkaPublisher creates a publisher writing to topic on the given brokers.
//
// The writer is asynchronous: Publish only enqueues, and delivery failures
// surface through the completion callback as log lines. A slow broker never
// adds latency to a grant issue or redemption.
func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		Async:        true,
		Completion:   logDeliveryFailures(logger),
	}
	return NewKafkaPublisherWithWriter(writer, logger)
}

// logDeliveryFailures reports each message of a batch the broker did not accept.
func logDeliveryFailures(logger *slog.Logger) func(messages []kafka.Message, err error) {
	return func(messages []kafka.Message, err error) {
		if err == nil {
			return
		}
		for _, message := range messages {
			logger.Error("event_delivery_failed",
				slog.String("event_type", headerValue(message, headerEventType)),
				slog.String("subject", string(message.Key)),
				slog.Any("error", err),
			)
		}
	}
}

func headerValue(message kafka.Message, key string) string {
	for _, header := range message.Headers {
		if header.Key == key {
			return string(header.Value)
		}
	}
	return ""
}

// NewKafkaPublisherWithWriter allows injecting a test writer.
func NewKafkaPublisherWithWriter(writer Writer, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Publish marshals the event to JSON and writes it keyed by its subject.
func (publisher *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: marshal %s: %w", event.Type, err)
	}

	message := kafka.Message{
		Key:   []byte(event.Subject),
		Value: payload,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
	}

	if err := publisher.writer.WriteMessages(ctx, message); err != nil {
		publisher.logger.Error("event_publish_failed",
			slog.String("event_type", event.Type),
			slog.String("event_id", event.ID),
			slog.Any("error", err),
		)
		return fmt.Errorf("events: write %s: %w", event.Type, err)
	}

	return nil
}

// Close flushes and closes the underlying writer.
func (publisher *KafkaPublisher) Close() error {
	return publisher.writer.Close()
}

// # Disabled

// Noop discards every event.
type Noop struct{}

// Publish implements [Publisher].
func (Noop) Publish(context.Context, Event) error { return nil }

// Close implements [Publisher].
func (Noop) Close() error { return nil }
