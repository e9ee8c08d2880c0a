package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the subset of *kafka.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes events to a single topic with the event type in
// the message headers.
type KafkaPublisher struct {
	log    *slog.Logger
	writer MessageWriter
	topic  string
}

func NewKafkaWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}
}

func NewKafkaPublisher(log *slog.Logger, writer MessageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{log: log, writer: writer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.Type, err)
	}
	occurred := ev.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now().UTC()
	}
	msg := kafka.Message{
		Topic: p.topic,
		Key:   []byte(ev.Key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Type)},
			{Key: "occurred_at", Value: []byte(occurred.Format(time.RFC3339Nano))},
		},
		Time: occurred,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.ErrorContext(ctx, "event publish failed", "type", ev.Type, "key", ev.Key, "err", err)
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}
