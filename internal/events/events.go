// Package events publishes reservation lifecycle notifications for
// downstream consumers (billing, reconciliation tooling).
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	TypeReservationCreated = "reservation.created"
	TypeHoldOrphaned       = "slot.hold_orphaned"
)

// Event is a single notification keyed by the aggregate it concerns (the
// slot id), so consumers see one slot's events in order.
type Event struct {
	Type       string
	Key        string
	Payload    any
	OccurredAt time.Time
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// LogPublisher writes events to the structured log. It is the default
// when no broker is configured.
type LogPublisher struct {
	log *slog.Logger
}

func NewLogPublisher(log *slog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev.Payload)
	if err != nil {
		return err
	}
	p.log.InfoContext(ctx, "event published", "type", ev.Type, "key", ev.Key, "payload", string(body))
	return nil
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

type ReservationCreated struct {
	ReservationID string    `json:"reservation_id"`
	UserID        string    `json:"user_id"`
	SlotID        string    `json:"slot_id"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	TotalCost     string    `json:"total_cost"`
}

type HoldOrphaned struct {
	SlotID     string    `json:"slot_id"`
	UserID     string    `json:"user_id"`
	Cause      string    `json:"cause"`
	DetectedAt time.Time `json:"detected_at"`
}
