package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKafkaPublisher_WritesKeyedMessage(t *testing.T) {
	t.Parallel()

	w := &recordingWriter{}
	pub := NewKafkaPublisher(discardLogger(), w, "parking.events")
	at := time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

	err := pub.Publish(context.Background(), Event{
		Type:       TypeHoldOrphaned,
		Key:        "slot-1",
		Payload:    HoldOrphaned{SlotID: "slot-1", UserID: "u1", Cause: "db down", DetectedAt: at},
		OccurredAt: at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "parking.events", msg.Topic)
	assert.Equal(t, "slot-1", string(msg.Key))
	assert.Contains(t, string(msg.Value), `"cause":"db down"`)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, TypeHoldOrphaned, string(msg.Headers[0].Value))
}

func TestKafkaPublisher_PropagatesWriteError(t *testing.T) {
	t.Parallel()

	boom := errors.New("broker unavailable")
	pub := NewKafkaPublisher(discardLogger(), &recordingWriter{err: boom}, "parking.events")

	err := pub.Publish(context.Background(), Event{Type: TypeReservationCreated, Key: "slot-1", Payload: ReservationCreated{}})
	require.ErrorIs(t, err, boom)
}
