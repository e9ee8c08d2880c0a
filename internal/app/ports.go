package app

import (
	"context"

	"github.com/anchalk04/smart-parking/internal/domain"
)

// SlotStore is the durable record of slots. CompareAndSetStatus must be
// atomic with respect to concurrent callers on the same slot.
type SlotStore interface {
	ListAvailable(ctx context.Context) ([]domain.Slot, error)
	Get(ctx context.Context, slotID string) (domain.Slot, error)
	Create(ctx context.Context, slot domain.Slot) (domain.Slot, error)
	CompareAndSetStatus(ctx context.Context, slotID string, expected, next domain.SlotStatus) (bool, error)
}

// ReservationStore is the append-only record of reservations.
type ReservationStore interface {
	Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error)
}

// HoldReporter receives orphaned holds for out-of-band reconciliation.
type HoldReporter interface {
	ReportOrphanedHold(ctx context.Context, hold domain.OrphanedHold) error
}

// AttemptRecorder observes reservation attempt outcomes (metrics).
type AttemptRecorder interface {
	ObserveAttempt(state domain.AttemptState)
	ObserveCompensation(released bool)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAttempt(domain.AttemptState) {}
func (nopRecorder) ObserveCompensation(bool) {}
