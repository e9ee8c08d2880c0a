package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/anchalk04/smart-parking/internal/domain"
)

// HoldLedger keeps orphaned holds in memory. Releases act on the slot and
// reservation stores it was built with.
type HoldLedger struct {
	mu           sync.Mutex
	nextID       int64
	holds        map[int64]domain.OrphanedHold
	slots        *SlotStore
	reservations *ReservationStore
}

func NewHoldLedger(slots *SlotStore, reservations *ReservationStore) *HoldLedger {
	return &HoldLedger{holds: map[int64]domain.OrphanedHold{}, slots: slots, reservations: reservations}
}

func (l *HoldLedger) RecordOrphanedHold(ctx context.Context, hold domain.OrphanedHold) (domain.OrphanedHold, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrphanedHold{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	l.nextID++
	hold.ID = l.nextID
	l.holds[hold.ID] = hold
	return hold, nil
}

func (l *HoldLedger) ListOrphanedHolds(_ context.Context, includeResolved bool) ([]domain.OrphanedHold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := []domain.OrphanedHold{}
	for _, h := range l.holds {
		if includeResolved || !h.Resolved() {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (l *HoldLedger) GetOrphanedHold(_ context.Context, id int64) (domain.OrphanedHold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[id]
	if !ok {
		return domain.OrphanedHold{}, domain.ErrOrphanedHoldNotFound
	}
	return h, nil
}

func (l *HoldLedger) MarkResolved(_ context.Context, id int64, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.markResolvedLocked(id, at)
}

func (l *HoldLedger) markResolvedLocked(id int64, at time.Time) error {
	h, ok := l.holds[id]
	if !ok {
		return domain.ErrOrphanedHoldNotFound
	}
	if h.Resolved() {
		return nil
	}
	at = at.UTC()
	h.ResolvedAt = &at
	l.holds[id] = h
	return nil
}

// ReleaseHold checks for a newer reservation and flips the slot back to
// available while holding the slot store's lock, so no claim on the slot
// can interleave.
func (l *HoldLedger) ReleaseHold(ctx context.Context, id int64, at time.Time) (domain.OrphanedHold, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.OrphanedHold{}, false, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	h, ok := l.holds[id]
	if !ok {
		return domain.OrphanedHold{}, false, domain.ErrOrphanedHoldNotFound
	}
	if h.Resolved() {
		return h, false, nil
	}

	l.slots.mu.Lock()
	defer l.slots.mu.Unlock()

	referenced, err := l.HasReservationSince(ctx, h.SlotID, h.DetectedAt)
	if err != nil {
		return domain.OrphanedHold{}, false, err
	}
	if referenced {
		return domain.OrphanedHold{}, false, domain.ErrHoldStillReferenced
	}

	released := false
	if slot, ok := l.slots.slots[h.SlotID]; ok && slot.Status == domain.SlotStatusReserved {
		slot.Status = domain.SlotStatusAvailable
		l.slots.slots[h.SlotID] = slot
		released = true
	}

	if err := l.markResolvedLocked(id, at); err != nil {
		return domain.OrphanedHold{}, false, err
	}
	return l.holds[id], released, nil
}

func (l *HoldLedger) HasReservationSince(ctx context.Context, slotID string, since time.Time) (bool, error) {
	if l.reservations == nil {
		return false, nil
	}
	return l.reservations.HasReservationSince(ctx, slotID, since)
}
