// Package memory holds in-process stores used by tests and by the server
// when no DATABASE_URL is configured.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/anchalk04/smart-parking/internal/domain"
)

type SlotStore struct {
	mu    sync.Mutex
	slots map[string]domain.Slot
}

func NewSlotStore(seed ...domain.Slot) *SlotStore {
	s := &SlotStore{slots: make(map[string]domain.Slot, len(seed))}
	for _, slot := range seed {
		if slot.ID == "" {
			slot.ID = uuid.NewString()
		}
		if slot.Status == "" {
			slot.Status = domain.SlotStatusAvailable
		}
		s.slots[slot.ID] = slot
	}
	return s
}

func (s *SlotStore) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.Slot, 0, len(s.slots))
	for _, slot := range s.slots {
		if slot.Status == domain.SlotStatusAvailable {
			out = append(out, slot)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *SlotStore) Get(ctx context.Context, slotID string) (domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Slot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok {
		return domain.Slot{}, domain.ErrSlotNotFound
	}
	return slot, nil
}

func (s *SlotStore) Create(ctx context.Context, slot domain.Slot) (domain.Slot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Slot{}, err
	}
	if slot.Status == "" {
		slot.Status = domain.SlotStatusAvailable
	}
	if err := slot.Validate(); err != nil {
		return domain.Slot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot.ID = uuid.NewString()
	s.slots[slot.ID] = slot
	return slot, nil
}

// CompareAndSetStatus moves the slot to next only if it is currently in
// expected. An unknown slot reports false.
func (s *SlotStore) CompareAndSetStatus(ctx context.Context, slotID string, expected, next domain.SlotStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if !next.Valid() {
		return false, domain.ErrInvalidSlotStatus
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	slot, ok := s.slots[slotID]
	if !ok || slot.Status != expected {
		return false, nil
	}
	slot.Status = next
	s.slots[slotID] = slot
	return true, nil
}
