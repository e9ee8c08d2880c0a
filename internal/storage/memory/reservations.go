package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/domain"
)

type ReservationStore struct {
	mu           sync.Mutex
	clock        clock.Clock
	reservations []domain.Reservation
}

func NewReservationStore(clk clock.Clock) *ReservationStore {
	if clk == nil {
		clk = clock.NewSystem()
	}
	return &ReservationStore{clock: clk}
}

func (s *ReservationStore) Create(ctx context.Context, r domain.Reservation) (domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Reservation{}, err
	}
	if err := r.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = uuid.NewString()
	r.CreatedAt = s.clock.Now().UTC()
	s.reservations = append(s.reservations, r)
	return r, nil
}

// ListByUser returns the user's reservations, newest start first.
func (s *ReservationStore) ListByUser(ctx context.Context, userID string) ([]domain.Reservation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Reservation{}
	for _, r := range s.reservations {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// Count returns the number of stored reservations.
func (s *ReservationStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reservations)
}

// HasReservationSince reports whether slotID has a reservation created at
// or after since.
func (s *ReservationStore) HasReservationSince(_ context.Context, slotID string, since time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.reservations {
		if r.SlotID == slotID && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
