package app

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/domain"
)

type SlotService struct {
	store SlotStore
}

func NewSlotService(store SlotStore) *SlotService {
	return &SlotService{store: store}
}

type CreateSlotInput struct {
	Name        string
	Zone        string
	PricingRate decimal.Decimal
}

// CreateSlot registers a new slot; it starts available.
func (s *SlotService) CreateSlot(ctx context.Context, in CreateSlotInput) (domain.Slot, error) {
	slot := domain.Slot{
		Name:        strings.TrimSpace(in.Name),
		Zone:        strings.TrimSpace(in.Zone),
		PricingRate: in.PricingRate,
		Status:      domain.SlotStatusAvailable,
	}
	if err := slot.Validate(); err != nil {
		return domain.Slot{}, err
	}
	return s.store.Create(ctx, slot)
}

func (s *SlotService) ListAvailable(ctx context.Context) ([]domain.Slot, error) {
	return s.store.ListAvailable(ctx)
}
