package app

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/storage/memory"
)

func TestSlotService_CreateSlot(t *testing.T) {
	t.Parallel()

	t.Run("creates available slot", func(t *testing.T) {
		svc := NewSlotService(memory.NewSlotStore())

		slot, err := svc.CreateSlot(context.Background(), CreateSlotInput{
			Name:        " S1 ",
			Zone:        "A",
			PricingRate: decimal.RequireFromString("10.00"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if slot.ID == "" || slot.Name != "S1" || slot.Status != domain.SlotStatusAvailable {
			t.Fatalf("unexpected slot %+v", slot)
		}

		list, err := svc.ListAvailable(context.Background())
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(list) != 1 || list[0].ID != slot.ID {
			t.Fatalf("expected new slot listed, got %+v", list)
		}
	})

	t.Run("rejects invalid slots", func(t *testing.T) {
		cases := []struct {
			name string
			in   CreateSlotInput
			want error
		}{
			{"missing name", CreateSlotInput{Zone: "A"}, domain.ErrSlotNameRequired},
			{"missing zone", CreateSlotInput{Name: "S1"}, domain.ErrZoneRequired},
			{"negative rate", CreateSlotInput{Name: "S1", Zone: "A", PricingRate: decimal.NewFromInt(-1)}, domain.ErrInvalidPricingRate},
		}
		for _, tc := range cases {
			svc := NewSlotService(memory.NewSlotStore())
			_, err := svc.CreateSlot(context.Background(), tc.in)
			if !errors.Is(err, tc.want) {
				t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
			}
		}
	})
}

func TestSlotService_ListAvailableSkipsReserved(t *testing.T) {
	t.Parallel()

	store := memory.NewSlotStore(
		domain.Slot{ID: "a", Name: "S1", Zone: "A", Status: domain.SlotStatusAvailable},
		domain.Slot{ID: "b", Name: "S2", Zone: "A", Status: domain.SlotStatusReserved},
		domain.Slot{ID: "c", Name: "S3", Zone: "B", Status: domain.SlotStatusAvailable},
	)
	svc := NewSlotService(store)

	list, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "c" {
		t.Fatalf("expected slots a and c, got %+v", list)
	}
}
