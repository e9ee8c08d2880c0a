package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/domain"
)

type SlotLister interface {
	ListAvailable(ctx context.Context) ([]domain.Slot, error)
}

type SlotCreator interface {
	CreateSlot(ctx context.Context, in app.CreateSlotInput) (domain.Slot, error)
}

// slotResponse renders decimals as JSON number literals so no precision
// is lost on the way out.
type slotResponse struct {
	ID          string      `json:"id"`
	SlotName    string      `json:"slot_name"`
	Zone        string      `json:"zone"`
	PricingRate json.Number `json:"pricing_rate"`
	Status      string      `json:"status"`
}

func toSlotResponse(s domain.Slot) slotResponse {
	return slotResponse{
		ID:          s.ID,
		SlotName:    s.Name,
		Zone:        s.Zone,
		PricingRate: decimalNumber(s.PricingRate),
		Status:      string(s.Status),
	}
}

func decimalNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func HandleListSlots(svc SlotLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slots, err := svc.ListAvailable(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]slotResponse, 0, len(slots))
		for _, s := range slots {
			out = append(out, toSlotResponse(s))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type createSlotRequest struct {
	SlotName    string           `json:"slot_name"`
	Zone        string           `json:"zone"`
	PricingRate *decimal.Decimal `json:"pricing_rate"`
}

type createSlotResponse struct {
	Message string         `json:"message"`
	Data    []slotResponse `json:"data"`
}

func HandleCreateSlot(svc SlotCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createSlotRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.PricingRate == nil {
			writeError(w, http.StatusBadRequest, codeInvalidInput, "pricing_rate is required")
			return
		}
		slot, err := svc.CreateSlot(r.Context(), app.CreateSlotInput{
			Name:        req.SlotName,
			Zone:        req.Zone,
			PricingRate: *req.PricingRate,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createSlotResponse{
			Message: "Slot created successfully",
			Data:    []slotResponse{toSlotResponse(slot)},
		})
	}
}
