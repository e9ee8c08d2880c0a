package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/idempotency"
)

const idempotencyHeader = "Idempotency-Key"

type Reserver interface {
	Reserve(ctx context.Context, in app.ReserveInput) (domain.Reservation, error)
}

type ReservationLister interface {
	ListForUser(ctx context.Context, userID string) ([]domain.Reservation, error)
}

type reserveRequest struct {
	SlotID        string `json:"slot_id"`
	DurationHours int    `json:"duration_hours"`
}

type reserveResponse struct {
	Message       string      `json:"message"`
	ReservationID string      `json:"reservation_id"`
	TotalCost     json.Number `json:"total_cost"`
}

// HandleReserve books a slot for the caller. When claims is non-nil and the
// request carries an Idempotency-Key, a repeated key from the same caller
// is rejected until the first attempt fails or the key expires.
func HandleReserve(svc Reserver, claims idempotency.Claimer, logger *slog.Logger) http.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}

		var req reserveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		var key string
		if clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader)); clientKey != "" && claims != nil {
			key = idempotency.Key("reserve", userID, clientKey)
			claimed, err := claims.Claim(r.Context(), key)
			switch {
			case err != nil:
				logger.WarnContext(r.Context(), "idempotency store unavailable, continuing unguarded", "err", err)
				key = ""
			case !claimed:
				writeError(w, http.StatusConflict, codeDuplicateRequest, "a request with this Idempotency-Key is already in progress or completed")
				return
			}
		}

		res, err := svc.Reserve(r.Context(), app.ReserveInput{
			UserID:        userID,
			SlotID:        req.SlotID,
			DurationHours: req.DurationHours,
		})
		if err != nil {
			if key != "" {
				rctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 2*time.Second)
				if rerr := claims.Release(rctx, key); rerr != nil {
					logger.WarnContext(r.Context(), "idempotency key not released", "err", rerr)
				}
				cancel()
			}
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, reserveResponse{
			Message:       "Slot reserved successfully",
			ReservationID: res.ID,
			TotalCost:     decimalNumber(res.TotalCost),
		})
	}
}

type reservationResponse struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	SlotID    string      `json:"slot_id"`
	StartTime time.Time   `json:"start_time"`
	EndTime   time.Time   `json:"end_time"`
	TotalCost json.Number `json:"total_cost"`
	CreatedAt time.Time   `json:"created_at"`
}

func HandleMyReservations(svc ReservationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r)
		if !ok {
			return
		}
		list, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		out := make([]reservationResponse, 0, len(list))
		for _, res := range list {
			out = append(out, reservationResponse{
				ID:        res.ID,
				UserID:    res.UserID,
				SlotID:    res.SlotID,
				StartTime: res.StartTime,
				EndTime:   res.EndTime,
				TotalCost: decimalNumber(res.TotalCost),
				CreatedAt: res.CreatedAt,
			})
		}
		writeJSON(w, http.StatusOK, out)
	}
}
