package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/domain"
	"github.com/anchalk04/smart-parking/internal/idempotency"
)

type stubReserver struct {
	err   error
	got   app.ReserveInput
	calls int
}

func (s *stubReserver) Reserve(_ context.Context, in app.ReserveInput) (domain.Reservation, error) {
	s.calls++
	s.got = in
	if s.err != nil {
		return domain.Reservation{}, s.err
	}
	return domain.Reservation{
		ID:        "res-1",
		UserID:    in.UserID,
		SlotID:    in.SlotID,
		TotalCost: decimal.RequireFromString("10.00").Mul(decimal.NewFromInt(int64(in.DurationHours))),
	}, nil
}

func authed(req *http.Request, userID string) *http.Request {
	return req.WithContext(auth.WithUserID(req.Context(), userID))
}

func TestHandleReserve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "success",
			body:           `{"slot_id":"s1","duration_hours":3}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"total_cost":30`,
		},
		{
			name:           "invalid json",
			body:           `{"slot_id":`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "fractional duration",
			body:           `{"slot_id":"s1","duration_hours":1.5}`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidRequestBody,
		},
		{
			name:           "unknown field",
			body:           `{"slot_id":"s1","duration_hours":1,"user_id":"someone-else"}`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid duration",
			body:           `{"slot_id":"s1","duration_hours":0}`,
			serviceErr:     domain.ErrInvalidDuration,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: codeInvalidInput,
		},
		{
			name:           "slot unavailable",
			body:           `{"slot_id":"s1","duration_hours":1}`,
			serviceErr:     domain.ErrSlotUnavailable,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: "Slot not available or does not exist.",
		},
		{
			name:           "storage failure",
			body:           `{"slot_id":"s1","duration_hours":1}`,
			serviceErr:     fmt.Errorf("%w: %w", domain.ErrReservationFailed, errors.New("pq: connection refused")),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: codeReservationFailed,
		},
		{
			name: "insert rejected by storage",
			body: `{"slot_id":"s1","duration_hours":1}`,
			serviceErr: fmt.Errorf("%w: %w", domain.ErrReservationFailed,
				fmt.Errorf("%w: violates foreign key constraint \"reservations_slot_id_fkey\"", domain.ErrInvalidInput)),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: codeReservationFailed,
		},
		{
			name:           "orphaned hold",
			body:           `{"slot_id":"s1","duration_hours":1}`,
			serviceErr:     fmt.Errorf("%w: %w: %w", domain.ErrReservationFailed, domain.ErrOrphanedHold, errors.New("boom")),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: codeReservationFailed,
		},
		{
			name:           "unexpected error",
			body:           `{"slot_id":"s1","duration_hours":1}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: codeInternalError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &stubReserver{err: tt.serviceErr}
			req := authed(httptest.NewRequest(http.MethodPost, "/parking/reserve", strings.NewReader(tt.body)), "user-1")
			rec := httptest.NewRecorder()

			HandleReserve(svc, nil, nil).ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected body to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
			if strings.Contains(rec.Body.String(), "connection refused") || strings.Contains(rec.Body.String(), "fkey") {
				t.Fatalf("internal cause leaked: %s", rec.Body.String())
			}
		})
	}
}

func TestHandleReserve_UsesCallerFromToken(t *testing.T) {
	t.Parallel()

	svc := &stubReserver{}
	req := authed(httptest.NewRequest(http.MethodPost, "/parking/reserve", strings.NewReader(`{"slot_id":"s1","duration_hours":2}`)), "user-7")
	rec := httptest.NewRecorder()
	HandleReserve(svc, nil, nil).ServeHTTP(rec, req)

	if svc.got.UserID != "user-7" || svc.got.SlotID != "s1" || svc.got.DurationHours != 2 {
		t.Fatalf("unexpected input %+v", svc.got)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["reservation_id"] != "res-1" || resp["message"] != "Slot reserved successfully" {
		t.Fatalf("unexpected response %v", resp)
	}
}

func TestHandleReserve_MissingCaller(t *testing.T) {
	t.Parallel()

	svc := &stubReserver{}
	rec := httptest.NewRecorder()
	HandleReserve(svc, nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/parking/reserve", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized || svc.calls != 0 {
		t.Fatalf("expected 401 without service call, got %d (%d calls)", rec.Code, svc.calls)
	}
}

func TestHandleReserve_IdempotencyKey(t *testing.T) {
	t.Parallel()

	claims := idempotency.NewMemoryStore(time.Hour)
	body := `{"slot_id":"s1","duration_hours":1}`

	send := func(svc *stubReserver, user, key string) int {
		req := authed(httptest.NewRequest(http.MethodPost, "/parking/reserve", strings.NewReader(body)), user)
		req.Header.Set(idempotencyHeader, key)
		rec := httptest.NewRecorder()
		HandleReserve(svc, claims, nil).ServeHTTP(rec, req)
		return rec.Code
	}

	ok := &stubReserver{}
	if code := send(ok, "user-1", "k1"); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := send(ok, "user-1", "k1"); code != http.StatusConflict {
		t.Fatalf("expected 409 on duplicate key, got %d", code)
	}
	if ok.calls != 1 {
		t.Fatalf("expected duplicate not to reach the engine, got %d calls", ok.calls)
	}
	if code := send(ok, "user-2", "k1"); code != http.StatusCreated {
		t.Fatalf("expected key scoped per user, got %d", code)
	}

	failing := &stubReserver{err: domain.ErrSlotUnavailable}
	if code := send(failing, "user-1", "k2"); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
	if code := send(ok, "user-1", "k2"); code != http.StatusCreated {
		t.Fatalf("expected key released after failure, got %d", code)
	}
}

func TestHandleMyReservations(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := stubLister{list: []domain.Reservation{{
		ID: "r1", UserID: "user-1", SlotID: "s1",
		StartTime: start, EndTime: start.Add(3 * time.Hour),
		TotalCost: decimal.RequireFromString("30.00"),
	}}}

	rec := httptest.NewRecorder()
	HandleMyReservations(svc).ServeHTTP(rec, authed(httptest.NewRequest(http.MethodGet, "/parking/my-reservations", nil), "user-1"))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"total_cost":30`) || !strings.Contains(body, `"end_time":"2025-01-01T15:00:00Z"`) {
		t.Fatalf("unexpected body %s", body)
	}
}

type stubLister struct {
	list []domain.Reservation
}

func (s stubLister) ListForUser(context.Context, string) ([]domain.Reservation, error) {
	return s.list, nil
}
