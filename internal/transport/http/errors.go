package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/anchalk04/smart-parking/internal/domain"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeInvalidInput       = "invalid_input"
	codeUnauthenticated    = "unauthenticated"
	codeSlotUnavailable    = "slot_unavailable"
	codeReservationFailed  = "reservation_failed"
	codeEmailTaken         = "email_taken"
	codeInvalidCredentials = "invalid_credentials"
	codeDuplicateRequest   = "duplicate_request"
	codeRateLimited        = "rate_limited"
	codeTimeout            = "timeout"
	codeUnavailable        = "service_unavailable"
	codeForbidden          = "forbidden"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Detail: msg,
		Code:   code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"detail":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError maps a service error onto the HTTP error envelope.
// Internal failures never echo their cause to the client.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, "could not validate credentials")
	case errors.Is(err, domain.ErrReservationFailed):
		// Wins over the 400 categories: a storage rejection after the claim
		// may wrap ErrInvalidInput, and its text is not for clients.
		writeError(w, http.StatusInternalServerError, codeReservationFailed, "reservation failed")
	case errors.Is(err, domain.ErrSlotUnavailable):
		writeError(w, http.StatusBadRequest, codeSlotUnavailable, "Slot not available or does not exist.")
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, codeInvalidInput, err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, codeEmailTaken, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, codeInvalidCredentials, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
