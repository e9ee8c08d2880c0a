package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestFallbackHandlers(t *testing.T) {
	r := chi.NewRouter()
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)
	r.Get("/parking/slots", func(w http.ResponseWriter, r *http.Request) {})

	tests := []struct {
		method, path string
		wantStatus   int
		wantCode     string
	}{
		{http.MethodGet, "/parking/spots", http.StatusNotFound, codeNotFound},
		{http.MethodDelete, "/parking/slots", http.StatusMethodNotAllowed, codeMethodNotAllowed},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

		if rec.Code != tt.wantStatus {
			t.Fatalf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.wantStatus, rec.Code)
		}
		var resp errorResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if resp.Code != tt.wantCode {
			t.Fatalf("expected code %s, got %s", tt.wantCode, resp.Code)
		}
	}
}
