package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_OK(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()

	HealthHandler(nil)(rec, req)

	res := rec.Result()
	if res.StatusCode != 200 {
		t.Fatalf("expected status 200, got %d", res.StatusCode)
	}

	body := rec.Body.String()
	if body != "ok" {
		t.Fatalf("expected body %q, got %q", "ok", body)
	}
}

func TestHealthHandler_StoreDown(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	HealthHandler(func(context.Context) error { return errors.New("down") })(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestWelcomeHandler(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	WelcomeHandler(rec, httptest.NewRequest("GET", "/", nil))

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["message"] != "Welcome to the Smart Parking Backend API!" {
		t.Fatalf("unexpected body %v", body)
	}
}
