package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/idempotency"
	"github.com/anchalk04/smart-parking/internal/metrics"
	"github.com/anchalk04/smart-parking/internal/storage/memory"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	clk := clock.NewFixed(time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC))
	tokens, err := auth.NewTokenManager("router-secret", time.Hour, clk)
	if err != nil {
		t.Fatalf("token manager: %v", err)
	}
	slots := memory.NewSlotStore()
	reservations := memory.NewReservationStore(clk)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handler := NewRouter(RouterConfig{
		Logger:         logger,
		Tokens:         tokens,
		Auth:           app.NewAuthService(memory.NewUserStore(clk), tokens),
		Slots:          app.NewSlotService(slots),
		Reservations:   app.NewReservationEngine(slots, reservations, clk),
		Idempotency:    idempotency.NewMemoryStore(time.Hour),
		Metrics:        metrics.New(),
		RequestTimeout: 5 * time.Second,
		AuthRateLimit:  RateLimit{RequestsPerMinute: 600, Burst: 50},
	})
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func call(t *testing.T, srv *httptest.Server, method, path, token, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()
	out, _ := io.ReadAll(res.Body)
	return res.StatusCode, out
}

func login(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	creds := `{"email":"` + email + `","password":"secret123"}`
	if code, body := call(t, srv, http.MethodPost, "/register", "", creds); code != http.StatusOK {
		t.Fatalf("register: %d %s", code, body)
	}
	code, body := call(t, srv, http.MethodPost, "/login", "", creds)
	if code != http.StatusOK {
		t.Fatalf("login: %d %s", code, body)
	}
	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp.Token
}

func TestRouter_ReservationFlow(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "driver@example.com")

	if code, _ := call(t, srv, http.MethodPost, "/parking/slots", "", `{"slot_name":"S1","zone":"A","pricing_rate":10.00}`); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 creating slot without token, got %d", code)
	}

	code, body := call(t, srv, http.MethodPost, "/parking/slots", token, `{"slot_name":"S1","zone":"A","pricing_rate":10.00}`)
	if code != http.StatusCreated {
		t.Fatalf("create slot: %d %s", code, body)
	}
	var created createSlotResponse
	if err := json.Unmarshal(body, &created); err != nil || len(created.Data) != 1 {
		t.Fatalf("decode slot: %v %s", err, body)
	}
	slotID := created.Data[0].ID

	code, body = call(t, srv, http.MethodGet, "/parking/slots", "", "")
	if code != http.StatusOK || !strings.Contains(string(body), slotID) {
		t.Fatalf("expected slot listed: %d %s", code, body)
	}

	code, body = call(t, srv, http.MethodPost, "/parking/reserve", token, `{"slot_id":"`+slotID+`","duration_hours":3}`)
	if code != http.StatusCreated || !strings.Contains(string(body), `"total_cost":30`) {
		t.Fatalf("reserve: %d %s", code, body)
	}

	code, body = call(t, srv, http.MethodPost, "/parking/reserve", token, `{"slot_id":"`+slotID+`","duration_hours":1}`)
	if code != http.StatusBadRequest || !strings.Contains(string(body), codeSlotUnavailable) {
		t.Fatalf("expected slot unavailable: %d %s", code, body)
	}

	code, body = call(t, srv, http.MethodGet, "/parking/slots", "", "")
	if code != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected no available slots: %d %s", code, body)
	}

	code, body = call(t, srv, http.MethodGet, "/parking/my-reservations", token, "")
	if code != http.StatusOK || !strings.Contains(string(body), slotID) {
		t.Fatalf("my reservations: %d %s", code, body)
	}

	other := login(t, srv, "other@example.com")
	code, body = call(t, srv, http.MethodGet, "/parking/my-reservations", other, "")
	if code != http.StatusOK || strings.TrimSpace(string(body)) != "[]" {
		t.Fatalf("expected other user to see nothing: %d %s", code, body)
	}

	if code, _ := call(t, srv, http.MethodGet, "/parking/my-reservations", "garbage", ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for garbage token, got %d", code)
	}
}

func TestRouter_ConcurrentReserveOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	token := login(t, srv, "driver@example.com")

	_, body := call(t, srv, http.MethodPost, "/parking/slots", token, `{"slot_name":"S1","zone":"A","pricing_rate":"2.50"}`)
	var created createSlotResponse
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode slot: %v", err)
	}
	payload := []byte(`{"slot_id":"` + created.Data[0].ID + `","duration_hours":2}`)

	const n = 20
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequest(http.MethodPost, srv.URL+"/parking/reserve", bytes.NewReader(payload))
			req.Header.Set("Authorization", "Bearer "+token)
			res, err := srv.Client().Do(req)
			if err != nil {
				t.Errorf("request: %v", err)
				return
			}
			res.Body.Close()
			mu.Lock()
			codes[res.StatusCode]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	if codes[http.StatusCreated] != 1 || codes[http.StatusBadRequest] != n-1 {
		t.Fatalf("expected one 201 and %d 400s, got %v", n-1, codes)
	}
}

func TestRouter_MiscRoutes(t *testing.T) {
	srv := newTestServer(t)

	if code, body := call(t, srv, http.MethodGet, "/", "", ""); code != http.StatusOK || !strings.Contains(string(body), "Welcome") {
		t.Fatalf("welcome: %d %s", code, body)
	}
	if code, _ := call(t, srv, http.MethodGet, "/health", "", ""); code != http.StatusOK {
		t.Fatalf("health: %d", code)
	}
	if code, body := call(t, srv, http.MethodGet, "/nope", "", ""); code != http.StatusNotFound || !strings.Contains(string(body), codeNotFound) {
		t.Fatalf("not found: %d %s", code, body)
	}
	if code, _ := call(t, srv, http.MethodDelete, "/parking/slots", "", ""); code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", code)
	}
	if code, body := call(t, srv, http.MethodGet, "/metrics", "", ""); code != http.StatusOK || !strings.Contains(string(body), "smart_parking_http_requests_total") {
		t.Fatalf("metrics: %d", code)
	}
}

func TestRouter_EchoesRequestID(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("X-Request-Id", "req-42")
	res, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	res.Body.Close()

	if got := res.Header.Get("X-Request-Id"); got != "req-42" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
