package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anchalk04/smart-parking/internal/idempotency"
	"github.com/anchalk04/smart-parking/internal/metrics"
)

type AuthService interface {
	Registrar
	LoginService
}

type SlotService interface {
	SlotLister
	SlotCreator
}

type ReservationService interface {
	Reserver
	ReservationLister
}

type RouterConfig struct {
	Logger *slog.Logger
	Tokens TokenVerifier

	Auth         AuthService
	Slots        SlotService
	Reservations ReservationService

	// Optional.
	Idempotency    idempotency.Claimer
	Metrics        *metrics.Metrics
	HealthCheck    func(ctx context.Context) error
	CORSOrigins    []string
	RequestTimeout time.Duration
	AuthRateLimit  RateLimit
}

// NewRouter wires every route and the shared middleware stack.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(func(next http.Handler) http.Handler { return RequestLogger(next, logger) })
	r.Use(middleware.Recoverer)
	r.Use(Tracing)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	r.NotFound(NotFoundHandler().ServeHTTP)
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)

	r.Get("/", WelcomeHandler)
	r.Get("/health", HealthHandler(cfg.HealthCheck))
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	limiter := NewRateLimiter(cfg.AuthRateLimit, logger)
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/register", HandleRegister(cfg.Auth))
		r.Post("/login", HandleLogin(cfg.Auth))
	})

	requireAuth := RequireAuth(cfg.Tokens, logger)
	r.Route("/parking", func(r chi.Router) {
		r.Get("/slots", HandleListSlots(cfg.Slots))
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/slots", HandleCreateSlot(cfg.Slots))
			r.Post("/reserve", HandleReserve(cfg.Reservations, cfg.Idempotency, logger))
			r.Get("/my-reservations", HandleMyReservations(cfg.Reservations))
		})
	})

	return CORS(cfg.CORSOrigins, r)
}
