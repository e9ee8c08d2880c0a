package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/anchalk04/smart-parking/internal/app"
	"github.com/anchalk04/smart-parking/internal/auth"
	"github.com/anchalk04/smart-parking/internal/clock"
	"github.com/anchalk04/smart-parking/internal/events"
	"github.com/anchalk04/smart-parking/internal/idempotency"
	"github.com/anchalk04/smart-parking/internal/metrics"
	"github.com/anchalk04/smart-parking/internal/storage/memory"
	"github.com/anchalk04/smart-parking/internal/storage/postgres"
	transporthttp "github.com/anchalk04/smart-parking/internal/transport/http"
)

const readHeaderTimeout = 5 * time.Second

func newServerCmd() *cobra.Command {
	var inMemory bool

	c := &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv()
			if err != nil {
				return err
			}
			defer e.Close()
			if err := e.cfg.ValidateServer(inMemory); err != nil {
				return err
			}
			return runServer(cmd.Context(), e, inMemory)
		},
	}
	c.Flags().BoolVar(&inMemory, "memory", false, "keep all state in process memory (development only)")
	return c
}

type stores struct {
	slots        app.SlotStore
	reservations app.ReservationStore
	users        app.IdentityProvider
	ledger       app.HoldLedger
	health       func(ctx context.Context) error
	close        func()
}

func openStores(ctx context.Context, e *env, inMemory bool, clk clock.Clock) (*stores, error) {
	if inMemory {
		e.log.Warn("running with in-memory stores; state is lost on exit")
		slots := memory.NewSlotStore()
		reservations := memory.NewReservationStore(clk)
		return &stores{
			slots:        slots,
			reservations: reservations,
			users:        memory.NewUserStore(clk),
			ledger:       memory.NewHoldLedger(slots, reservations),
			close:        func() {},
		}, nil
	}

	pool, err := e.openDB(ctx)
	if err != nil {
		return nil, err
	}
	return &stores{
		slots:        postgres.NewSlotRepository(pool),
		reservations: postgres.NewReservationRepository(pool),
		users:        postgres.NewUserRepository(pool),
		ledger:       postgres.NewOrphanedHoldRepository(pool),
		health:       pool.Ping,
		close:        pool.Close,
	}, nil
}

func newPublisher(e *env) (events.Publisher, func()) {
	if len(e.cfg.KafkaBrokers) == 0 {
		return events.NewLogPublisher(e.log), func() {}
	}
	w := events.NewKafkaWriter(e.cfg.KafkaBrokers)
	e.log.Info("publishing events to kafka", "brokers", e.cfg.KafkaBrokers, "topic", e.cfg.KafkaTopic)
	return events.NewKafkaPublisher(e.log, w, e.cfg.KafkaTopic), func() {
		if err := w.Close(); err != nil {
			e.log.Warn("kafka writer close", "err", err)
		}
	}
}

func newClaimer(e *env) (idempotency.Claimer, func()) {
	if e.cfg.RedisAddr == "" {
		return idempotency.NewMemoryStore(e.cfg.IdempotencyTTL), func() {}
	}
	rdb := redis.NewClient(&redis.Options{Addr: e.cfg.RedisAddr})
	return idempotency.NewRedisStore(rdb, e.cfg.IdempotencyTTL), func() { _ = rdb.Close() }
}

func runServer(ctx context.Context, e *env, inMemory bool) error {
	clk := clock.NewSystem()

	st, err := openStores(ctx, e, inMemory, clk)
	if err != nil {
		return err
	}
	defer st.close()

	publisher, closePublisher := newPublisher(e)
	defer closePublisher()
	claims, closeClaims := newClaimer(e)
	defer closeClaims()

	tokens, err := auth.NewTokenManager(e.cfg.JWTSecret, e.cfg.TokenTTL, clk)
	if err != nil {
		return err
	}
	m := metrics.New()

	engine := app.NewReservationEngine(st.slots, st.reservations, clk,
		app.WithLogger(e.log),
		app.WithPublisher(publisher),
		app.WithHoldReporter(app.NewLedgerHoldReporter(st.ledger, publisher)),
		app.WithAttemptRecorder(m),
		app.WithCompensationTimeout(e.cfg.CompensationTimeout),
	)

	handler := transporthttp.NewRouter(transporthttp.RouterConfig{
		Logger:         e.log,
		Tokens:         tokens,
		Auth:           app.NewAuthService(st.users, tokens),
		Slots:          app.NewSlotService(st.slots),
		Reservations:   engine,
		Idempotency:    claims,
		Metrics:        m,
		HealthCheck:    st.health,
		CORSOrigins:    e.cfg.CORSOrigins,
		RequestTimeout: e.cfg.RequestTimeout,
		AuthRateLimit: transporthttp.RateLimit{
			RequestsPerMinute: e.cfg.AuthRatePerMinute,
			Burst:             e.cfg.AuthRateBurst,
		},
	})

	server := &http.Server{
		Addr:              e.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(e.log.Handler(), slog.LevelError),
	}

	e.log.Info("api listening", "addr", e.cfg.HTTPAddr)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-stopCtx.Done():
		e.log.Info("shutdown signal received, stopping server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), e.cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		e.log.Error("server shutdown error", "err", err)
	}
	e.log.Info("server stopped")
	return nil
}
