package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anchalk04/smart-parking/internal/config"
	"github.com/anchalk04/smart-parking/internal/logging"
	"github.com/anchalk04/smart-parking/migrations"
)

const startupTimeout = 5 * time.Second

// env is what every subcommand starts from.
type env struct {
	cfg    config.Config
	log    *slog.Logger
	closer io.Closer
}

func loadEnv() (*env, error) {
	cfg, notes, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	for _, n := range notes {
		logger.Info(n)
	}
	return &env{cfg: cfg, log: logger, closer: closer}, nil
}

func (e *env) Close() {
	_ = e.closer.Close()
}

// openDB connects, pings, and applies pending migrations.
func (e *env) openDB(ctx context.Context) (*pgxpool.Pool, error) {
	if e.cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, e.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}
	applied, err := migrations.Apply(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	for _, name := range applied {
		e.log.Info("migration applied", "name", name)
	}
	return pool, nil
}
