package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"asset-ledger-api/internal"
	"asset-ledger-api/internal/config"
	"asset-ledger-api/internal/db"
	"asset-ledger-api/internal/ledger"
	"asset-ledger-api/internal/models"
	"asset-ledger-api/internal/store/memory"
	"asset-ledger-api/internal/store/postgres"
	"asset-ledger-api/pkg/importer"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.LoadAndValidate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := internal.NewMetrics()
	deps := internal.Deps{Metrics: metrics, Logger: logger}

	var store ledger.Store
	switch cfg.StoreDriver {
	case config.DriverMemory:
		if cfg.AdminPassword == "" {
			return errors.New("ADMIN_PASSWORD is required with the memory store")
		}
		store = memory.New()
		logger.Warn("using in-memory store; data is lost on exit")

	case config.DriverPostgres:
		conn, err := sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer conn.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = conn.PingContext(pingCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		if err := db.Migrate(ctx, conn, logger); err != nil {
			return err
		}

		pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
		if err != nil {
			return fmt.Errorf("open import pool: %w", err)
		}
		defer pool.Close()
		deps.Resolver = importer.NewPoolResolver(pool)

		pg := postgres.New(conn)
		if cfg.RLSEnabled {
			deps.Sessions = pg
		}
		store = pg
	}

	if cfg.AdminPassword != "" {
		if err := seedAdmin(ctx, store, cfg, logger); err != nil {
			return err
		}
	}

	deps.Service = ledger.NewService(store, ledger.Options{
		AssignmentInitialStatus: cfg.AssignmentInitialStatus,
		Logger:                  logger,
		Recorder:                metrics,
	})

	srv, err := internal.NewServer(cfg, deps)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("starting asset ledger API",
			"addr", cfg.ListenAddr,
			"environment", cfg.Environment,
			"store", cfg.StoreDriver,
			"rls", cfg.RLSEnabled,
			"jwt_issuer", cfg.JWTIssuer,
			"jwt_expiry", cfg.JWTExpiry,
		)
		errc <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

// seedAdmin creates the configured admin account when it does not exist yet,
// so a fresh database can be administered through /users.
func seedAdmin(ctx context.Context, st ledger.Store, cfg *config.Config, logger *slog.Logger) error {
	_, err := st.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ledger.ErrNotFound) {
		return fmt.Errorf("look up admin user: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	if err := st.CreateUser(ctx, &models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminUsername + "@localhost",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}
	logger.Info("seeded admin user", "username", cfg.AdminUsername)
	return nil
}
