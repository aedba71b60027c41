package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/handler"
	"github.com/boddenberg/finance-store-go/internal/infra/cache"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the store and serve the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("store_backend", cfg.StoreBackend),
		zap.String("default_currency", cfg.DefaultCurrency),
		zap.String("budget_window", cfg.BudgetWindow),
		zap.Duration("write_timeout", cfg.WriteTimeout),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("idempotency_ttl", cfg.IdempotencyTTL),
	)

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(ctx, cfg.TracingEndpoint(), "fintrack")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Store ---
	facade := newFacade(cfg, metrics, logger)
	if _, err := facade.Open(ctx); err != nil {
		return err
	}
	defer func() {
		if err := facade.Close(context.Background()); err != nil {
			logger.Error("store close failed", zap.Error(err))
		}
	}()

	// --- Idempotency cache ---
	replays := cache.New[handler.Replay](cfg.IdempotencyTTL)
	defer replays.Stop()

	// --- Router ---
	svc := newService(cfg, facade, metrics, logger)
	router := handler.NewRouter(svc, replays, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
