package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/config"
	"github.com/boddenberg/finance-store-go/internal/infra/memory"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/infra/resilience"
	"github.com/boddenberg/finance-store-go/internal/infra/sqlite"
	"github.com/boddenberg/finance-store-go/internal/port"
	"github.com/boddenberg/finance-store-go/internal/service"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// newFacade wires the configured backend into a store facade. The store is
// not opened until the first Open call.
func newFacade(cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) *store.Facade {
	retry := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}

	var backend store.BackendFactory
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		logger.Info("using sqlite backend", zap.String("path", cfg.SQLitePath))
		backend = func(context.Context) (port.Backend, error) {
			return sqlite.New(cfg.SQLitePath, retry, logger), nil
		}
	default:
		logger.Info("using in-memory backend; data is lost on exit")
		backend = func(context.Context) (port.Backend, error) {
			return memory.New(), nil
		}
	}

	return store.NewFacade(store.Options{
		Backend:      backend,
		Logger:       logger,
		Metrics:      metrics,
		WriteTimeout: cfg.WriteTimeout,
		OpenRetry:    retry,
	})
}

func newService(cfg *config.Config, facade *store.Facade, metrics *observability.Metrics, logger *zap.Logger) *service.FinanceService {
	return service.NewFinanceService(facade, service.Settings{
		DefaultCurrency: cfg.DefaultCurrency,
		BudgetWindow:    cfg.BudgetWindow,
	}, metrics, logger)
}
