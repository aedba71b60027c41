// Package service provides the business logic layer (use cases).
// FinanceService combines collection writes that must move together, such
// as a transaction and its account balance, and assembles the derived views
// shown by the presentation layer.
package service

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/config"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/infra/observability"
	"github.com/boddenberg/finance-store-go/internal/store"
)

var financeTracer = otel.Tracer("service/finance")

// Settings are the user-facing defaults applied by the service.
type Settings struct {
	// DefaultCurrency fills records created without a currency.
	DefaultCurrency string
	// BudgetWindow selects how budget spending is measured:
	// config.WindowMonthToDate or config.WindowPeriod.
	BudgetWindow string
	// Location buckets monthly and daily series. Defaults to UTC.
	Location *time.Location
}

// FinanceService orchestrates reads and multi-record writes over the store.
type FinanceService struct {
	facade   *store.Facade
	settings Settings
	metrics  *observability.Metrics
	logger   *zap.Logger
}

// NewFinanceService creates a new finance service.
func NewFinanceService(facade *store.Facade, settings Settings, metrics *observability.Metrics, logger *zap.Logger) *FinanceService {
	if settings.DefaultCurrency == "" {
		settings.DefaultCurrency = "USD"
	}
	settings.DefaultCurrency = strings.ToUpper(settings.DefaultCurrency)
	if settings.BudgetWindow == "" {
		settings.BudgetWindow = config.WindowMonthToDate
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &FinanceService{
		facade:   facade,
		settings: settings,
		metrics:  metrics,
		logger:   observability.Named(logger, "finance"),
	}
}

// DefaultCurrency returns the currency used for new records and totals.
func (s *FinanceService) DefaultCurrency() string { return s.settings.DefaultCurrency }

// db returns the open database or ErrNotReady.
func (s *FinanceService) db() (*store.Database, error) {
	return s.facade.Database()
}

// now reads the store clock so derived views agree with stored timestamps.
func (s *FinanceService) now(db *store.Database) time.Time {
	return db.Now().In(s.settings.Location)
}

func (s *FinanceService) budgetWindow(b domain.Budget, now time.Time) analytics.Window {
	if s.settings.BudgetWindow == config.WindowPeriod {
		return analytics.PeriodWindow(b.Period, now)
	}
	return analytics.MonthToDate(now)
}

// invalid builds a single-violation validation error.
func invalid(collection, field, rule, msg string) error {
	return &domain.ErrValidation{
		Collection: collection,
		Violations: []domain.Violation{{Field: field, Rule: rule, Message: msg}},
	}
}

// toFloat converts a decimal back to the stored float representation.
func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

var cent = decimal.New(1, -2)

// isCents reports whether amount is a positive whole number of cents.
func isCents(amount float64) bool {
	d := decimal.NewFromFloat(amount)
	return d.IsPositive() && d.Mod(cent).IsZero()
}

// Stats reports store operation, error and idempotency counters.
func (s *FinanceService) Stats() (*domain.StoreStats, error) {
	if s.metrics == nil {
		return &domain.StoreStats{}, nil
	}
	return s.metrics.Snapshot()
}

// State reports the store lifecycle state for readiness checks.
func (s *FinanceService) State() store.State {
	return s.facade.State()
}
