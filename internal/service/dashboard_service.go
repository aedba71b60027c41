package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/money"
	"github.com/boddenberg/finance-store-go/internal/store"
)

const (
	recentTransactions = 5
	cashFlowDays       = 30
)

// AnalyticsOptions sizes the series in an analytics report. Zero values
// take the defaults: 6 months, a 30-day category window and 30 days of
// daily spending.
type AnalyticsOptions struct {
	Months     int
	WindowDays int
	Days       int
}

func (o AnalyticsOptions) withDefaults() AnalyticsOptions {
	if o.Months <= 0 {
		o.Months = 6
	}
	if o.WindowDays <= 0 {
		o.WindowDays = 30
	}
	if o.Days <= 0 {
		o.Days = 30
	}
	return o
}

// snapshot is a consistent-enough read of every collection for the
// derived views. Collections are read concurrently.
type snapshot struct {
	accounts     []domain.Account
	transactions []domain.Transaction
	investments  []domain.Investment
	goals        []domain.Goal
}

func (s *FinanceService) snapshot(ctx context.Context, db *store.Database) (*snapshot, error) {
	var snap snapshot
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := db.Accounts().Find(gCtx, store.Query{})
		if err != nil {
			return fmt.Errorf("accounts read: %w", err)
		}
		snap.accounts = out
		return nil
	})
	g.Go(func() error {
		out, err := db.Transactions().Find(gCtx, store.Query{SortBy: "date", Desc: true})
		if err != nil {
			return fmt.Errorf("transactions read: %w", err)
		}
		snap.transactions = out
		return nil
	})
	g.Go(func() error {
		out, err := db.Investments().Find(gCtx, store.Query{})
		if err != nil {
			return fmt.Errorf("investments read: %w", err)
		}
		snap.investments = out
		return nil
	})
	g.Go(func() error {
		out, err := db.Goals().Find(gCtx, store.Query{})
		if err != nil {
			return fmt.Errorf("goals read: %w", err)
		}
		snap.goals = out
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ============================================================
// Dashboard
// ============================================================

// Dashboard summarizes balances, the last 30 days of cash flow, the
// portfolio, goal progress and the most recent transactions. Amounts are
// summed as-is regardless of currency; display strings use the default
// currency.
func (s *FinanceService) Dashboard(ctx context.Context) (*domain.DashboardSummary, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.Dashboard")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return nil, err
	}
	snap, err := s.snapshot(ctx, db)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("accounts", len(snap.accounts)),
		attribute.Int("transactions", len(snap.transactions)),
	)

	now := s.now(db)
	cur := s.settings.DefaultCurrency
	total := analytics.TotalBalance(snap.accounts)
	worth := analytics.NetWorth(snap.accounts, snap.investments)

	recent := snap.transactions
	if len(recent) > recentTransactions {
		recent = recent[:recentTransactions]
	}

	return &domain.DashboardSummary{
		Currency:            cur,
		TotalBalance:        total,
		TotalBalanceDisplay: money.Format(total, cur),
		NetWorth:            worth,
		NetWorthDisplay:     money.Format(worth, cur),
		Last30Days:          analytics.CashFlowSince(snap.transactions, now.AddDate(0, 0, -cashFlowDays)),
		Portfolio:           analytics.PortfolioTotals(snap.investments),
		AverageGoalProgress: analytics.AverageGoalProgress(snap.goals),
		RecentTransactions:  recent,
		AccountCount:        len(snap.accounts),
	}, nil
}

// ============================================================
// Analytics
// ============================================================

// Analytics builds the monthly income/expense series, the category
// breakdown and the daily spending series.
func (s *FinanceService) Analytics(ctx context.Context, opts AnalyticsOptions) (*domain.AnalyticsReport, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.Analytics")
	defer span.End()

	opts = opts.withDefaults()
	span.SetAttributes(
		attribute.Int("months", opts.Months),
		attribute.Int("window_days", opts.WindowDays),
		attribute.Int("days", opts.Days),
	)

	db, err := s.db()
	if err != nil {
		return nil, err
	}
	txs, err := db.Transactions().Find(ctx, store.Query{})
	if err != nil {
		return nil, err
	}

	loc := s.settings.Location
	return &domain.AnalyticsReport{
		Monthly:    analytics.MonthlySeries(txs, opts.Months, loc),
		Categories: analytics.CategoryBreakdown(txs, opts.WindowDays, s.now(db)),
		Daily:      analytics.DailySpending(txs, opts.Days, loc),
	}, nil
}
