package service

import (
	"context"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// ============================================================
// Investments
// ============================================================

// ListInvestments returns every position with its valuation and the
// portfolio totals.
func (s *FinanceService) ListInvestments(ctx context.Context) (domain.InvestmentOverview, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListInvestments")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.InvestmentOverview{}, err
	}
	investments, err := db.Investments().Find(ctx, store.Query{SortBy: "name"})
	if err != nil {
		return domain.InvestmentOverview{}, err
	}

	views := make([]domain.InvestmentView, 0, len(investments))
	for _, inv := range investments {
		views = append(views, domain.InvestmentView{Investment: inv, Valuation: analytics.InvestmentGain(inv)})
	}
	return domain.InvestmentOverview{
		Investments: views,
		Portfolio:   analytics.PortfolioTotals(investments),
	}, nil
}

func (s *FinanceService) GetInvestment(ctx context.Context, id string) (domain.InvestmentView, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetInvestment")
	defer span.End()
	span.SetAttributes(attribute.String("investment.id", id))

	db, err := s.db()
	if err != nil {
		return domain.InvestmentView{}, err
	}
	inv, err := db.Investments().FindByID(ctx, id)
	if err != nil {
		return domain.InvestmentView{}, err
	}
	return domain.InvestmentView{Investment: inv, Valuation: analytics.InvestmentGain(inv)}, nil
}

func (s *FinanceService) CreateInvestment(ctx context.Context, inv domain.Investment) (domain.Investment, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateInvestment")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.Investment{}, err
	}
	if inv.Currency == "" {
		inv.Currency = s.settings.DefaultCurrency
	}
	return db.Investments().Insert(ctx, inv)
}

// UpdateInvestment patches a position, typically to mark a new current price.
func (s *FinanceService) UpdateInvestment(ctx context.Context, id string, fields store.Fields) (domain.Investment, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateInvestment")
	defer span.End()
	span.SetAttributes(attribute.String("investment.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Investment{}, err
	}
	return db.Investments().Patch(ctx, id, fields)
}

func (s *FinanceService) DeleteInvestment(ctx context.Context, id string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteInvestment")
	defer span.End()
	span.SetAttributes(attribute.String("investment.id", id))

	db, err := s.db()
	if err != nil {
		return err
	}
	return db.Investments().Remove(ctx, id)
}
