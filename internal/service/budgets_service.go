package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/domain"
	"github.com/boddenberg/finance-store-go/internal/store"
)

// ============================================================
// Budgets
// ============================================================

// ListBudgets returns every budget with the spending measured against it
// and the totals across all budgets.
func (s *FinanceService) ListBudgets(ctx context.Context) (domain.BudgetOverview, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListBudgets")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.BudgetOverview{}, err
	}
	budgets, err := db.Budgets().Find(ctx, store.Query{SortBy: "name"})
	if err != nil {
		return domain.BudgetOverview{}, err
	}
	expenses, err := s.expenses(ctx, db)
	if err != nil {
		return domain.BudgetOverview{}, err
	}

	now := s.now(db)
	views := make([]domain.BudgetView, 0, len(budgets))
	for _, b := range budgets {
		views = append(views, s.budgetView(b, expenses, now))
	}
	total, spent := analytics.BudgetTotals(views)
	return domain.BudgetOverview{
		Budgets:     views,
		TotalBudget: total,
		TotalSpent:  spent,
		Window:      s.settings.BudgetWindow,
	}, nil
}

func (s *FinanceService) GetBudget(ctx context.Context, id string) (domain.BudgetView, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.GetBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", id))

	db, err := s.db()
	if err != nil {
		return domain.BudgetView{}, err
	}
	b, err := db.Budgets().FindByID(ctx, id)
	if err != nil {
		return domain.BudgetView{}, err
	}
	expenses, err := s.expenses(ctx, db)
	if err != nil {
		return domain.BudgetView{}, err
	}
	return s.budgetView(b, expenses, s.now(db)), nil
}

func (s *FinanceService) CreateBudget(ctx context.Context, b domain.Budget) (domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateBudget")
	defer span.End()

	db, err := s.db()
	if err != nil {
		return domain.Budget{}, err
	}
	if b.Currency == "" {
		b.Currency = s.settings.DefaultCurrency
	}
	return db.Budgets().Insert(ctx, b)
}

func (s *FinanceService) UpdateBudget(ctx context.Context, id string, fields store.Fields) (domain.Budget, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", id))

	db, err := s.db()
	if err != nil {
		return domain.Budget{}, err
	}
	return db.Budgets().Patch(ctx, id, fields)
}

func (s *FinanceService) DeleteBudget(ctx context.Context, id string) error {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteBudget")
	defer span.End()
	span.SetAttributes(attribute.String("budget.id", id))

	db, err := s.db()
	if err != nil {
		return err
	}
	return db.Budgets().Remove(ctx, id)
}

func (s *FinanceService) budgetView(b domain.Budget, txs []domain.Transaction, now time.Time) domain.BudgetView {
	w := s.budgetWindow(b, now)
	return domain.BudgetView{
		Budget:      b,
		Status:      analytics.BudgetProgress(b, txs, w),
		WindowStart: domain.Millis(w.Start),
		WindowEnd:   domain.Millis(w.End),
	}
}

func (s *FinanceService) expenses(ctx context.Context, db *store.Database) ([]domain.Transaction, error) {
	return db.Transactions().Find(ctx, store.Query{Where: store.Eq("type", domain.TransactionExpense)})
}
