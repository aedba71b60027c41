package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// BudgetProgress measures expense transactions in the budget's category
// that fall inside w. Progress is spent/amount*100 capped at 100; a zero
// budget amount gives zero progress.
func BudgetProgress(b domain.Budget, txs []domain.Transaction, w Window) domain.BudgetStatus {
	spent := decimal.Zero
	for _, tx := range txs {
		if tx.Type != domain.TransactionExpense || tx.Category != b.Category || !w.Contains(tx.Date) {
			continue
		}
		spent = spent.Add(dec(tx.Amount))
	}

	amount := dec(b.Amount)
	progress := percent(spent, amount)
	if progress.GreaterThan(hundred) {
		progress = hundred
	}
	remaining := amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return domain.BudgetStatus{
		Spent:     spent,
		Remaining: remaining,
		Progress:  progress,
		Exceeded:  spent.GreaterThan(amount),
	}
}

// BudgetTotals sums budgeted and spent amounts across views.
func BudgetTotals(views []domain.BudgetView) (budgeted, spent decimal.Decimal) {
	budgeted, spent = decimal.Zero, decimal.Zero
	for _, v := range views {
		budgeted = budgeted.Add(dec(v.Amount))
		spent = spent.Add(v.Status.Spent)
	}
	return budgeted, spent
}
