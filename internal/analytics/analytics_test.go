package analytics_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/analytics"
	"github.com/boddenberg/finance-store-go/internal/domain"
)

var now = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func assertDecimal(t *testing.T, name string, want decimal.Decimal, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s: expected %s, got %s", name, want, got)
	}
}

func expense(amount float64, category string, at time.Time) domain.Transaction {
	return domain.Transaction{Type: domain.TransactionExpense, Amount: amount, Category: category, Date: domain.Millis(at)}
}

func income(amount float64, at time.Time) domain.Transaction {
	return domain.Transaction{Type: domain.TransactionIncome, Amount: amount, Date: domain.Millis(at)}
}

func TestTotalBalance(t *testing.T) {
	accounts := []domain.Account{{Balance: 100.00, Currency: "USD"}, {Balance: -25.50, Currency: "USD"}}
	assertDecimal(t, "total", d("74.50"), analytics.TotalBalance(accounts))
	assertDecimal(t, "empty", decimal.Zero, analytics.TotalBalance(nil))
}

func TestTotalBalance_NoDrift(t *testing.T) {
	accounts := make([]domain.Account, 0, 1000)
	for i := 0; i < 1000; i++ {
		accounts = append(accounts, domain.Account{Balance: 0.10}, domain.Account{Balance: -0.10})
	}
	accounts = append(accounts, domain.Account{Balance: 0.30})
	assertDecimal(t, "total", d("0.30"), analytics.TotalBalance(accounts))
}

func TestTotalBalanceByCurrency(t *testing.T) {
	got := analytics.TotalBalanceByCurrency([]domain.Account{
		{Balance: 10, Currency: "USD"},
		{Balance: 5.25, Currency: "EUR"},
		{Balance: 0.75, Currency: "EUR"},
	})
	assertDecimal(t, "USD", d("10"), got["USD"])
	assertDecimal(t, "EUR", d("6"), got["EUR"])
}

func TestInvestmentGain(t *testing.T) {
	g := analytics.InvestmentGain(domain.Investment{Quantity: 10, PurchasePrice: 50.00, CurrentPrice: 55.00})
	assertDecimal(t, "value", d("550"), g.Value)
	assertDecimal(t, "cost", d("500"), g.Cost)
	assertDecimal(t, "gain", d("50"), g.Gain)
	assertDecimal(t, "gainPct", d("10"), g.GainPct)
}

func TestInvestmentGain_ZeroCost(t *testing.T) {
	tests := []domain.Investment{
		{Quantity: 0, PurchasePrice: 0, CurrentPrice: 0},
		{Quantity: 5, PurchasePrice: 0, CurrentPrice: 10},
		{Quantity: 0, PurchasePrice: 10, CurrentPrice: 10},
	}
	for _, inv := range tests {
		g := analytics.InvestmentGain(inv)
		assertDecimal(t, "gainPct", decimal.Zero, g.GainPct)
	}
}

func TestPortfolioTotalsAndNetWorth(t *testing.T) {
	invs := []domain.Investment{
		{Quantity: 10, PurchasePrice: 50, CurrentPrice: 55},
		{Quantity: 0.5, PurchasePrice: 100, CurrentPrice: 80},
	}
	p := analytics.PortfolioTotals(invs)
	assertDecimal(t, "value", d("590"), p.Value)
	assertDecimal(t, "cost", d("550"), p.Cost)
	assertDecimal(t, "gain", d("40"), p.Gain)
	assertDecimal(t, "gainPct", d("7.27"), p.GainPct)
	if p.Count != 2 {
		t.Errorf("expected count 2, got %d", p.Count)
	}

	nw := analytics.NetWorth([]domain.Account{{Balance: 10.5}}, invs)
	assertDecimal(t, "net worth", d("600.5"), nw)
}

func TestBudgetProgress_CappedAt100(t *testing.T) {
	b := domain.Budget{Amount: 200.00, Category: "food"}
	txs := []domain.Transaction{
		expense(150, "food", now.Add(-48*time.Hour)),
		expense(100, "food", now.Add(-time.Hour)),
		expense(999, "rent", now.Add(-time.Hour)),                         // other category
		income(500, now.Add(-time.Hour)),                                  // not an expense
		expense(70, "food", time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)), // last month
	}

	status := analytics.BudgetProgress(b, txs, analytics.MonthToDate(now))
	assertDecimal(t, "spent", d("250"), status.Spent)
	assertDecimal(t, "progress", d("100"), status.Progress)
	assertDecimal(t, "remaining", decimal.Zero, status.Remaining)
	if !status.Exceeded {
		t.Error("expected exceeded")
	}
}

func TestBudgetProgress_Partial(t *testing.T) {
	b := domain.Budget{Amount: 300, Category: "fun"}
	status := analytics.BudgetProgress(b, []domain.Transaction{expense(100, "fun", now)}, analytics.MonthToDate(now))
	assertDecimal(t, "progress", d("33.33"), status.Progress)
	assertDecimal(t, "remaining", d("200"), status.Remaining)
}

func TestBudgetProgress_ZeroAmount(t *testing.T) {
	status := analytics.BudgetProgress(domain.Budget{Amount: 0, Category: "x"}, []domain.Transaction{expense(5, "x", now)}, analytics.MonthToDate(now))
	assertDecimal(t, "progress", decimal.Zero, status.Progress)
}

func TestWindows(t *testing.T) {
	mtd := analytics.MonthToDate(now)
	if !mtd.Start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) || !mtd.End.Equal(now) {
		t.Errorf("unexpected month-to-date %v", mtd)
	}

	tests := []struct {
		period domain.BudgetPeriod
		start  time.Time
	}{
		{domain.PeriodDaily, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)},
		{domain.PeriodWeekly, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)}, // Monday
		{domain.PeriodMonthly, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{domain.PeriodYearly, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := analytics.PeriodWindow(tt.period, now); !got.Start.Equal(tt.start) {
			t.Errorf("%s: expected start %v, got %v", tt.period, tt.start, got.Start)
		}
	}

	sunday := time.Date(2024, 3, 17, 9, 0, 0, 0, time.UTC)
	if got := analytics.PeriodWindow(domain.PeriodWeekly, sunday); got.Start.Day() != 11 {
		t.Errorf("expected Sunday to belong to the week of the 11th, got %v", got.Start)
	}
}

func TestGoalProgress(t *testing.T) {
	assertDecimal(t, "progress", d("25"), analytics.GoalProgress(domain.Goal{TargetAmount: 400, CurrentAmount: 100}))
	assertDecimal(t, "zero target", decimal.Zero, analytics.GoalProgress(domain.Goal{TargetAmount: 0}))

	avg := analytics.AverageGoalProgress([]domain.Goal{
		{TargetAmount: 100, CurrentAmount: 50},
		{TargetAmount: 100, CurrentAmount: 100},
		{TargetAmount: 0, CurrentAmount: 0},
	})
	assertDecimal(t, "average", d("50"), avg)
	assertDecimal(t, "no goals", decimal.Zero, analytics.AverageGoalProgress(nil))
}

func TestMonthlySeries(t *testing.T) {
	at := func(m time.Month, day int) time.Time { return time.Date(2024, m, day, 10, 0, 0, 0, time.UTC) }
	txs := []domain.Transaction{
		income(1000, at(1, 5)),
		expense(200, "food", at(1, 6)),
		{Type: domain.TransactionTransfer, Amount: 50, Date: domain.Millis(at(2, 1))},
		income(900, at(3, 1)),
		expense(100, "food", at(3, 2)),
	}

	got := analytics.MonthlySeries(txs, 2, time.UTC)
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	if got[0].Month != "2024-02" || got[1].Month != "2024-03" {
		t.Errorf("expected chronological Feb, Mar, got %s, %s", got[0].Month, got[1].Month)
	}
	assertDecimal(t, "feb expense (transfer)", d("50"), got[0].Expense)
	assertDecimal(t, "mar net", d("800"), got[1].Net)

	all := analytics.MonthlySeries(txs, 0, time.UTC)
	if len(all) != 3 {
		t.Errorf("expected 3 months with data, got %d", len(all))
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []domain.Transaction{
		expense(30, "food", now.Add(-24*time.Hour)),
		expense(20.5, "food", now.Add(-48*time.Hour)),
		expense(49.5, "", now.Add(-72*time.Hour)),
		expense(500, "rent", now.Add(-40*24*time.Hour)), // outside window
		income(1000, now.Add(-time.Hour)),
	}

	got := analytics.CategoryBreakdown(txs, 30, now)
	if len(got) != 2 {
		t.Fatalf("expected 2 categories, got %+v", got)
	}
	if got[0].Category != "food" || got[0].Count != 2 {
		t.Errorf("unexpected first category %+v", got[0])
	}
	assertDecimal(t, "food", d("50.5"), got[0].Amount)
	assertDecimal(t, "food share", d("50.5"), got[0].Share)
	if got[1].Category != analytics.Uncategorized {
		t.Errorf("expected uncategorized bucket, got %s", got[1].Category)
	}

	if all := analytics.CategoryBreakdown(txs, 0, now); len(all) != 3 {
		t.Errorf("expected unbounded window to include rent, got %d", len(all))
	}
}

func TestDailySpending(t *testing.T) {
	var txs []domain.Transaction
	for i := 0; i < 40; i++ {
		txs = append(txs, expense(1, "x", now.Add(-time.Duration(i)*24*time.Hour)))
	}
	txs = append(txs, expense(2, "x", now), income(100, now))

	got := analytics.DailySpending(txs, 30, time.UTC)
	if len(got) != 30 {
		t.Fatalf("expected 30 days, got %d", len(got))
	}
	last := got[len(got)-1]
	if last.Date != "2024-03-15" {
		t.Errorf("expected latest day last, got %s", last.Date)
	}
	assertDecimal(t, "today", d("3"), last.Amount)
	if got[0].Date >= last.Date {
		t.Errorf("expected ascending dates")
	}
}

func TestCashFlowSince(t *testing.T) {
	since := now.Add(-30 * 24 * time.Hour)
	txs := []domain.Transaction{
		income(1000, now.Add(-time.Hour)),
		expense(250.25, "food", now.Add(-2*time.Hour)),
		{Type: domain.TransactionTransfer, Amount: 99, Date: domain.Millis(now)},
		income(5000, since), // boundary excluded
	}

	cf := analytics.CashFlowSince(txs, since)
	assertDecimal(t, "income", d("1000"), cf.Income)
	assertDecimal(t, "expense", d("250.25"), cf.Expense)
	assertDecimal(t, "net", d("749.75"), cf.Net)
}
