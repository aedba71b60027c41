package analytics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// Uncategorized labels expenses recorded without a category.
const Uncategorized = "uncategorized"

// MonthlySeries buckets transactions by calendar month in loc. Income
// transactions count as income, every other type as expense. Only months
// with data appear; the most recent n are returned oldest first. n <= 0
// returns every month.
func MonthlySeries(txs []domain.Transaction, n int, loc *time.Location) []domain.MonthBucket {
	buckets := make(map[string]*domain.MonthBucket)
	for _, tx := range txs {
		key := domain.FromMillis(tx.Date, loc).Format("2006-01")
		b, ok := buckets[key]
		if !ok {
			b = &domain.MonthBucket{Month: key, Income: decimal.Zero, Expense: decimal.Zero}
			buckets[key] = b
		}
		if tx.IsOutflow() {
			b.Expense = b.Expense.Add(dec(tx.Amount))
		} else {
			b.Income = b.Income.Add(dec(tx.Amount))
		}
	}

	months := make([]string, 0, len(buckets))
	for k := range buckets {
		months = append(months, k)
	}
	sort.Strings(months)
	if n > 0 && len(months) > n {
		months = months[len(months)-n:]
	}

	out := make([]domain.MonthBucket, 0, len(months))
	for _, k := range months {
		b := *buckets[k]
		b.Net = b.Income.Sub(b.Expense)
		out = append(out, b)
	}
	return out
}

// CategoryBreakdown sums expense transactions by category over the trailing
// windowDays before now; windowDays <= 0 uses every transaction. Results are
// ordered by amount descending, then by category.
func CategoryBreakdown(txs []domain.Transaction, windowDays int, now time.Time) []domain.CategoryTotal {
	w := Trailing(windowDays, now)
	totals := make(map[string]*domain.CategoryTotal)
	all := decimal.Zero
	for _, tx := range txs {
		if tx.Type != domain.TransactionExpense {
			continue
		}
		if windowDays > 0 && !w.Contains(tx.Date) {
			continue
		}
		cat := tx.Category
		if cat == "" {
			cat = Uncategorized
		}
		t, ok := totals[cat]
		if !ok {
			t = &domain.CategoryTotal{Category: cat, Amount: decimal.Zero}
			totals[cat] = t
		}
		amt := dec(tx.Amount)
		t.Amount = t.Amount.Add(amt)
		t.Count++
		all = all.Add(amt)
	}

	out := make([]domain.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		t.Share = percent(t.Amount, all)
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// DailySpending sums expenses per calendar day in loc and keeps the latest
// days distinct days that have spending, oldest first.
func DailySpending(txs []domain.Transaction, days int, loc *time.Location) []domain.DailyTotal {
	totals := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		if tx.Type != domain.TransactionExpense {
			continue
		}
		key := domain.FromMillis(tx.Date, loc).Format(time.DateOnly)
		totals[key] = totals[key].Add(dec(tx.Amount))
	}

	keys := make([]string, 0, len(totals))
	for k := range totals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if days > 0 && len(keys) > days {
		keys = keys[len(keys)-days:]
	}

	out := make([]domain.DailyTotal, 0, len(keys))
	for _, k := range keys {
		out = append(out, domain.DailyTotal{Date: k, Amount: totals[k]})
	}
	return out
}

// CashFlowSince sums income and expense transactions dated strictly after
// since. Transfers are excluded from both sides.
func CashFlowSince(txs []domain.Transaction, since time.Time) domain.CashFlow {
	cutoff := domain.Millis(since)
	cf := domain.CashFlow{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		if tx.Date <= cutoff {
			continue
		}
		switch tx.Type {
		case domain.TransactionIncome:
			cf.Income = cf.Income.Add(dec(tx.Amount))
		case domain.TransactionExpense:
			cf.Expense = cf.Expense.Add(dec(tx.Amount))
		}
	}
	cf.Net = cf.Income.Sub(cf.Expense)
	return cf
}
