package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// TotalBalance sums every account balance regardless of currency.
func TotalBalance(accounts []domain.Account) decimal.Decimal {
	total := decimal.Zero
	for _, a := range accounts {
		total = total.Add(dec(a.Balance))
	}
	return total
}

// TotalBalanceByCurrency sums balances per currency code.
func TotalBalanceByCurrency(accounts []domain.Account) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, a := range accounts {
		out[a.Currency] = out[a.Currency].Add(dec(a.Balance))
	}
	return out
}

// NetWorth is the total balance plus the current value of every investment.
func NetWorth(accounts []domain.Account, investments []domain.Investment) decimal.Decimal {
	return TotalBalance(accounts).Add(PortfolioTotals(investments).Value)
}
