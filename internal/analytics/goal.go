package analytics

import (
	"github.com/shopspring/decimal"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// GoalProgress is currentAmount/targetAmount*100, zero for a zero target.
func GoalProgress(g domain.Goal) decimal.Decimal {
	return percent(dec(g.CurrentAmount), dec(g.TargetAmount))
}

// AverageGoalProgress is the mean progress across goals, zero for none.
func AverageGoalProgress(goals []domain.Goal) decimal.Decimal {
	if len(goals) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, g := range goals {
		sum = sum.Add(ratio(dec(g.CurrentAmount), dec(g.TargetAmount)))
	}
	return sum.Mul(hundred).Div(decimal.NewFromInt(int64(len(goals)))).Round(pctPlaces)
}
