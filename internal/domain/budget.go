package domain

// ============================================================
// Budgets
// ============================================================

// BudgetPeriod is the nominal recurrence of a budget.
type BudgetPeriod string

const (
	PeriodDaily   BudgetPeriod = "daily"
	PeriodWeekly  BudgetPeriod = "weekly"
	PeriodMonthly BudgetPeriod = "monthly"
	PeriodYearly  BudgetPeriod = "yearly"
)

// Budget caps spending for one category. Spent and progress are derived,
// never stored.
type Budget struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Amount    float64      `json:"amount"`
	Currency  string       `json:"currency"`
	Period    BudgetPeriod `json:"period"`
	Category  string       `json:"category"`
	StartDate int64        `json:"startDate"`
	EndDate   int64        `json:"endDate"`
	CreatedAt int64        `json:"createdAt"`
	UpdatedAt int64        `json:"updatedAt"`
}
