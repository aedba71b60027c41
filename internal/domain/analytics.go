package domain

import "github.com/shopspring/decimal"

// ============================================================
// Derived views (computed on demand, never stored)
// ============================================================

// BudgetStatus is the spending measured against a budget over a window.
type BudgetStatus struct {
	Spent     decimal.Decimal `json:"spent"`
	Remaining decimal.Decimal `json:"remaining"`
	Progress  decimal.Decimal `json:"progress"` // percent, capped at 100
	Exceeded  bool            `json:"exceeded"`
}

// BudgetView pairs a budget with its current status.
type BudgetView struct {
	Budget
	Status      BudgetStatus `json:"status"`
	WindowStart int64        `json:"windowStart"`
	WindowEnd   int64        `json:"windowEnd"`
}

// Gain is the valuation of a single investment.
type Gain struct {
	Value   decimal.Decimal `json:"value"`
	Cost    decimal.Decimal `json:"cost"`
	Gain    decimal.Decimal `json:"gain"`
	GainPct decimal.Decimal `json:"gainPct"`
}

// InvestmentView pairs an investment with its valuation.
type InvestmentView struct {
	Investment
	Valuation Gain `json:"valuation"`
}

// GoalView pairs a goal with its completion percentage.
type GoalView struct {
	Goal
	Progress decimal.Decimal `json:"progress"`
}

// MonthBucket is income and expense for one calendar month (YYYY-MM).
type MonthBucket struct {
	Month   string          `json:"month"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryTotal is the expense total for one category.
type CategoryTotal struct {
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
	Count    int             `json:"count"`
	Share    decimal.Decimal `json:"share"` // percent of all expenses in the window
}

// DailyTotal is the expense total for one calendar day (YYYY-MM-DD).
type DailyTotal struct {
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
}

// CashFlow is income against outflow over a window.
type CashFlow struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Net     decimal.Decimal `json:"net"`
}

// Portfolio sums the valuation of every investment.
type Portfolio struct {
	Value   decimal.Decimal `json:"value"`
	Cost    decimal.Decimal `json:"cost"`
	Gain    decimal.Decimal `json:"gain"`
	GainPct decimal.Decimal `json:"gainPct"`
	Count   int             `json:"count"`
}

// DashboardSummary is the home screen view.
type DashboardSummary struct {
	Currency            string          `json:"currency"`
	TotalBalance        decimal.Decimal `json:"totalBalance"`
	TotalBalanceDisplay string          `json:"totalBalanceDisplay"`
	NetWorth            decimal.Decimal `json:"netWorth"`
	NetWorthDisplay     string          `json:"netWorthDisplay"`
	Last30Days          CashFlow        `json:"last30Days"`
	Portfolio           Portfolio       `json:"portfolio"`
	AverageGoalProgress decimal.Decimal `json:"averageGoalProgress"`
	RecentTransactions  []Transaction   `json:"recentTransactions"`
	AccountCount        int             `json:"accountCount"`
}

// AnalyticsReport is the analytics screen view.
type AnalyticsReport struct {
	Monthly    []MonthBucket   `json:"monthly"`
	Categories []CategoryTotal `json:"categories"`
	Daily      []DailyTotal    `json:"daily"`
}

// BudgetOverview lists budgets with their status and the totals across them.
type BudgetOverview struct {
	Budgets     []BudgetView    `json:"budgets"`
	TotalBudget decimal.Decimal `json:"totalBudget"`
	TotalSpent  decimal.Decimal `json:"totalSpent"`
	Window      string          `json:"window"`
}

// InvestmentOverview lists positions with the portfolio totals.
type InvestmentOverview struct {
	Investments []InvestmentView `json:"investments"`
	Portfolio   Portfolio        `json:"portfolio"`
}

// GoalOverview lists goals with the mean progress across them.
type GoalOverview struct {
	Goals           []GoalView      `json:"goals"`
	AverageProgress decimal.Decimal `json:"averageProgress"`
}

// Posting is the result of writing a transaction together with its effect
// on the account balance.
type Posting struct {
	Transaction Transaction `json:"transaction"`
	Account     Account     `json:"account"`
}
