// Package domain defines the records kept by the finance store and the
// derived views computed from them. These types are independent of the
// storage backend and of any presentation layer.
package domain

import "time"

// Collection names. They double as schema names in the registry.
const (
	CollectionAccounts     = "accounts"
	CollectionTransactions = "transactions"
	CollectionBudgets      = "budgets"
	CollectionInvestments  = "investments"
	CollectionGoals        = "goals"
)

// Collections lists every collection in registration order.
func Collections() []string {
	return []string{
		CollectionAccounts,
		CollectionTransactions,
		CollectionBudgets,
		CollectionInvestments,
		CollectionGoals,
	}
}

// Millis converts t to epoch milliseconds, the unit used by every stored timestamp.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a time in loc.
func FromMillis(ms int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc)
}
