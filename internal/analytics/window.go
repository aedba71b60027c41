package analytics

import (
	"time"

	"github.com/boddenberg/finance-store-go/internal/domain"
)

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether the epoch-ms timestamp falls inside w.
func (w Window) Contains(ms int64) bool {
	return ms >= domain.Millis(w.Start) && ms <= domain.Millis(w.End)
}

// MonthToDate runs from midnight on the first of now's month through now,
// in now's location.
func MonthToDate(now time.Time) Window {
	y, m, _ := now.Date()
	return Window{Start: time.Date(y, m, 1, 0, 0, 0, 0, now.Location()), End: now}
}

// PeriodWindow runs from the start of the budget period containing now
// through now. Weeks start on Monday. Unknown periods fall back to
// MonthToDate.
func PeriodWindow(period domain.BudgetPeriod, now time.Time) Window {
	y, m, d := now.Date()
	loc := now.Location()
	switch period {
	case domain.PeriodDaily:
		return Window{Start: time.Date(y, m, d, 0, 0, 0, 0, loc), End: now}
	case domain.PeriodWeekly:
		offset := (int(now.Weekday()) + 6) % 7
		return Window{Start: time.Date(y, m, d-offset, 0, 0, 0, 0, loc), End: now}
	case domain.PeriodYearly:
		return Window{Start: time.Date(y, time.January, 1, 0, 0, 0, 0, loc), End: now}
	default:
		return MonthToDate(now)
	}
}

// Trailing covers the days before now, exclusive of the start instant.
func Trailing(days int, now time.Time) Window {
	return Window{Start: now.Add(-time.Duration(days) * 24 * time.Hour).Add(time.Millisecond), End: now}
}
