// utils/dates.go
package utils

import "time"

func BeginningOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func DaysBetween(start, end time.Time) int {
	start = BeginningOfDay(start)
	end = BeginningOfDay(end)
	return int(end.Sub(start).Hours() / 24)
}

// DaysOverdue returns how many days past due an invoice is as of today.
// Positive means overdue, negative means due in the future, zero means due
// today.
func DaysOverdue(dueDate, today time.Time) int {
	return DaysBetween(dueDate, today)
}
