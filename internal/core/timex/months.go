// Package timex provides calendar-month arithmetic for payment schedules.
package timex

import "time"

// AddMonthsClamped advances t by the given number of calendar months,
// preserving the day-of-month. When the target month is shorter, the day
// clamps to its last valid day: 2025-01-31 + 1 month = 2025-02-28.
//
// time.AddDate would roll 2025-01-31 + 1 month over to March 3; payment
// due dates must stay inside the target month.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month())
	if d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// MonthStart truncates t to the first instant of its calendar month in loc.
func MonthStart(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, loc)
}

// SameMonth reports whether two instants fall in the same calendar month
// of loc.
func SameMonth(a, b time.Time, loc *time.Location) bool {
	a, b = a.In(loc), b.In(loc)
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// DateOnly truncates to midnight UTC; schedule due dates are calendar
// dates, not instants.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
