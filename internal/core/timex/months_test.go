package timex

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAddMonthsClampedPreservesDay(t *testing.T) {
	got := AddMonthsClamped(date(2025, time.January, 15), 1)
	assert.Equal(t, date(2025, time.February, 15), got)

	got = AddMonthsClamped(date(2025, time.January, 15), 12)
	assert.Equal(t, date(2026, time.January, 15), got)
}

func TestAddMonthsClampedShortMonth(t *testing.T) {
	// time.AddDate would roll Jan 31 + 1m over to March 3.
	got := AddMonthsClamped(date(2025, time.January, 31), 1)
	assert.Equal(t, date(2025, time.February, 28), got)

	// Leap year February keeps the 29th.
	got = AddMonthsClamped(date(2024, time.January, 31), 1)
	assert.Equal(t, date(2024, time.February, 29), got)

	// Clamping does not stick: Jan 31 + 3m lands on Apr 30, not Apr 28.
	got = AddMonthsClamped(date(2025, time.January, 31), 3)
	assert.Equal(t, date(2025, time.April, 30), got)
}

func TestAddMonthsClampedYearBoundary(t *testing.T) {
	got := AddMonthsClamped(date(2025, time.November, 30), 3)
	assert.Equal(t, date(2026, time.February, 28), got)
}

func TestMonthStart(t *testing.T) {
	got := MonthStart(time.Date(2025, time.June, 17, 13, 45, 0, 0, time.UTC), time.UTC)
	assert.Equal(t, date(2025, time.June, 1), got)
}

func TestSameMonth(t *testing.T) {
	assert.True(t, SameMonth(date(2025, time.June, 1), date(2025, time.June, 30), time.UTC))
	assert.False(t, SameMonth(date(2025, time.June, 30), date(2025, time.July, 1), time.UTC))
}

func TestDateOnly(t *testing.T) {
	got := DateOnly(time.Date(2025, time.June, 17, 23, 59, 59, 0, time.UTC))
	assert.Equal(t, date(2025, time.June, 17), got)
}
