package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDaysBetween(t *testing.T) {
	start := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)
	end := time.Date(2026, 3, 4, 0, 1, 0, 0, time.UTC)

	assert.Equal(t, 3, DaysBetween(start, end))
	assert.Equal(t, -3, DaysBetween(end, start))
	assert.Equal(t, 0, DaysBetween(start, start))
}

func TestDaysOverdue(t *testing.T) {
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 5, DaysOverdue(today.AddDate(0, 0, -5), today))
	assert.Equal(t, 0, DaysOverdue(today, today))
	assert.Equal(t, -7, DaysOverdue(today.AddDate(0, 0, 7), today))
}
