package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// Fixed reference week: 2026-08-31 is a Monday, 2026-09-05 a Saturday.
var (
	monday   = time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	friday   = time.Date(2026, 9, 4, 0, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 9, 5, 0, 0, 0, 0, time.UTC)
	sunday   = time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	nextMon  = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
)

func TestStartOfDay(t *testing.T) {
	late := time.Date(2026, 8, 31, 23, 59, 59, 999, time.UTC)
	assert.Equal(t, monday, StartOfDay(late))

	// Non-UTC input is normalized to the UTC calendar date.
	loc := time.FixedZone("UTC+5", 5*3600)
	local := time.Date(2026, 9, 1, 2, 0, 0, 0, loc)
	assert.Equal(t, monday, StartOfDay(local))
}

func TestIsBusinessDay(t *testing.T) {
	assert.True(t, IsBusinessDay(monday))
	assert.True(t, IsBusinessDay(friday))
	assert.False(t, IsBusinessDay(saturday))
	assert.False(t, IsBusinessDay(sunday))
}

func TestNextBusinessDay(t *testing.T) {
	assert.Equal(t, monday, NextBusinessDay(monday), "a business day maps to itself")
	assert.Equal(t, nextMon, NextBusinessDay(saturday))
	assert.Equal(t, nextMon, NextBusinessDay(sunday))

	noon := time.Date(2026, 9, 4, 12, 30, 0, 0, time.UTC)
	assert.Equal(t, friday, NextBusinessDay(noon), "time of day is truncated")
}

func TestAddBusinessDays(t *testing.T) {
	assert.Equal(t, monday, AddBusinessDays(monday, 0))
	assert.Equal(t, nextMon, AddBusinessDays(saturday, 0), "zero normalizes weekends forward")
	assert.Equal(t, nextMon, AddBusinessDays(friday, 1), "the weekend is skipped")
	assert.Equal(t, friday, AddBusinessDays(monday, 4))
	assert.Equal(t, nextMon, AddBusinessDays(monday, 5))
	assert.Equal(t, time.Date(2026, 9, 14, 0, 0, 0, 0, time.UTC), AddBusinessDays(monday, 10))
}

func TestBusinessDaysIn(t *testing.T) {
	tests := []struct {
		name       string
		from       time.Time
		windowDays int
		expected   int
	}{
		{"ten days from Monday span two weekends", monday, 10, 8},
		{"full week from Monday", monday, 7, 5},
		{"weekend-only window", saturday, 2, 0},
		{"week from Saturday", saturday, 7, 5},
		{"single business day", friday, 1, 1},
		{"empty window", monday, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, BusinessDaysIn(tt.from, tt.windowDays))
		})
	}
}

func TestEndOfWindow(t *testing.T) {
	assert.Equal(t, time.Date(2026, 9, 9, 0, 0, 0, 0, time.UTC), EndOfWindow(monday, 10))
	assert.Equal(t, monday, EndOfWindow(monday, 1), "a one-day window ends on its start date")
}

func TestSameDate(t *testing.T) {
	morning := time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
	evening := time.Date(2026, 8, 31, 22, 0, 0, 0, time.UTC)
	assert.True(t, SameDate(morning, evening))
	assert.False(t, SameDate(evening, evening.Add(3*time.Hour)))
}
