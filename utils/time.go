// Package utils provides utility functions for the application.
package utils

import (
	"time"
)

// UTCNow returns the current time in UTC
func UTCNow() time.Time {
	return time.Now().UTC()
}

// UTCNowPtr returns a pointer to the current time in UTC
func UTCNowPtr() *time.Time {
	now := UTCNow()
	return &now
}

// UTCNowAdd returns the current UTC time plus the given duration
func UTCNowAdd(d time.Duration) time.Time {
	return UTCNow().Add(d)
}

// UTCToday returns the current UTC date truncated to midnight
func UTCToday() time.Time {
	return StartOfDay(UTCNow())
}

// StartOfDay truncates a time to UTC midnight
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsExpired checks if the given time is in the past (expired)
func IsExpired(t time.Time) bool {
	return UTCNow().After(t)
}

// IsExpiredPtr checks if the given time pointer is in the past (expired)
func IsExpiredPtr(t *time.Time) bool {
	if t == nil {
		return false
	}
	return IsExpired(*t)
}

// IsBusinessDay reports whether t falls on a weekday (Monday through Friday)
func IsBusinessDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// NextBusinessDay returns t if t is a business day, otherwise the next Monday.
// The result is truncated to UTC midnight.
func NextBusinessDay(t time.Time) time.Time {
	d := StartOfDay(t)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, 1)
	}
	return d
}

// AddBusinessDays advances from t by n business days, skipping weekends.
// AddBusinessDays(t, 0) normalizes t to the next business day.
func AddBusinessDays(t time.Time, n int) time.Time {
	d := NextBusinessDay(t)
	for i := 0; i < n; i++ {
		d = NextBusinessDay(d.AddDate(0, 0, 1))
	}
	return d
}

// BusinessDaysIn counts the business days inside the calendar window
// [from, from+windowDays), with from truncated to UTC midnight.
func BusinessDaysIn(from time.Time, windowDays int) int {
	d := StartOfDay(from)
	count := 0
	for i := 0; i < windowDays; i++ {
		if IsBusinessDay(d) {
			count++
		}
		d = d.AddDate(0, 0, 1)
	}
	return count
}

// EndOfWindow returns the last calendar date (UTC midnight) covered by a
// window of windowDays days starting at from.
func EndOfWindow(from time.Time, windowDays int) time.Time {
	return StartOfDay(from).AddDate(0, 0, windowDays-1)
}

// SameDate reports whether two times fall on the same UTC calendar date
func SameDate(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}
