// Package timeutil provides UTC calendar-day helpers and an injectable clock.
// Streaks and activity timestamps are evaluated on UTC dates.
package timeutil

import "time"

// Clock returns the current time. Handlers take a Clock so tests can pin "now".
type Clock func() time.Time

// SystemClock returns the current UTC time.
func SystemClock() time.Time {
	return time.Now().UTC()
}

// Fixed returns a Clock that always reports t.
func Fixed(t time.Time) Clock {
	return func() time.Time { return t }
}

// Date creates a UTC midnight time for the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// DateTime creates a UTC time with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, time.UTC)
}

// StartOfDay returns 00:00:00 of t's UTC date.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DaySet is a set of UTC calendar dates.
type DaySet map[time.Time]struct{}

// NewDaySet collects the distinct UTC dates of the given times.
func NewDaySet(times []time.Time) DaySet {
	set := make(DaySet, len(times))
	for _, t := range times {
		set[StartOfDay(t)] = struct{}{}
	}
	return set
}

// Has reports whether t's UTC date is in the set.
func (s DaySet) Has(t time.Time) bool {
	_, ok := s[StartOfDay(t)]
	return ok
}
