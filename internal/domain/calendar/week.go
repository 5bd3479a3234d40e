// Package calendar computes the dates that make up "this week".
//
// Weeks start on Monday and are evaluated in the caller's timezone. Dates are
// civil dates carried as time.Time at 00:00 UTC so they compare and format
// the same way regardless of where the process runs.
package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"
)

// DaysPerWeek is the length of a materialized week.
const DaysPerWeek = 7

// Day returns the civil date of t as seen in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is Day(now, loc).
func Today(now time.Time, loc *time.Location) time.Time {
	return Day(now, loc)
}

// WeekStart returns the Monday of the week containing now in loc.
func WeekStart(now time.Time, loc *time.Location) time.Time {
	day := Day(now, loc)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// Week returns the seven dates Monday..Sunday of the week containing now.
func Week(now time.Time, loc *time.Location) []time.Time {
	r, err := rrule.NewRRule(rrule.ROption{
		Freq:    rrule.DAILY,
		Count:   DaysPerWeek,
		Dtstart: WeekStart(now, loc),
	})
	if err != nil {
		// Only reachable with an invalid option set, which the literal above is not.
		panic(fmt.Sprintf("calendar: daily rule: %v", err))
	}
	days := r.All()
	for i := range days {
		days[i] = days[i].UTC()
	}
	return days
}

// SameDay reports whether two civil dates are equal.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Contains reports whether day is one of dates.
func Contains(dates []time.Time, day time.Time) bool {
	for _, d := range dates {
		if SameDay(d, day) {
			return true
		}
	}
	return false
}
