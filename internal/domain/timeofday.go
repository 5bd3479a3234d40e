package domain

import (
	"strings"
	"time"
)

// TimeOfDayLayout is the 24-hour format event times are stored in.
const TimeOfDayLayout = "15:04"

// NormalizeTimeOfDay trims v and, when strict, requires a valid 24-hour
// HH:MM time and returns it zero-padded ("8:05" becomes "08:05"). Without
// strict any non-empty string is accepted as is.
func NormalizeTimeOfDay(v string, strict bool) (string, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", ErrInvalidTime
	}
	if !strict {
		return v, nil
	}
	t, err := time.Parse(TimeOfDayLayout, v)
	if err != nil {
		return "", ErrInvalidTime
	}
	return t.Format(TimeOfDayLayout), nil
}
