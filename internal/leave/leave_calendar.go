package leave

import (
	"time"

	leaveerrors "go-leave/internal/leave/errors"
)

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// DateOnly drops the time of day, keeping the calendar date t has in its own
// location, and normalizes it to midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero time so the
// lifecycle can report it as a missing field.
func ParseDate(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, leaveerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// BusinessDays counts the Monday-Friday dates in [start, end].
func BusinessDays(start, end time.Time) (int, error) {
	s, e := DateOnly(start), DateOnly(end)
	if e.Before(s) {
		return 0, leaveerrors.ErrInvalidRange
	}

	// both are UTC midnights, so every day is exactly secondsPerDay long;
	// time.Duration would overflow past ~292 years.
	total := int((e.Unix()-s.Unix())/secondsPerDay) + 1
	weeks := total / 7
	days := weeks * 5
	first := s.Weekday()
	for i := 0; i < total%7; i++ {
		switch (first + time.Weekday(i)) % 7 {
		case time.Saturday, time.Sunday:
		default:
			days++
		}
	}
	return days, nil
}

// IsStrictlyFuture compares calendar dates only: a date equal to today is
// not in the future.
func IsStrictlyFuture(date, now time.Time) bool {
	return DateOnly(date).After(DateOnly(now))
}
