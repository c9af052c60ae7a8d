package util

import (
    "time"
)

// DateLayout is the calendar-date wire format used by stores and the API.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date. Returns (d, true) if it parsed.
func ParseDate(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    t, err := time.Parse(DateLayout, s)
    if err != nil {
        return time.Time{}, false
    }
    return t, true
}

// FormatDate renders t as an ISO calendar date.
func FormatDate(t time.Time) string {
    return t.Format(DateLayout)
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
    y, m, d := t.UTC().Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current UTC calendar date.
func Today() time.Time {
    return DateOf(time.Now())
}

// NextDay returns the calendar day after d.
func NextDay(d time.Time) time.Time {
    return d.AddDate(0, 0, 1)
}
