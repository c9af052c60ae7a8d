package util

import (
    "testing"
    "time"
)

func TestParseDate(t *testing.T) {
    got, ok := ParseDate("2024-01-01")
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Year() != 2024 || got.Month() != time.January || got.Day() != 1 {
        t.Fatalf("unexpected date %v", got)
    }
}

func TestParseDateInvalid(t *testing.T) {
    if _, ok := ParseDate(""); ok {
        t.Fatalf("expected not ok for empty")
    }
    if _, ok := ParseDate("01/02/2024"); ok {
        t.Fatalf("expected not ok for wrong layout")
    }
}

func TestNextDayRollsMonth(t *testing.T) {
    d, _ := ParseDate("2024-03-31")
    if FormatDate(NextDay(d)) != "2024-04-01" {
        t.Fatalf("unexpected next day %v", NextDay(d))
    }
}

func TestDateOfTruncates(t *testing.T) {
    ts := time.Date(2024, 10, 10, 15, 4, 5, 0, time.UTC)
    d := DateOf(ts)
    if d.Hour() != 0 || FormatDate(d) != "2024-10-10" {
        t.Fatalf("unexpected truncation %v", d)
    }
}
