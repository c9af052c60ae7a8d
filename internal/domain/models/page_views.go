package models

import "time"

// SeriesPoint is one daily page-view observation for a title.
// Unique per (title, date); the store keeps the last write for the key.
type SeriesPoint struct {
	Title string    `json:"title"`
	Date  time.Time `json:"date"`
	Views int64     `json:"page_views"`
}

// TimeSeries is the page-view history for one title, ordered ascending by date.
// A TimeSeries is never empty; absence of rows is a not-found condition.
type TimeSeries struct {
	Title  string
	Points []SeriesPoint
}

// StartDate returns the date of the first point.
func (ts TimeSeries) StartDate() time.Time {
	return ts.Points[0].Date
}

// LastDate returns the date of the last point.
func (ts TimeSeries) LastDate() time.Time {
	return ts.Points[len(ts.Points)-1].Date
}

// Values returns the view counts in date order.
func (ts TimeSeries) Values() []int64 {
	out := make([]int64, 0, len(ts.Points))
	for _, p := range ts.Points {
		out = append(out, p.Views)
	}
	return out
}
