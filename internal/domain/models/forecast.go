package models

import "time"

// Forecast holds quantile forecasts covering a fixed horizon.
// Median, Lower and Upper have equal length; index i corresponds to
// StartDate + i days. Values are the model's raw output: fractional and
// possibly negative, clamping is left to presentation.
type Forecast struct {
	StartDate time.Time
	Median    []float64
	Lower     []float64
	Upper     []float64
}

// TimeSeriesForecast pairs a historical series with an optional forecast.
// Forecast is nil when no predictor is ready for today's publication date.
type TimeSeriesForecast struct {
	TimeSeries TimeSeries
	Forecast   *Forecast
}
