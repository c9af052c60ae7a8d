package models

// Requests and responses for the page endpoints. Defined in domain for consistency and reuse.

type PageRequest struct {
	Title string `param:"title" json:"title" validate:"required,max=256"`
}

// TimeSeriesResponse mirrors the dashboard contract: values are daily counts
// projected from StartDate onward.
type TimeSeriesResponse struct {
	Title     string  `json:"title"`
	StartDate string  `json:"start_date"`
	PageViews []int64 `json:"page_views"`
}

type ForecastResponse struct {
	StartDate string    `json:"start_date"`
	Median    []float64 `json:"median"`
	Lower     []float64 `json:"lower"`
	Upper     []float64 `json:"upper"`
}

type TimeSeriesForecastResponse struct {
	TimeSeries TimeSeriesResponse `json:"time_series"`
	Forecast   *ForecastResponse  `json:"forecast"`
}
