package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	pointsIngested *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	forecastsTotal *prometheus.CounterVec
	modelState     *prometheus.GaugeVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		pointsIngested: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikiseer_points_ingested_total",
				Help: "Total number of page-view points routed to a backend",
			},
			[]string{"backend", "title"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikiseer_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		forecastsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wikiseer_forecasts_served_total",
				Help: "Forecast responses served, split by outcome",
			},
			[]string{"outcome"},
		),
		modelState: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "wikiseer_model_ready",
				Help: "1 when a predictor is loaded for the publication date, 0 otherwise",
			},
			[]string{"date"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wikiseer_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPointsIngested records page-view points sent to a backend.
func (r *Recorder) RecordPointsIngested(backend, title string, n int) {
	r.pointsIngested.WithLabelValues(backend, title).Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordForecastServed records a forecast response outcome ("forecast" or "not_ready").
func (r *Recorder) RecordForecastServed(outcome string) {
	r.forecastsTotal.WithLabelValues(outcome).Inc()
}

// RecordModelState records predictor readiness for a publication date.
func (r *Recorder) RecordModelState(date string, ready bool) {
	v := 0.0
	if ready {
		v = 1.0
	}
	r.modelState.WithLabelValues(date).Set(v)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
