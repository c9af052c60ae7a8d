package usecase

import (
	"context"
	"errors"
	"time"

	"WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
	"WikiSeer/internal/services/model"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"
)

// ForecastService composes stored history with a forecast from today's
// predictor. "Today" is the current UTC calendar date: if no artifact was
// published today the response degrades to an absent forecast rather than
// falling back to an older model.
type ForecastService struct {
	store   domrepo.SeriesStore
	models  *model.Cache
	metrics domrepo.Metrics
	horizon int
	now     func() time.Time
	l       *applogger.Logger
}

func NewForecastService(store domrepo.SeriesStore, models *model.Cache, metrics domrepo.Metrics, horizon int) *ForecastService {
	if horizon <= 0 {
		horizon = 7
	}
	return &ForecastService{
		store:   store,
		models:  models,
		metrics: metrics,
		horizon: horizon,
		now:     time.Now,
	}
}

// SetLogger injects a structured logger.
func (s *ForecastService) SetLogger(l *applogger.Logger) { s.l = l }

// SetClock overrides the clock, for tests.
func (s *ForecastService) SetClock(now func() time.Time) { s.now = now }

// Health reports whether the series store is reachable.
func (s *ForecastService) Health(ctx context.Context) error {
	return s.store.Health(ctx)
}

// ListTitles returns all stored series identifiers.
func (s *ForecastService) ListTitles(ctx context.Context) ([]string, error) {
	return s.store.ListTitles(ctx)
}

// GetSeries returns the stored history for one title.
func (s *ForecastService) GetSeries(ctx context.Context, title string) (models.TimeSeries, error) {
	return s.store.GetSeries(ctx, title)
}

// GetTimeseriesForecast returns the stored history plus, when today's
// predictor is ready, a quantile forecast starting the day after the last
// recorded date. A missing model yields a nil forecast, not an error.
func (s *ForecastService) GetTimeseriesForecast(ctx context.Context, title string) (models.TimeSeriesForecast, error) {
	series, err := s.store.GetSeries(ctx, title)
	if err != nil {
		return models.TimeSeriesForecast{}, err
	}

	pred, err := s.models.GetPredictor(ctx, util.DateOf(s.now()))
	if err != nil {
		if errors.Is(err, model.ErrModelNotReady) {
			s.metrics.RecordForecastServed("not_ready")
			return models.TimeSeriesForecast{TimeSeries: series}, nil
		}
		return models.TimeSeriesForecast{}, err
	}

	median, lower, upper, err := pred.Predict(ctx, series.Points, s.horizon)
	if err != nil {
		if s.l != nil {
			s.l.Error("predict failed", applogger.String("title", title), applogger.Error(err))
		}
		s.metrics.RecordError("predict")
		s.metrics.RecordForecastServed("not_ready")
		return models.TimeSeriesForecast{TimeSeries: series}, nil
	}

	s.metrics.RecordForecastServed("forecast")
	return models.TimeSeriesForecast{
		TimeSeries: series,
		Forecast: &models.Forecast{
			StartDate: util.NextDay(series.LastDate()),
			Median:    median,
			Lower:     lower,
			Upper:     upper,
		},
	}, nil
}
