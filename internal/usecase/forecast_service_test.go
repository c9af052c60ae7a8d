package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
	domsvc "WikiSeer/internal/domain/service"
	"WikiSeer/internal/services/model"
	"WikiSeer/pkg/util"
)

type fakeStore struct {
	series  map[string]models.TimeSeries
	upserts [][]models.SeriesPoint
}

func (f *fakeStore) GetSeries(ctx context.Context, title string) (models.TimeSeries, error) {
	ts, ok := f.series[title]
	if !ok {
		return models.TimeSeries{}, domrepo.ErrNotFound
	}
	return ts, nil
}

func (f *fakeStore) ListTitles(ctx context.Context) ([]string, error) {
	if len(f.series) == 0 {
		return nil, domrepo.ErrNotFound
	}
	out := make([]string, 0, len(f.series))
	for k := range f.series {
		out = append(out, k)
	}
	return out, nil
}

func (f *fakeStore) Upsert(ctx context.Context, points []models.SeriesPoint) error {
	f.upserts = append(f.upserts, points)
	return nil
}

func (f *fakeStore) Health(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                     { return nil }

type fakeArtifacts struct {
	keys []string
}

func (f *fakeArtifacts) List(ctx context.Context, date time.Time) ([]string, error) {
	return f.keys, nil
}

func (f *fakeArtifacts) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("x"))), nil
}

type constPredictor struct{ horizon int }

func (p constPredictor) Predict(ctx context.Context, history []models.SeriesPoint, horizon int) ([]float64, []float64, []float64, error) {
	n := horizon
	median := make([]float64, n)
	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := 0; i < n; i++ {
		median[i] = 100
		lower[i] = 80
		upper[i] = 120
	}
	return median, lower, upper, nil
}

type constLoader struct{}

func (constLoader) Load(dir string) (domsvc.Predictor, error) {
	return constPredictor{}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordPointsIngested(backend, title string, n int) {}
func (nopMetrics) RecordError(kind string)                          {}
func (nopMetrics) RecordForecastServed(outcome string)              {}
func (nopMetrics) RecordModelState(date string, ready bool)         {}
func (nopMetrics) RecordLatency(op string, seconds float64)         {}

func seedSeries(title string, lastDate string, days int) models.TimeSeries {
	last, _ := util.ParseDate(lastDate)
	pts := make([]models.SeriesPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		pts = append(pts, models.SeriesPoint{Title: title, Date: last.AddDate(0, 0, -i), Views: int64(100 + i)})
	}
	return models.TimeSeries{Title: title, Points: pts}
}

func newTestService(t *testing.T, store *fakeStore, arts domrepo.ArtifactStore) *ForecastService {
	t.Helper()
	cache := model.NewCache(arts, constLoader{}, t.TempDir(), nopMetrics{})
	svc := NewForecastService(store, cache, nopMetrics{}, 7)
	svc.SetClock(func() time.Time {
		return time.Date(2024, 6, 15, 9, 30, 0, 0, time.UTC)
	})
	return svc
}

func TestGetTimeseriesForecastUnknownTitle(t *testing.T) {
	svc := newTestService(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	_, err := svc.GetTimeseriesForecast(context.Background(), "Nope")
	if !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTimeseriesForecastModelNotReady(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{
		"Go": seedSeries("Go", "2024-06-14", 10),
	}}
	svc := newTestService(t, store, &fakeArtifacts{})

	res, err := svc.GetTimeseriesForecast(context.Background(), "Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Forecast != nil {
		t.Fatalf("expected nil forecast when model missing")
	}
	if len(res.TimeSeries.Points) != 10 {
		t.Fatalf("history must still be served, got %d points", len(res.TimeSeries.Points))
	}
}

func TestGetTimeseriesForecastStartsAfterLastDate(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{
		"Go": seedSeries("Go", "2024-06-14", 10),
	}}
	arts := &fakeArtifacts{keys: []string{"models/2024-06-15/metadata.json"}}
	svc := newTestService(t, store, arts)

	res, err := svc.GetTimeseriesForecast(context.Background(), "Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Forecast == nil {
		t.Fatalf("expected forecast")
	}
	if got := util.FormatDate(res.Forecast.StartDate); got != "2024-06-15" {
		t.Fatalf("forecast must start the day after history ends, got %s", got)
	}
	if len(res.Forecast.Median) != 7 || len(res.Forecast.Lower) != 7 || len(res.Forecast.Upper) != 7 {
		t.Fatalf("expected 7-day quantile tracks")
	}
}

// dateKeyedArtifacts only lists objects for the exact requested date.
type dateKeyedArtifacts struct {
	byDate map[string][]string
}

func (f *dateKeyedArtifacts) List(ctx context.Context, date time.Time) ([]string, error) {
	return f.byDate[util.FormatDate(date)], nil
}

func (f *dateKeyedArtifacts) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("x"))), nil
}

func TestForecastNeverFallsBackToStaleModel(t *testing.T) {
	store := &fakeStore{series: map[string]models.TimeSeries{
		"Go": seedSeries("Go", "2024-06-14", 10),
	}}
	// Only yesterday's artifact exists; the clock says 2024-06-15.
	arts := &dateKeyedArtifacts{byDate: map[string][]string{
		"2024-06-14": {"models/2024-06-14/metadata.json"},
	}}
	svc := newTestService(t, store, arts)

	res, err := svc.GetTimeseriesForecast(context.Background(), "Go")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Forecast != nil {
		t.Fatalf("stale artifact must not produce a forecast")
	}
}

func TestListTitlesEmptyStore(t *testing.T) {
	svc := newTestService(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	if _, err := svc.ListTitles(context.Background()); !errors.Is(err, domrepo.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
