package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
	domsvc "WikiSeer/internal/domain/service"
	"WikiSeer/internal/services/model"
	"WikiSeer/internal/usecase"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"

	"github.com/labstack/echo/v4"
)

type fakeStore struct {
	series map[string]models.TimeSeries
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

func (f *fakeStore) Upsert(ctx context.Context, points []models.SeriesPoint) error { return nil }
func (f *fakeStore) Health(ctx context.Context) error                              { return nil }
func (f *fakeStore) Close() error                                                  { return nil }

type fakeArtifacts struct {
	keys []string
}

func (f *fakeArtifacts) List(ctx context.Context, date time.Time) ([]string, error) {
	return f.keys, nil
}

func (f *fakeArtifacts) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte("x"))), nil
}

type constPredictor struct{}

func (constPredictor) Predict(ctx context.Context, history []models.SeriesPoint, horizon int) ([]float64, []float64, []float64, error) {
	median := make([]float64, horizon)
	lower := make([]float64, horizon)
	upper := make([]float64, horizon)
	for i := range median {
		median[i] = 100.5
		lower[i] = 80.25
		upper[i] = 120.75
	}
	return median, lower, upper, nil
}

type constLoader struct{}

func (constLoader) Load(dir string) (domsvc.Predictor, error) { return constPredictor{}, nil }

type nopMetrics struct{}

func (nopMetrics) RecordPointsIngested(backend, title string, n int) {}
func (nopMetrics) RecordError(kind string)                          {}
func (nopMetrics) RecordForecastServed(outcome string)              {}
func (nopMetrics) RecordModelState(date string, ready bool)         {}
func (nopMetrics) RecordLatency(op string, seconds float64)         {}

func seriesFor(title string) models.TimeSeries {
	start, _ := util.ParseDate("2024-06-10")
	pts := make([]models.SeriesPoint, 0, 5)
	for i := 0; i < 5; i++ {
		pts = append(pts, models.SeriesPoint{Title: title, Date: start.AddDate(0, 0, i), Views: int64(10 + i)})
	}
	return models.TimeSeries{Title: title, Points: pts}
}

func newTestEcho(t *testing.T, store *fakeStore, arts *fakeArtifacts) *echo.Echo {
	t.Helper()
	cache := model.NewCache(arts, constLoader{}, t.TempDir(), nopMetrics{})
	svc := usecase.NewForecastService(store, cache, nopMetrics{}, 7)
	svc.SetClock(func() time.Time {
		return time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	})
	l, _ := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stdout"})
	h := NewPagesEchoHandler(l, svc)

	e := echo.New()
	h.RegisterRoutes(e)
	return e
}

func do(e *echo.Echo, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListPages(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{"Go": seriesFor("Go")}}, &fakeArtifacts{})
	rec := do(e, "/page")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var titles []string
	if err := json.Unmarshal(rec.Body.Bytes(), &titles); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Go" {
		t.Fatalf("unexpected titles %v", titles)
	}
}

func TestListPagesEmpty(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	rec := do(e, "/page")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["detail"] != "No pages found." {
		t.Fatalf("unexpected detail %q", body["detail"])
	}
}

func TestTimeseries(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{"Go": seriesFor("Go")}}, &fakeArtifacts{})
	rec := do(e, "/page/Go/timeseries")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body models.TimeSeriesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Title != "Go" || body.StartDate != "2024-06-10" {
		t.Fatalf("unexpected body %+v", body)
	}
	if len(body.PageViews) != 5 || body.PageViews[0] != 10 {
		t.Fatalf("unexpected page_views %v", body.PageViews)
	}
}

func TestTimeseriesUnknownTitle(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	rec := do(e, "/page/Nope/timeseries")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No timeseries data found for Nope.") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestForecastWithModel(t *testing.T) {
	arts := &fakeArtifacts{keys: []string{"models/2024-06-15/metadata.json"}}
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{"Go": seriesFor("Go")}}, arts)
	rec := do(e, "/page/Go/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var body models.TimeSeriesForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Forecast == nil {
		t.Fatalf("expected forecast")
	}
	if body.Forecast.StartDate != "2024-06-15" {
		t.Fatalf("forecast must start after history, got %s", body.Forecast.StartDate)
	}
	if len(body.Forecast.Median) != 7 {
		t.Fatalf("unexpected horizon %d", len(body.Forecast.Median))
	}
}

func TestForecastModelMissing(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{"Go": seriesFor("Go")}}, &fakeArtifacts{})
	rec := do(e, "/page/Go/forecast")
	if rec.Code != http.StatusOK {
		t.Fatalf("history must be served without a model, status %d", rec.Code)
	}
	var body models.TimeSeriesForecastResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Forecast != nil {
		t.Fatalf("expected null forecast")
	}
	if body.TimeSeries.Title != "Go" {
		t.Fatalf("unexpected series %+v", body.TimeSeries)
	}
}

func TestRuok(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	rec := do(e, "/ruok")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected ruok response %d %q", rec.Code, rec.Body.String())
	}
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t, &fakeStore{series: map[string]models.TimeSeries{}}, &fakeArtifacts{})
	rec := do(e, "/health")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("unexpected health response %d %q", rec.Code, rec.Body.String())
	}
}
