package model

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"WikiSeer/internal/domain/models"
	domsvc "WikiSeer/internal/domain/service"
)

type fakeArtifacts struct {
	keys       []string
	listErr    error
	listCalls  int
	fetchCalls int
}

func (f *fakeArtifacts) List(ctx context.Context, date time.Time) ([]string, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.keys, nil
}

func (f *fakeArtifacts) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	f.fetchCalls++
	return io.NopCloser(bytes.NewReader([]byte("payload"))), nil
}

type fakePredictor struct{}

func (fakePredictor) Predict(ctx context.Context, history []models.SeriesPoint, horizon int) ([]float64, []float64, []float64, error) {
	return nil, nil, nil, nil
}

type fakeLoader struct {
	err   error
	calls int
}

func (f *fakeLoader) Load(dir string) (domsvc.Predictor, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return fakePredictor{}, nil
}

type nopMetrics struct{}

func (nopMetrics) RecordPointsIngested(backend, title string, n int) {}
func (nopMetrics) RecordError(kind string)                          {}
func (nopMetrics) RecordForecastServed(outcome string)              {}
func (nopMetrics) RecordModelState(date string, ready bool)         {}
func (nopMetrics) RecordLatency(op string, seconds float64)         {}

func testDate(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
}

func TestGetPredictorMemoizesReady(t *testing.T) {
	arts := &fakeArtifacts{keys: []string{"models/2024-06-01/metadata.json"}}
	loader := &fakeLoader{}
	c := NewCache(arts, loader, t.TempDir(), nopMetrics{})

	p1, err := c.GetPredictor(context.Background(), testDate(t))
	if err != nil {
		t.Fatalf("first load: %v", err)
	}
	p2, err := c.GetPredictor(context.Background(), testDate(t))
	if err != nil {
		t.Fatalf("second load: %v", err)
	}
	if p1 == nil || p2 == nil {
		t.Fatalf("expected predictors")
	}
	if arts.listCalls != 1 {
		t.Fatalf("expected 1 list call, got %d", arts.listCalls)
	}
	if loader.calls != 1 {
		t.Fatalf("expected 1 loader call, got %d", loader.calls)
	}
}

func TestGetPredictorEmptyListingIsTerminal(t *testing.T) {
	arts := &fakeArtifacts{}
	c := NewCache(arts, &fakeLoader{}, t.TempDir(), nopMetrics{})

	for i := 0; i < 2; i++ {
		_, err := c.GetPredictor(context.Background(), testDate(t))
		if !errors.Is(err, ErrModelNotReady) {
			t.Fatalf("call %d: expected ErrModelNotReady, got %v", i, err)
		}
	}
	if arts.listCalls != 1 {
		t.Fatalf("expected NotReady to be memoized, got %d list calls", arts.listCalls)
	}
}

func TestGetPredictorTransportErrorIsRetryable(t *testing.T) {
	arts := &fakeArtifacts{listErr: fmt.Errorf("connection refused")}
	loader := &fakeLoader{}
	c := NewCache(arts, loader, t.TempDir(), nopMetrics{})

	_, err := c.GetPredictor(context.Background(), testDate(t))
	if err == nil || errors.Is(err, ErrModelNotReady) {
		t.Fatalf("expected transport error, got %v", err)
	}

	arts.listErr = nil
	arts.keys = []string{"models/2024-06-01/metadata.json"}
	if _, err := c.GetPredictor(context.Background(), testDate(t)); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if arts.listCalls != 2 {
		t.Fatalf("expected 2 list calls, got %d", arts.listCalls)
	}
}

func TestGetPredictorDeserializeFailureIsTerminal(t *testing.T) {
	arts := &fakeArtifacts{keys: []string{"models/2024-06-01/metadata.json"}}
	loader := &fakeLoader{err: fmt.Errorf("bad json")}
	c := NewCache(arts, loader, t.TempDir(), nopMetrics{})

	for i := 0; i < 2; i++ {
		_, err := c.GetPredictor(context.Background(), testDate(t))
		if !errors.Is(err, ErrModelNotReady) {
			t.Fatalf("call %d: expected ErrModelNotReady, got %v", i, err)
		}
	}
	if loader.calls != 1 {
		t.Fatalf("expected deserialize failure memoized, got %d loader calls", loader.calls)
	}
}

func TestDistinctDatesUseDistinctSlots(t *testing.T) {
	arts := &fakeArtifacts{keys: []string{"models/x/metadata.json"}}
	c := NewCache(arts, &fakeLoader{}, t.TempDir(), nopMetrics{})

	d1 := testDate(t)
	d2 := d1.AddDate(0, 0, 1)
	if _, err := c.GetPredictor(context.Background(), d1); err != nil {
		t.Fatalf("d1: %v", err)
	}
	if _, err := c.GetPredictor(context.Background(), d2); err != nil {
		t.Fatalf("d2: %v", err)
	}
	if arts.listCalls != 2 {
		t.Fatalf("expected one list per date, got %d", arts.listCalls)
	}
}

func TestStageSkipsExistingFiles(t *testing.T) {
	staging := t.TempDir()
	dir := filepath.Join(staging, "2024-06-01")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "metadata.json"), []byte("cached"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	arts := &fakeArtifacts{keys: []string{"models/2024-06-01/metadata.json"}}
	c := NewCache(arts, &fakeLoader{}, staging, nopMetrics{})

	if _, err := c.GetPredictor(context.Background(), testDate(t)); err != nil {
		t.Fatalf("load: %v", err)
	}
	if arts.fetchCalls != 0 {
		t.Fatalf("expected staged file to be reused, got %d fetches", arts.fetchCalls)
	}
}
