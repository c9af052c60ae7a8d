package middleware

import (
	"context"
	"sync"
	"testing"
	"time"

	"WikiSeer/internal/domain/models"
)

type captureProc struct {
	mu      sync.Mutex
	batches [][]models.SeriesPoint
	err     error
}

func (c *captureProc) ProcessBatch(ctx context.Context, points []models.SeriesPoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.batches = append(c.batches, points)
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordPointsIngested(backend, title string, n int) {}
func (nopMetrics) RecordError(kind string)                          {}
func (nopMetrics) RecordForecastServed(outcome string)              {}
func (nopMetrics) RecordModelState(date string, ready bool)         {}
func (nopMetrics) RecordLatency(op string, seconds float64)         {}

func pts(title string, n int) []models.SeriesPoint {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	out := make([]models.SeriesPoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.SeriesPoint{Title: title, Date: start.AddDate(0, 0, i), Views: int64(i)})
	}
	return out
}

func TestProcessFiltersInvalidPoints(t *testing.T) {
	proc := &captureProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMinGap(0))

	batch := pts("Go", 2)
	batch = append(batch,
		models.SeriesPoint{Title: "", Date: batch[0].Date, Views: 1},
		models.SeriesPoint{Title: "Go", Views: 1},
		models.SeriesPoint{Title: "Go", Date: batch[0].Date, Views: -5},
	)
	if err := p.Process(context.Background(), batch); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.batches) != 1 || len(proc.batches[0]) != 2 {
		t.Fatalf("expected 2 valid points, got %v", proc.batches)
	}
}

func TestProcessThrottlesPerTitle(t *testing.T) {
	proc := &captureProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMinGap(time.Hour))

	if err := p.Process(context.Background(), pts("Go", 1)); err != nil {
		t.Fatalf("first process: %v", err)
	}
	if err := p.Process(context.Background(), pts("Go", 1)); err != nil {
		t.Fatalf("throttled process must not error: %v", err)
	}
	if err := p.Process(context.Background(), pts("Rust", 1)); err != nil {
		t.Fatalf("other title: %v", err)
	}
	if len(proc.batches) != 2 {
		t.Fatalf("expected throttle to drop second Go batch, got %d batches", len(proc.batches))
	}
}

func TestProcessEmptyAfterFilter(t *testing.T) {
	proc := &captureProc{}
	p := NewIngestPipeline(proc, nopMetrics{}, WithMinGap(0))
	if err := p.Process(context.Background(), []models.SeriesPoint{{Title: "", Views: 1}}); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(proc.batches) != 0 {
		t.Fatalf("expected nothing forwarded")
	}
}
