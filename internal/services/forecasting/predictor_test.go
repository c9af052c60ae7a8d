package forecasting

import (
	"context"
	"testing"
	"time"

	"WikiSeer/internal/domain/models"
)

func history(title string, days int) []models.SeriesPoint {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	pts := make([]models.SeriesPoint, 0, days)
	for i := 0; i < days; i++ {
		pts = append(pts, models.SeriesPoint{Title: title, Date: start.AddDate(0, 0, i), Views: 100})
	}
	return pts
}

func TestPredictLengthsMatchHorizon(t *testing.T) {
	p := &quantilePredictor{
		global:  seriesParams{Level: 100, Trend: 1, LowerScale: 0.8, UpperScale: 1.2},
		horizon: 7,
	}
	median, lower, upper, err := p.Predict(context.Background(), history("Go", 14), 7)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(median) != 7 || len(lower) != 7 || len(upper) != 7 {
		t.Fatalf("unexpected lengths %d/%d/%d", len(median), len(lower), len(upper))
	}
}

func TestPredictUsesPerTitleParams(t *testing.T) {
	p := &quantilePredictor{
		series: map[string]seriesParams{
			"Go": {Level: 1000, LowerScale: 1, UpperScale: 1},
		},
		global:  seriesParams{Level: 10, LowerScale: 1, UpperScale: 1},
		horizon: 7,
	}
	median, _, _, err := p.Predict(context.Background(), history("Go", 3), 1)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if median[0] != 1000 {
		t.Fatalf("expected per-title level, got %v", median[0])
	}

	median, _, _, err = p.Predict(context.Background(), history("Rust", 3), 1)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if median[0] != 10 {
		t.Fatalf("expected global fallback, got %v", median[0])
	}
}

func TestPredictQuantileScales(t *testing.T) {
	p := &quantilePredictor{
		global:  seriesParams{Level: 100, LowerScale: 0.5, UpperScale: 2},
		horizon: 7,
	}
	median, lower, upper, err := p.Predict(context.Background(), history("Go", 3), 2)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for i := range median {
		if lower[i] != median[i]*0.5 || upper[i] != median[i]*2 {
			t.Fatalf("quantiles not scaled at %d: %v %v %v", i, lower[i], median[i], upper[i])
		}
	}
}

func TestPredictEmptyHistory(t *testing.T) {
	p := &quantilePredictor{global: seriesParams{Level: 1}, horizon: 7}
	if _, _, _, err := p.Predict(context.Background(), nil, 7); err == nil {
		t.Fatalf("expected error for empty history")
	}
}
