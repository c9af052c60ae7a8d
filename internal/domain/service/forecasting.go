package service

import (
	"context"

	"WikiSeer/internal/domain/models"
)

// Predictor produces quantile forecasts from a series tail. Any numerics
// backend that satisfies this interface is swappable behind the model cache.
type Predictor interface {
	// Predict returns median, lower and upper sequences of length horizon,
	// covering the days after the last point in history.
	Predict(ctx context.Context, history []models.SeriesPoint, horizon int) (median, lower, upper []float64, err error)
}
