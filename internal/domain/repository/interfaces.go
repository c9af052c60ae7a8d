package repository

import (
	"context"
	"io"
	"time"

	"WikiSeer/internal/domain/models"
)

// SeriesStore is the durable page-view time-series store. Reads return points
// sorted ascending by date; the store owns ordering.
type SeriesStore interface {
	GetSeries(ctx context.Context, title string) (models.TimeSeries, error)
	ListTitles(ctx context.Context) ([]string, error)
	Upsert(ctx context.Context, points []models.SeriesPoint) error
	Health(ctx context.Context) error
	Close() error
}

// ArtifactStore is read-only access to published model artifacts, addressed by
// publication date. An empty listing means no artifact was published that day.
type ArtifactStore interface {
	List(ctx context.Context, date time.Time) ([]string, error)
	Fetch(ctx context.Context, key string) (io.ReadCloser, error)
}

// PageViewSource fetches recent daily counts for one title from the upstream API.
type PageViewSource interface {
	Fetch(ctx context.Context, title string) ([]models.SeriesPoint, error)
}

type Publisher interface {
	Publish(ctx context.Context, p *models.SeriesPoint) error
	PublishBatch(ctx context.Context, points []models.SeriesPoint) error
	Close() error
}

type Metrics interface {
	RecordPointsIngested(backend, title string, n int)
	RecordError(kind string)
	RecordForecastServed(outcome string)
	RecordModelState(date string, ready bool)
	RecordLatency(op string, seconds float64)
}
