package usecase

import (
	"context"
	"fmt"
	"time"

	"WikiSeer/internal/domain/models"
	drepo "WikiSeer/internal/domain/repository"
)

// PageViewProcessor routes fetched page-view points to the configured backend.
type PageViewProcessor struct {
	pub     drepo.Publisher
	store   drepo.SeriesStore
	metrics drepo.Metrics
	backend string
}

// NewPageViewProcessor creates a new PageViewProcessor instance.
func NewPageViewProcessor(pub drepo.Publisher, store drepo.SeriesStore, metrics drepo.Metrics, backend string) *PageViewProcessor {
	return &PageViewProcessor{
		pub:     pub,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

// ProcessBatch routes one title's fetched points to the configured backend.
func (p *PageViewProcessor) ProcessBatch(ctx context.Context, points []models.SeriesPoint) error {
	if len(points) == 0 {
		return nil
	}

	start := time.Now()
	var err error

	switch p.backend {
	case "kafka":
		err = p.pub.PublishBatch(ctx, points)
	case "clickhouse":
		err = p.store.Upsert(ctx, points)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process_batch")
		return fmt.Errorf("process batch: %w", err)
	}

	p.metrics.RecordPointsIngested(p.backend, points[0].Title, len(points))
	p.metrics.RecordLatency("process_batch", time.Since(start).Seconds())

	return nil
}

// Close closes underlying resources if available.
func (p *PageViewProcessor) Close() {
	if p.pub != nil {
		_ = p.pub.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
