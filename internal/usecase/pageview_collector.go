package usecase

import (
	"context"
	"time"

	drepo "WikiSeer/internal/domain/repository"
	mid "WikiSeer/internal/middleware"
	"WikiSeer/internal/service/ratelimit"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/queue"
)

const fetchJobType = "pageview.fetch"

// PageViewCollector periodically pulls daily counts for the configured titles
// and pushes them through the ingest pipeline. When a job queue is attached,
// per-title fetches are fanned out to queue workers instead of running inline.
type PageViewCollector struct {
	source   drepo.PageViewSource
	proc     *PageViewProcessor
	pipe     *mid.IngestPipeline
	metrics  drepo.Metrics
	limiter  *ratelimit.Limiter
	queue    queue.QueueService
	titles   []string
	interval time.Duration
	maxRPS   float64
	l        *applogger.Logger
}

// NewPageViewCollector creates a new PageViewCollector instance.
func NewPageViewCollector(
	source drepo.PageViewSource,
	proc *PageViewProcessor,
	metrics drepo.Metrics,
	pipe *mid.IngestPipeline,
	titles []string,
	interval time.Duration,
	maxRPS float64,
) *PageViewCollector {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	if maxRPS <= 0 {
		maxRPS = 2
	}
	return &PageViewCollector{
		source:   source,
		proc:     proc,
		pipe:     pipe,
		metrics:  metrics,
		limiter:  ratelimit.New(),
		titles:   titles,
		interval: interval,
		maxRPS:   maxRPS,
	}
}

// SetLogger injects a structured logger.
func (c *PageViewCollector) SetLogger(l *applogger.Logger) { c.l = l }

// SetQueue attaches a job queue for fan-out of per-title fetches.
func (c *PageViewCollector) SetQueue(q queue.QueueService) { c.queue = q }

// Start runs one collection immediately, then one per interval until ctx ends.
func (c *PageViewCollector) Start(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	c.collect(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.collect(ctx)
		}
	}
}

func (c *PageViewCollector) collect(ctx context.Context) {
	for _, title := range c.titles {
		if c.queue != nil {
			if err := c.queue.PublishMessage(ctx, fetchJobType, map[string]interface{}{"title": title}); err != nil {
				c.metrics.RecordError("collector_enqueue")
				if c.l != nil {
					c.l.Warn("enqueue fetch failed", applogger.String("title", title), applogger.Error(err))
				}
			}
			continue
		}
		if err := c.FetchTitle(ctx, title); err != nil && c.l != nil {
			c.l.Warn("fetch failed", applogger.String("title", title), applogger.Error(err))
		}
	}
}

// FetchTitle fetches one title's counts and forwards them downstream. The
// shared token bucket keeps upstream API calls under the configured rate.
func (c *PageViewCollector) FetchTitle(ctx context.Context, title string) error {
	for !c.limiter.Allow("wikipedia", c.maxRPS, c.maxRPS) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(100 * time.Millisecond):
		}
	}

	points, err := c.source.Fetch(ctx, title)
	if err != nil {
		c.metrics.RecordError("collector_fetch")
		return err
	}
	if len(points) == 0 {
		return nil
	}
	if c.pipe != nil {
		return c.pipe.Process(ctx, points)
	}
	return c.proc.ProcessBatch(ctx, points)
}

// Shutdown stops the pipeline.
func (c *PageViewCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return nil
}

// FetchTitleJob lets queue workers run per-title fetches.
type FetchTitleJob struct {
	collector *PageViewCollector
}

func NewFetchTitleJob(collector *PageViewCollector) *FetchTitleJob {
	return &FetchTitleJob{collector: collector}
}

func (j *FetchTitleJob) Name() string { return "pageview-fetch" }
func (j *FetchTitleJob) Type() string { return fetchJobType }

func (j *FetchTitleJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[struct {
		Title string `json:"title"`
	}](payload)
	if err != nil {
		return err
	}
	return j.collector.FetchTitle(ctx, p.Title)
}

var _ queue.Job = (*FetchTitleJob)(nil)
