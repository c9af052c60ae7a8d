package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"WikiSeer/internal/domain/models"
	domrepo "WikiSeer/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	ProcessBatch(ctx context.Context, points []models.SeriesPoint) error
}

// IngestPipeline sits between the page-view collector and the backend.
// It validates fetched batches, throttles per title, and buffers batches
// when the downstream backend is unavailable.
type IngestPipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	minGap   time.Duration
	bufSize  int
	bufCh    chan []models.SeriesPoint
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-title last accepted time
}

type PipelineOption func(*IngestPipeline)

// WithMinGap sets the minimum interval between accepted batches per title.
func WithMinGap(d time.Duration) PipelineOption {
	return func(p *IngestPipeline) {
		if d > 0 {
			p.minGap = d
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *IngestPipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// NewIngestPipeline creates a new pipeline.
func NewIngestPipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *IngestPipeline {
	p := &IngestPipeline{
		proc:     proc,
		metrics:  metrics,
		minGap:   time.Minute,
		bufSize:  100,
		bufCh:    make(chan []models.SeriesPoint, 100),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan []models.SeriesPoint, p.bufSize)
	}
	return p
}

// Start launches background flushing of buffered batches.
func (p *IngestPipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case batch := <-p.bufCh:
				if len(batch) == 0 {
					continue
				}
				if err := p.proc.ProcessBatch(ctx, batch); err != nil {
					// exponential backoff with cap
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- batch:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *IngestPipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates and forwards a fetched batch downstream, buffering on errors.
// All points in one batch belong to the same title.
func (p *IngestPipeline) Process(ctx context.Context, points []models.SeriesPoint) error {
	start := time.Now()
	points = validPoints(points)
	if len(points) == 0 {
		return nil
	}
	title := points[0].Title
	if !p.allow(title, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		return nil
	}

	if err := p.proc.ProcessBatch(ctx, points); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- points:
			p.metrics.RecordLatency("pipeline_buffer_depth", float64(len(p.bufCh)))
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validPoints(points []models.SeriesPoint) []models.SeriesPoint {
	out := points[:0]
	for _, sp := range points {
		if sp.Title == "" || sp.Date.IsZero() || sp.Views < 0 {
			continue
		}
		out = append(out, sp)
	}
	return out
}

func (p *IngestPipeline) allow(title string, now time.Time) bool {
	if p.minGap <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[title]
	if !last.IsZero() && now.Sub(last) < p.minGap {
		return false
	}
	p.lastSeen[title] = now
	return true
}
