package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	domrepo "WikiSeer/internal/domain/repository"
	domsvc "WikiSeer/internal/domain/service"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/util"
)

// ErrModelNotReady signals that no usable predictor exists for the requested
// publication date. Callers treat it as "forecast unavailable", never as a
// request failure.
var ErrModelNotReady = errors.New("model not ready")

// Loader deserializes a staged artifact directory into a Predictor.
type Loader interface {
	Load(dir string) (domsvc.Predictor, error)
}

type slotState int

const (
	stateUnknown slotState = iota
	stateNotReady
	stateReady
)

// slot is the cache entry for one publication date. Its mutex serializes the
// first load so concurrent misses for the same date do not download twice.
type slot struct {
	mu    sync.Mutex
	state slotState
	pred  domsvc.Predictor
}

// Cache lazily materializes predictors from the artifact store, memoized per
// publication date for the process lifetime. NotReady and Ready are terminal:
// a missing or undeserializable artifact for a date is never retried. A new
// calendar day uses a new key, so the cache invalidates organically.
type Cache struct {
	artifacts  domrepo.ArtifactStore
	loader     Loader
	stagingDir string
	metrics    domrepo.Metrics
	l          *applogger.Logger

	mu    sync.Mutex
	slots map[string]*slot
}

func NewCache(artifacts domrepo.ArtifactStore, loader Loader, stagingDir string, metrics domrepo.Metrics) *Cache {
	if stagingDir == "" {
		stagingDir = "models"
	}
	return &Cache{
		artifacts:  artifacts,
		loader:     loader,
		stagingDir: stagingDir,
		metrics:    metrics,
		slots:      make(map[string]*slot),
	}
}

// SetLogger injects a structured logger.
func (c *Cache) SetLogger(l *applogger.Logger) { c.l = l }

// GetPredictor returns the predictor published under date, loading it on
// first demand. Returns ErrModelNotReady when no artifact was published for
// that date or a previous deserialization failed. Transport errors do not
// resolve the slot and are returned as-is so a later request can retry.
func (c *Cache) GetPredictor(ctx context.Context, date time.Time) (domsvc.Predictor, error) {
	key := util.FormatDate(date)

	c.mu.Lock()
	s, ok := c.slots[key]
	if !ok {
		s = &slot{}
		c.slots[key] = s
	}
	c.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateReady:
		return s.pred, nil
	case stateNotReady:
		return nil, ErrModelNotReady
	}

	start := time.Now()
	pred, err := c.load(ctx, key)
	if err != nil {
		if errors.Is(err, ErrModelNotReady) {
			s.state = stateNotReady
			c.metrics.RecordModelState(key, false)
			return nil, ErrModelNotReady
		}
		// Unresolved attempt: leave the slot unknown so the next caller retries.
		c.metrics.RecordError("model_load")
		return nil, err
	}

	s.state = stateReady
	s.pred = pred
	c.metrics.RecordModelState(key, true)
	c.metrics.RecordLatency("model_load", time.Since(start).Seconds())
	if c.l != nil {
		c.l.Info("predictor loaded",
			applogger.String("date", key),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return pred, nil
}

func (c *Cache) load(ctx context.Context, key string) (domsvc.Predictor, error) {
	date, _ := util.ParseDate(key)
	objects, err := c.artifacts.List(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	if len(objects) == 0 {
		return nil, ErrModelNotReady
	}

	dir := filepath.Join(c.stagingDir, key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("staging dir: %w", err)
	}
	for _, obj := range objects {
		if err := c.stage(ctx, obj, dir); err != nil {
			return nil, err
		}
	}

	pred, err := c.loader.Load(dir)
	if err != nil {
		// Deserialization failure is terminal for this date's slot.
		if c.l != nil {
			c.l.Error("artifact deserialize failed",
				applogger.String("date", key),
				applogger.Error(err),
			)
		}
		c.metrics.RecordError("model_deserialize")
		return nil, fmt.Errorf("%w: %v", ErrModelNotReady, err)
	}
	return pred, nil
}

// stage downloads one artifact object into dir. Already-staged files are kept,
// so repeated loads for the same date do not re-download.
func (c *Cache) stage(ctx context.Context, key, dir string) error {
	dst := filepath.Join(dir, filepath.Base(key))
	if _, err := os.Stat(dst); err == nil {
		return nil
	}

	body, err := c.artifacts.Fetch(ctx, key)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", key, err)
	}
	defer body.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return f.Close()
}
