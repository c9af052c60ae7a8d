package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WikiSeer/internal/handler/api"
	"WikiSeer/internal/usecase"
	pkgcache "WikiSeer/pkg/cache"
	pkgch "WikiSeer/pkg/clickhouse"
	"WikiSeer/pkg/config"
	xhttp "WikiSeer/pkg/http"
	pkgkafka "WikiSeer/pkg/kafka"
	applogger "WikiSeer/pkg/logger"
	"WikiSeer/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.PageViewCollector
	svc         *usecase.ForecastService
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	producer    *pkgkafka.Producer
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	jobQueue    *queue.RedisQueue
	Proc        *usecase.PageViewProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.PageViewCollector,
	svc *usecase.ForecastService,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		svc:       svc,
		consumer:  consumer,
		kh:        kh,
		producer:  producer,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// logPublisher lets the log collector ship aggregated entries through Kafka.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.producer.Publish(ctx, topic, nil, payload)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Ship aggregated warnings/errors to Kafka when that backend is around
	if a.cfg.Backend.Type == "kafka" && a.producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          "wikiseer.logs",
			Publisher:      logPublisher{producer: a.producer},
		})
	}

	a.collector.SetLogger(l)
	a.svc.SetLogger(l)

	// Setup Echo HTTP server and register routes via handler
	var httpHandler xhttp.Handler
	if a.httpHandler != nil {
		httpHandler = a.httpHandler
	} else {
		h := api.NewPagesEchoHandler(l, a.svc)
		a.wireCacheAndQueue(l, h)
		httpHandler = h
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.svc.Health(ctx); err != nil {
		l.Warn("series store not reachable yet", applogger.Error(err))
	}

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("titles", a.cfg.Wikipedia.Titles))

	// Start consumer only when the kafka backend feeds the store
	if a.cfg.Backend.Type == "kafka" && a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// wireCacheAndQueue attaches the list cache and, when Redis is configured,
// fans per-title fetches out to queue workers.
func (a *App) wireCacheAndQueue(l *applogger.Logger, h *api.PagesEchoHandler) {
	if !a.cfg.Cache.Redis.Enabled {
		h.SetCache(pkgcache.NewMemoryCache(), a.cfg.Cache.TTL)
		return
	}

	rc, err := pkgcache.NewRedisCache(
		pkgcache.WithRedisHost(a.cfg.Cache.Redis.Host),
		pkgcache.WithRedisPort(a.cfg.Cache.Redis.Port),
		pkgcache.WithRedisPassword(a.cfg.Cache.Redis.Password),
		pkgcache.WithRedisDB(a.cfg.Cache.Redis.DB),
	)
	if err != nil {
		l.Warn("redis cache unavailable, using memory cache", applogger.Error(err))
		h.SetCache(pkgcache.NewMemoryCache(), a.cfg.Cache.TTL)
		return
	}
	h.SetCache(pkgcache.NewLayeredCache(rc), a.cfg.Cache.TTL)

	workers := a.cfg.Wikipedia.Workers
	if workers <= 0 {
		workers = 2
	}
	q := queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    workers,
		RetryLimit: 3,
		RetryDelay: 30 * time.Second,
	}, rc.Client(), queue.ModeProducerConsumer)
	q.RegisterJob(usecase.NewFetchTitleJob(a.collector))
	if err := q.Start(); err != nil {
		l.Warn("job queue start failed, fetching inline", applogger.Error(err))
		return
	}
	a.jobQueue = q
	a.collector.SetQueue(q)
	l.Info("job queue started", applogger.Int("workers", workers))
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + source)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop queue workers
	if a.jobQueue != nil {
		if err := a.jobQueue.Stop(shutdownCtx); err != nil {
			l.Warn("job queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/store)
	if a.Proc != nil {
		a.Proc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
