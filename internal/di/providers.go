package di

import (
	"context"
	"fmt"
	"time"

	"WikiSeer/internal/domain/repository"
	mid "WikiSeer/internal/middleware"
	internalrepo "WikiSeer/internal/repository"
	"WikiSeer/internal/service/wikipedia"
	"WikiSeer/internal/services/forecasting"
	"WikiSeer/internal/services/model"
	"WikiSeer/internal/usecase"
	pkgch "WikiSeer/pkg/clickhouse"
	"WikiSeer/pkg/config"
	pkgkafka "WikiSeer/pkg/kafka"
	"WikiSeer/pkg/metrics"
	pkgs3 "WikiSeer/pkg/s3"
	"WikiSeer/pkg/server"
)

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	// Initialize schema. ReplacingMergeTree keyed by (title, date) gives
	// last-write-wins upsert semantics; reads go through FINAL.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db := cfg.ClickHouse.Database
	table := cfg.ClickHouse.Table
	if table == "" {
		table = "page_views"
	}
	if err := client.InitSchema(ctx, []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", db),
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s.%s (title String, date Date, page_views Int64, ingested_at DateTime DEFAULT now()) ENGINE=ReplacingMergeTree(ingested_at) ORDER BY (title, date)", db, table),
	}); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	return producer, nil
}

// ProvideS3Client creates an S3 client for the model artifact bucket.
func ProvideS3Client(cfg *config.Config) (*pkgs3.Client, error) {
	client, err := pkgs3.NewClient(
		pkgs3.WithEndpoint(cfg.S3.Endpoint),
		pkgs3.WithCredentials(cfg.S3.AccessKey, cfg.S3.SecretKey),
		pkgs3.WithRegion(cfg.S3.Region),
		pkgs3.WithSSL(cfg.S3.UseSSL),
		pkgs3.WithBucket(cfg.S3.Bucket),
	)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return client, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideSeriesStore creates the ClickHouse-backed series store.
func ProvideSeriesStore(chClient *pkgch.Client, cfg *config.Config) repository.SeriesStore {
	table := cfg.ClickHouse.Table
	if table == "" {
		table = "page_views"
	}
	return internalrepo.NewCHSeriesStore(chClient.DB(), cfg.ClickHouse.Database+"."+table)
}

// ProvidePublisher creates Kafka publisher repository.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideArtifactStore creates the S3-backed artifact store.
func ProvideArtifactStore(s3Client *pkgs3.Client, cfg *config.Config) repository.ArtifactStore {
	return internalrepo.NewS3ArtifactStore(s3Client, cfg.Model.Prefix)
}

// ProvideArtifactLoader creates the predictor deserializer.
func ProvideArtifactLoader() model.Loader {
	return forecasting.NewArtifactLoader()
}

// ProvideModelCache creates the date-keyed predictor cache.
func ProvideModelCache(
	artifacts repository.ArtifactStore,
	loader model.Loader,
	metrics repository.Metrics,
	cfg *config.Config,
) *model.Cache {
	return model.NewCache(artifacts, loader, cfg.Model.StagingDir, metrics)
}

// ProvideForecastService creates the forecast query use case.
func ProvideForecastService(
	store repository.SeriesStore,
	cache *model.Cache,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.ForecastService {
	return usecase.NewForecastService(store, cache, metrics, cfg.Model.Horizon)
}

// ProvideWikipediaSource creates the upstream page-view source.
func ProvideWikipediaSource(cfg *config.Config) repository.PageViewSource {
	return wikipedia.New(
		wikipedia.WithAPIURL(cfg.Wikipedia.APIURL),
		wikipedia.WithTimeout(cfg.Wikipedia.Timeout),
	)
}

// ProvidePageViewProcessor creates the ingestion backend router.
func ProvidePageViewProcessor(
	pub repository.Publisher,
	store repository.SeriesStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PageViewProcessor {
	return usecase.NewPageViewProcessor(pub, store, metrics, cfg.Backend.Type)
}

// ProvidePageViewCollector creates the collector with its ingest pipeline.
func ProvidePageViewCollector(
	source repository.PageViewSource,
	processor *usecase.PageViewProcessor,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.PageViewCollector {
	pipe := mid.NewIngestPipeline(processor, metrics,
		mid.WithMinGap(time.Minute),
		mid.WithBufferSize(100),
	)
	return usecase.NewPageViewCollector(
		source,
		processor,
		metrics,
		pipe,
		cfg.Wikipedia.Titles,
		cfg.Wikipedia.FetchInterval,
		cfg.Wikipedia.MaxRPS,
	)
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaPageViewsHandler registers the handler for the page-views topic.
func ProvideKafkaPageViewsHandler(
	store repository.SeriesStore,
	metrics repository.Metrics,
	cfg *config.Config,
) *usecase.KafkaPageViewsHandler {
	return usecase.NewKafkaPageViewsHandler(store, metrics, cfg.Kafka.Topic)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.PageViewCollector,
	processor *usecase.PageViewProcessor,
	svc *usecase.ForecastService,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPageViewsHandler,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, svc, consumer, kh, producer, chClient)
	app.Proc = processor
	return app
}
