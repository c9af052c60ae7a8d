//go:build wireinject
// +build wireinject

package di

import (
	"WikiSeer/pkg/config"
	"WikiSeer/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideS3Client,

		// Repositories
		ProvideSeriesStore,
		ProvidePublisher,
		ProvideArtifactStore,
		ProvideWikipediaSource,

		// Model loading
		ProvideArtifactLoader,
		ProvideModelCache,

		// Use cases
		ProvideForecastService,
		ProvidePageViewProcessor,
		ProvidePageViewCollector,
		ProvideKafkaPageViewsHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
