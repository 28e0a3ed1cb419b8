//go:build wireinject
// +build wireinject

package di

import (
	"FXAdvisor/pkg/config"
	"FXAdvisor/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideCache,

		// Repositories
		ProvideMarketStore,
		ProvideNewsStore,
		ProvideAuditStore,
		ProvideModelRegistry,
		ProvideTickStorage,
		ProvideTickPublisher,
		ProvideNewsPublisher,
		ProvideRateStream,

		// Domain services
		ProvideFeatureBuilder,
		ProvideBaseline,
		ProvideRemotePredictor,
		ProvideSentimentAggregator,
		ProvideFusionEngine,
		ProvideSentimentAnalyzer,
		ProvideNewsSources,

		// Use cases
		ProvideTickProcessor,
		ProvideRateCollector,
		ProvideNewsIngester,
		ProvideFeaturizer,
		ProvideForecastUseCase,
		ProvideRecentUseCase,
		ProvideKafkaHandlers,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
