package di

import (
	"context"
	"fmt"
	"time"

	"FXAdvisor/internal/domain/repository"
	"FXAdvisor/internal/domain/service"
	"FXAdvisor/internal/handler/api"
	mid "FXAdvisor/internal/middleware"
	internalrepo "FXAdvisor/internal/repository"
	"FXAdvisor/internal/service/newsfeed"
	"FXAdvisor/internal/service/ratelimit"
	"FXAdvisor/internal/service/ratestream"
	"FXAdvisor/internal/services/features"
	"FXAdvisor/internal/services/fusion"
	"FXAdvisor/internal/services/llm"
	"FXAdvisor/internal/services/predict"
	"FXAdvisor/internal/services/sentiment"
	"FXAdvisor/internal/usecase"
	"FXAdvisor/pkg/cache"
	pkgch "FXAdvisor/pkg/clickhouse"
	"FXAdvisor/pkg/config"
	xhttp "FXAdvisor/pkg/http"
	pkgkafka "FXAdvisor/pkg/kafka"
	"FXAdvisor/pkg/logger"
	"FXAdvisor/pkg/metrics"
	"FXAdvisor/pkg/server"
)

// fx schema, applied idempotently on startup.
var schemaStatements = []string{
	"CREATE DATABASE IF NOT EXISTS fx",
	`CREATE TABLE IF NOT EXISTS fx.bars_1m (
		ts DateTime, pair LowCardinality(String), mid Float64
	) ENGINE = ReplacingMergeTree ORDER BY (pair, ts)`,
	`CREATE TABLE IF NOT EXISTS fx.macro_events (
		ts DateTime, currency LowCardinality(String), importance LowCardinality(String)
	) ENGINE = MergeTree ORDER BY (currency, ts)`,
	`CREATE TABLE IF NOT EXISTS fx.features_1m (
		ts DateTime, pair LowCardinality(String),
		ret_1m Float64, ret_5m Float64, ret_15m Float64,
		vol_5m Float64, vol_15m Float64,
		sma_5 Float64, sma_15 Float64, momentum_15m Float64,
		minutes_to_event Int32, is_high_importance Int8
	) ENGINE = ReplacingMergeTree ORDER BY (pair, ts)`,
	`CREATE TABLE IF NOT EXISTS fx.news_items (
		id String, ts DateTime, source LowCardinality(String),
		headline String, content String, url String, author String
	) ENGINE = ReplacingMergeTree ORDER BY id`,
	`CREATE TABLE IF NOT EXISTS fx.sentiment_scores (
		news_id String, ts DateTime, model LowCardinality(String),
		sentiment_score Float64,
		sentiment_usd Float64, sentiment_inr Float64, sentiment_eur Float64,
		sentiment_gbp Float64, sentiment_jpy Float64,
		currencies Array(String),
		confidence Float64, impact_score Float64,
		urgency LowCardinality(String), explanation String
	) ENGINE = MergeTree ORDER BY (ts, news_id)`,
	`CREATE TABLE IF NOT EXISTS fx.decisions (
		ts DateTime, pair LowCardinality(String), horizon LowCardinality(String),
		prior_prob_up Float64, posterior_prob_up Float64, expected_delta_bps Float64,
		range_p10 Float64, range_p90 Float64,
		shock_level LowCardinality(String), event_impact Float64,
		recommendation LowCardinality(String), explanation String,
		policy_version LowCardinality(String)
	) ENGINE = MergeTree ORDER BY (pair, ts)`,
	`CREATE TABLE IF NOT EXISTS fx.hybrid_predictions (
		ts DateTime, pair LowCardinality(String), horizon LowCardinality(String),
		prob_up_ml Float64, expected_delta_ml Float64, ml_model_id LowCardinality(String),
		sentiment_score Float64, sentiment_confidence Float64, news_impact Float64,
		news_summary String,
		prob_up_hybrid Float64, expected_delta_hybrid Float64,
		fusion_weight_ml Float64, fusion_weight_llm Float64,
		recommendation LowCardinality(String), explanation String,
		processing_time_ms Int64
	) ENGINE = MergeTree ORDER BY (pair, ts)`,
	`CREATE TABLE IF NOT EXISTS fx.models (
		model_id String, horizon LowCardinality(String), created_at DateTime
	) ENGINE = MergeTree ORDER BY created_at`,
}

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates the Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and applies the schema.
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, schemaStatements); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers
// are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if len(cfg.Kafka.Brokers) == 0 || cfg.Kafka.Consumer.GroupID == "" {
		return nil, nil
	}
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

// ProvideCache picks Redis when enabled, falling back to in-process memory.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Redis.Enabled {
		host, port := splitHostPort(cfg.Redis.Addr)
		return cache.NewRedisCache(
			cache.WithRedisHost(host),
			cache.WithRedisPort(port),
			cache.WithRedisPassword(cfg.Redis.Password),
			cache.WithRedisDB(cfg.Redis.DB),
		)
	}
	return cache.NewMemoryCache(), nil
}

func splitHostPort(addr string) (string, int) {
	host, port := addr, 6379
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			host = addr[:i]
			fmt.Sscanf(addr[i+1:], "%d", &port)
			break
		}
	}
	return host, port
}

// ProvideMarketStore creates the ClickHouse market store.
func ProvideMarketStore(chClient *pkgch.Client) repository.MarketStore {
	return internalrepo.NewClickHouseMarketStore(chClient.DB())
}

// ProvideNewsStore creates the ClickHouse news store.
func ProvideNewsStore(chClient *pkgch.Client) repository.NewsStore {
	return internalrepo.NewClickHouseNewsStore(chClient.DB())
}

// ProvideAuditStore creates the ClickHouse audit store.
func ProvideAuditStore(chClient *pkgch.Client) repository.AuditStore {
	return internalrepo.NewClickHouseAuditStore(chClient.DB())
}

// ProvideModelRegistry creates the ClickHouse model registry.
func ProvideModelRegistry(chClient *pkgch.Client) repository.ModelRegistry {
	return internalrepo.NewClickHouseModelRegistry(chClient.DB())
}

// ProvideTickStorage creates ClickHouse tick storage.
func ProvideTickStorage(chClient *pkgch.Client) repository.TickStorage {
	return internalrepo.NewClickHouseTickStorage(chClient.DB())
}

// ProvideTickPublisher creates the Kafka tick publisher.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TickPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaTickPublisher(producer, cfg.Kafka.TicksTopic)
}

// ProvideNewsPublisher creates the Kafka news publisher.
func ProvideNewsPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.NewsPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaNewsPublisher(producer, cfg.Kafka.NewsTopic)
}

// ProvideRateStream creates the websocket quote stream, or nil when disabled.
func ProvideRateStream(cfg *config.Config, log *logger.Logger) repository.RateStream {
	if !cfg.RateStream.Enabled {
		return nil
	}
	return ratestream.New(
		cfg.RateStream.APIKey,
		cfg.RateStream.WebSocketURL,
		cfg.RateStream.Pairs,
		cfg.RateStream.ReconnectDelay,
		cfg.RateStream.PingInterval,
		log,
	)
}

// ProvideTickProcessor creates the tick processor use case.
func ProvideTickProcessor(
	pub repository.TickPublisher,
	store repository.TickStorage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.TickProcessor {
	return usecase.NewTickProcessor(pub, store, m, cfg.RateStream.Backend)
}

// ProvideRateCollector creates the quote collector, or nil when the
// stream is disabled.
func ProvideRateCollector(
	stream repository.RateStream,
	proc *usecase.TickProcessor,
	m repository.Metrics,
) *usecase.RateCollector {
	if stream == nil {
		return nil
	}
	pipe := mid.NewTickPipeline(proc, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewRateCollector(stream, proc, m, pipe)
}

// ProvideFeatureBuilder creates the feature builder.
func ProvideFeatureBuilder(store repository.MarketStore, cfg *config.Config) *features.Builder {
	return features.NewBuilder(store, time.Duration(cfg.Features.EventHorizonHours)*time.Hour)
}

// ProvideBaseline creates the rolling-mean baseline predictor.
func ProvideBaseline() *predict.Baseline {
	return predict.NewBaseline()
}

// ProvideRemotePredictor creates the model-service predictor, or nil when
// no service is configured.
func ProvideRemotePredictor(
	registry repository.ModelRegistry,
	cfg *config.Config,
	log *logger.Logger,
) *predict.Remote {
	if cfg.Models.ServiceURL == "" {
		return nil
	}
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Models.Timeout))
	return predict.NewRemote(client, registry, log, cfg.Models.ServiceURL, cfg.Models.DefaultModelID)
}

// ProvideSentimentAggregator creates the news sentiment aggregator.
func ProvideSentimentAggregator(
	store repository.NewsStore,
	m repository.Metrics,
	cfg *config.Config,
	log *logger.Logger,
) *sentiment.Aggregator {
	return sentiment.NewAggregator(store, sentiment.NewCache(cfg.Hybrid.CacheTTL), m, log)
}

// ProvideFusionEngine creates the ML/news fusion engine.
func ProvideFusionEngine(cfg *config.Config, log *logger.Logger) *fusion.Engine {
	return fusion.NewEngine(
		cfg.Hybrid.MaxLLMWeight,
		cfg.Hybrid.MinConfidence,
		cfg.Hybrid.HighImpactThreshold,
		log,
	)
}

// ProvideSentimentAnalyzer creates the LLM sentiment client.
func ProvideSentimentAnalyzer(cfg *config.Config, log *logger.Logger) service.SentimentAnalyzer {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.LLM.Timeout))
	return llm.NewClient(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		MaxRPS:      cfg.LLM.MaxRPS,
	}, client, ratelimit.New(), log)
}

// ProvideNewsSources builds the configured feed clients.
func ProvideNewsSources(cfg *config.Config, log *logger.Logger) []service.NewsSource {
	client := xhttp.NewClient(xhttp.WithTimeout(15 * time.Second))
	var sources []service.NewsSource
	for _, s := range cfg.News.Sources {
		switch s.Type {
		case "rss":
			sources = append(sources, newsfeed.NewRSSSource(s.Name, s.URL, client, log))
		case "json":
			sources = append(sources, newsfeed.NewJSONSource(s.Name, s.URL, s.APIKey, client, log))
		}
	}
	return sources
}

// ProvideNewsIngester creates the scheduled news fetcher.
func ProvideNewsIngester(
	sources []service.NewsSource,
	store repository.NewsStore,
	pub repository.NewsPublisher,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.NewsIngester {
	if !cfg.News.Enabled {
		return nil
	}
	return usecase.NewNewsIngester(sources, store, pub, m, log,
		time.Duration(cfg.News.LookbackHours)*time.Hour)
}

// ProvideFeaturizer creates the scheduled feature materializer.
func ProvideFeaturizer(
	builder *features.Builder,
	store repository.MarketStore,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.Featurizer {
	if len(cfg.Features.Pairs) == 0 {
		return nil
	}
	return usecase.NewFeaturizer(builder, store, m, log,
		cfg.Features.Pairs,
		time.Duration(cfg.Features.LookbackMinutes)*time.Minute)
}

// ProvideForecastUseCase creates the forecast pipeline.
func ProvideForecastUseCase(
	builder *features.Builder,
	baseline *predict.Baseline,
	remote *predict.Remote,
	agg *sentiment.Aggregator,
	engine *fusion.Engine,
	audit repository.AuditStore,
	m repository.Metrics,
	log *logger.Logger,
	cfg *config.Config,
) *usecase.ForecastUseCase {
	return usecase.NewForecastUseCase(builder, baseline, remote, agg, engine, audit, m, log,
		usecase.ForecastDefaults{
			Policy:            cfg.Decision.Policy,
			SpreadBps:         cfg.Decision.SpreadBps,
			ProbThreshold:     cfg.Decision.ProbThreshold,
			EmbargoMinutes:    cfg.Decision.EmbargoMinutes,
			HybridEnabled:     cfg.Hybrid.Enabled,
			SentimentLookback: time.Duration(cfg.Hybrid.LookbackHours) * time.Hour,
			FeatureLookback:   time.Duration(cfg.Features.LookbackMinutes) * time.Minute,
		})
}

// ProvideRecentUseCase creates the read-only inspection use case.
func ProvideRecentUseCase(
	market repository.MarketStore,
	news repository.NewsStore,
	c cache.Service,
) *usecase.RecentUseCase {
	return usecase.NewRecentUseCase(market, news, c)
}

// ProvideKafkaHandlers registers consumer handlers for the enabled topics.
func ProvideKafkaHandlers(
	storage repository.TickStorage,
	analyzer service.SentimentAnalyzer,
	news repository.NewsStore,
	m repository.Metrics,
	cfg *config.Config,
) []pkgkafka.MessageHandler {
	var handlers []pkgkafka.MessageHandler
	if cfg.RateStream.Backend == "kafka" && cfg.Kafka.TicksTopic != "" {
		handlers = append(handlers, usecase.NewKafkaTicksHandler(cfg.Kafka.TicksTopic, storage, m))
	}
	if cfg.News.Enabled && cfg.Kafka.NewsTopic != "" {
		handlers = append(handlers, usecase.NewKafkaNewsHandler(cfg.Kafka.NewsTopic, analyzer, news, m))
	}
	return handlers
}

// ProvideHTTPHandler creates the Echo route handler.
func ProvideHTTPHandler(
	log *logger.Logger,
	forecast *usecase.ForecastUseCase,
	recent *usecase.RecentUseCase,
	storage repository.TickStorage,
	cfg *config.Config,
) xhttp.Handler {
	return api.NewForecastEchoHandler(log, forecast, recent, storage, cfg.APIKey)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	collector *usecase.RateCollector,
	consumer *pkgkafka.Consumer,
	handlers []pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	httpHandler xhttp.Handler,
	featurizer *usecase.Featurizer,
	ingester *usecase.NewsIngester,
) *server.App {
	app := server.New(cfg, log, collector, consumer, handlers, chClient, httpHandler, featurizer, ingester)
	if collector != nil {
		app.TickProc = collector.Processor()
	}
	return app
}
