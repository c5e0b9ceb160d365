package di

import (
	"fmt"

	"SigPulse/internal/domain/repository"
	"SigPulse/internal/handler/api"
	internalrepo "SigPulse/internal/repository"
	"SigPulse/internal/service/advisory"
	"SigPulse/internal/service/indicator"
	"SigPulse/internal/service/marketdata"
	"SigPulse/internal/service/pacing"
	"SigPulse/internal/usecase"
	"SigPulse/pkg/cache"
	pkgch "SigPulse/pkg/clickhouse"
	"SigPulse/pkg/config"
	xhttp "SigPulse/pkg/http"
	pkgkafka "SigPulse/pkg/kafka"
	applogger "SigPulse/pkg/logger"
	"SigPulse/pkg/metrics"
	"SigPulse/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache creates the cache backend, memory or Redis.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Cache.Backend == "redis" {
		c, err := cache.NewRedisCache(
			cache.WithRedisAddr(cfg.Cache.Redis.Addr),
			cache.WithRedisPassword(cfg.Cache.Redis.Password),
			cache.WithRedisDB(cfg.Cache.Redis.DB),
			cache.WithRedisPrefix(cfg.Cache.Redis.Prefix),
		)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		return c, nil
	}
	return cache.NewMemoryCache(
		cache.WithMemoryMaxSize(cfg.Cache.CandleMaxEntries + cfg.Cache.IndicatorMaxEntries),
	), nil
}

// ProvideSources builds the candle sources in priority order.
func ProvideSources(cfg *config.Config, l *applogger.Logger) []repository.CandleSource {
	client := xhttp.NewClient(xhttp.WithTimeout(cfg.Engine.SourceTimeout))

	var sources []repository.CandleSource
	if cfg.Sources.TwelveData.APIKey != "" {
		sources = append(sources, marketdata.NewTwelveDataSource(client, l, cfg.Sources.TwelveData.BaseURL, cfg.Sources.TwelveData.APIKey))
	}
	if cfg.Sources.AlphaVantage.APIKey != "" {
		sources = append(sources, marketdata.NewAlphaVantageSource(client, l, cfg.Sources.AlphaVantage.BaseURL, cfg.Sources.AlphaVantage.APIKey))
	}
	// Binance needs no key and closes the fallback chain.
	sources = append(sources, marketdata.NewBinanceSource(client, l, cfg.Sources.Binance.BaseURL, cfg.Sources.Binance.ProxySymbol))
	return sources
}

// ProvideFetcher creates the candle fetcher.
func ProvideFetcher(sources []repository.CandleSource, c cache.Service, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *marketdata.Fetcher {
	return marketdata.NewFetcher(sources, c, m, l, marketdata.FetcherConfig{
		Mode:          marketdata.FetchMode(cfg.Engine.FetchMode),
		SourceTimeout: cfg.Engine.SourceTimeout,
		Attempts:      cfg.Engine.FetchAttempts,
		TTLVolatile:   cfg.Cache.TTLVolatile,
		TTLNormal:     cfg.Cache.TTLNormal,
		TTLCalm:       cfg.Cache.TTLCalm,
		HighVolPct:    cfg.Cache.HighVolPct,
		LowVolPct:     cfg.Cache.LowVolPct,
	})
}

// ProvideIndicatorEngine creates the indicator engine.
func ProvideIndicatorEngine(c cache.Service, m repository.Metrics, l *applogger.Logger, cfg *config.Config) *indicator.Engine {
	return indicator.NewEngine(c, m, l, cfg.Cache.IndicatorTTL)
}

// ProvideSettings seeds the runtime tunables.
func ProvideSettings(cfg *config.Config, l *applogger.Logger) *usecase.Settings {
	return usecase.NewSettings(usecase.TunablesFromConfig(cfg), l)
}

// ProvideScorer creates the technical scorer.
func ProvideScorer(settings *usecase.Settings, l *applogger.Logger) *usecase.Scorer {
	return usecase.NewScorer(settings, l)
}

// ProvideDecider creates the decision stage.
func ProvideDecider(settings *usecase.Settings, l *applogger.Logger, cfg *config.Config) *usecase.Decider {
	return usecase.NewDecider(settings, usecase.TradingWindow{
		Enabled:   cfg.Engine.TradingHoursEnabled,
		StartHour: cfg.Engine.TradingStartHour,
		EndHour:   cfg.Engine.TradingEndHour,
	}, l)
}

// ProvideLimiter creates the hourly pacing limiter.
func ProvideLimiter(cfg *config.Config) *pacing.Limiter {
	return pacing.NewLimiter(cfg.Pacing.MaxSignalsPerHour)
}

// ProvideAdvisor creates the advisory client, or nil when disabled.
func ProvideAdvisor(cfg *config.Config, l *applogger.Logger) repository.Advisor {
	if !cfg.Advisory.Enabled {
		return nil
	}
	return advisory.NewClient(l, cfg.Advisory.URL, cfg.Advisory.Timeout)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Kafka.WriteTimeout, cfg.Kafka.ReadTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the Kafka signal publisher, or nil when disabled.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.Topic)
}

// ProvideClickHouseClient creates a ClickHouse client, or nil when disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideStore creates the ClickHouse signal store, or nil when disabled.
func ProvideStore(client *pkgch.Client) repository.SignalStore {
	if client == nil {
		return nil
	}
	return internalrepo.NewCHSignalStore(client, "signals")
}

// ProvideEvaluator wires the evaluation pipeline.
func ProvideEvaluator(
	fetcher *marketdata.Fetcher,
	engine *indicator.Engine,
	scorer *usecase.Scorer,
	decider *usecase.Decider,
	settings *usecase.Settings,
	advisor repository.Advisor,
	limiter *pacing.Limiter,
	publisher repository.SignalPublisher,
	store repository.SignalStore,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.Evaluator {
	return usecase.NewEvaluator(fetcher, engine, scorer, decider, settings, advisor, limiter, publisher, store, m, l, usecase.EvaluatorConfig{
		Pair:             cfg.Engine.Pair,
		Interval:         repository.NormalizeInterval(cfg.Engine.Interval),
		Lookback:         cfg.Engine.LookbackWindow,
		AnalysisInterval: cfg.Engine.AnalysisInterval,
		AdvisoryJoinWait: cfg.Advisory.JoinWait,
	})
}

// ProvideStream creates the websocket fan-out hub.
func ProvideStream(l *applogger.Logger) *api.SignalStream {
	return api.NewSignalStream(l)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(l *applogger.Logger, ev *usecase.Evaluator, settings *usecase.Settings, store repository.SignalStore, stream *api.SignalStream, cfg *config.Config) xhttp.Handler {
	return api.NewSignalsHandler(l, ev, settings, store, stream, cfg.Engine.Pair)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	evaluator *usecase.Evaluator,
	handler xhttp.Handler,
	stream *api.SignalStream,
	publisher repository.SignalPublisher,
	store repository.SignalStore,
	chClient *pkgch.Client,
	cacheSvc cache.Service,
) *server.App {
	return server.New(cfg, l, evaluator, handler, stream, publisher, store, chClient, cacheSvc)
}
