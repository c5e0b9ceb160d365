//go:build wireinject
// +build wireinject

package di

import (
	"SigPulse/pkg/config"
	"SigPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideCache,

		// Market data
		ProvideSources,
		ProvideFetcher,
		ProvideIndicatorEngine,

		// Scoring and decision
		ProvideSettings,
		ProvideScorer,
		ProvideDecider,
		ProvideLimiter,
		ProvideAdvisor,

		// Delivery
		ProvideKafkaProducer,
		ProvidePublisher,
		ProvideClickHouseClient,
		ProvideStore,

		// Pipeline and surface
		ProvideEvaluator,
		ProvideStream,
		ProvideHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
