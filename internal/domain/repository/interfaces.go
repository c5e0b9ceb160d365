package repository

import (
	"context"

	"SigPulse/internal/domain/models"
)

// CandleSource fetches a candle window from one market data provider.
type CandleSource interface {
	Name() string
	Fetch(ctx context.Context, pair string, interval Interval, lookback int) (*models.CandleSeries, error)
}

// SignalPublisher delivers actionable signals downstream.
type SignalPublisher interface {
	Publish(ctx context.Context, s *models.Signal) error
	Close() error
}

// SignalStore persists evaluation results for later inspection.
type SignalStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, s *models.Signal) error
	Recent(ctx context.Context, pair string, limit int) ([]*models.Signal, error)
	Health(ctx context.Context) error
	Close() error
}

// Advisor scores a market snapshot through an external model.
type Advisor interface {
	Score(ctx context.Context, snap *models.MarketSnapshot) (float64, string, error)
}

// Metrics records operational counters and latencies.
type Metrics interface {
	RecordSourceCall(source string)
	RecordSourceError(source, kind string)
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordSignal(action string)
	RecordCycleSkipped()
	RecordPacingRejection()
	RecordFinalScore(pair string, score float64)
	RecordStageLatency(stage string, seconds float64)
}

// NopMetrics discards all observations. Useful in tests.
type NopMetrics struct{}

func (NopMetrics) RecordSourceCall(string)            {}
func (NopMetrics) RecordSourceError(string, string)   {}
func (NopMetrics) RecordCacheHit(string)              {}
func (NopMetrics) RecordCacheMiss(string)             {}
func (NopMetrics) RecordSignal(string)                {}
func (NopMetrics) RecordCycleSkipped()                {}
func (NopMetrics) RecordPacingRejection()             {}
func (NopMetrics) RecordFinalScore(string, float64)   {}
func (NopMetrics) RecordStageLatency(string, float64) {}
