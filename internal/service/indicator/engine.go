package indicator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	"SigPulse/pkg/cache"
	applogger "SigPulse/pkg/logger"
)

// ErrInsufficientHistory means the candle window is too short for the
// full indicator set.
var ErrInsufficientHistory = errors.New("insufficient candle history")

// Engine computes the indicator bundle for a candle window, memoizing
// results per window version so repeated evaluations of the same data are
// free.
type Engine struct {
	cache   cache.Service
	metrics repository.Metrics
	logger  *applogger.Logger
	ttl     time.Duration
}

// NewEngine creates an indicator engine backed by the given cache.
func NewEngine(c cache.Service, m repository.Metrics, l *applogger.Logger, ttl time.Duration) *Engine {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Engine{cache: c, metrics: m, logger: l, ttl: ttl}
}

// Compute returns the indicator bundle for the series. Identical data
// windows hit the memo cache; the cache key is the series version, so a
// new bar always recomputes.
func (e *Engine) Compute(ctx context.Context, series *models.CandleSeries) (*models.IndicatorBundle, error) {
	if series.Len() < MinHistory {
		return nil, fmt.Errorf("%w: have %d candles, need %d", ErrInsufficientHistory, series.Len(), MinHistory)
	}

	key := "indicators:" + series.Version()
	var cached models.IndicatorBundle
	if err := e.cache.Get(ctx, key, &cached); err == nil {
		e.metrics.RecordCacheHit("indicators")
		return &cached, nil
	}
	e.metrics.RecordCacheMiss("indicators")

	start := time.Now()
	bundle := e.compute(series)
	e.metrics.RecordStageLatency("indicators", time.Since(start).Seconds())

	if err := e.cache.Set(ctx, key, bundle, e.ttl); err != nil {
		e.logger.Warn("indicator cache write failed", applogger.Error(err))
	}
	return bundle, nil
}

func (e *Engine) compute(series *models.CandleSeries) *models.IndicatorBundle {
	closes := series.Closes()
	line, signal, diff := macd(closes)
	k, d := stochastic(series.Candles, StochKPeriod, StochDPeriod)

	return &models.IndicatorBundle{
		RSI:          rsi(closes, RSIPeriod),
		MACDLine:     line,
		MACDSignal:   signal,
		MACDDiff:     diff,
		BollingerPct: bollingerPct(closes, BollingerPeriod, BollingerStdDev),
		ATR:          atr(series.Candles, ATRPeriod),
		ADX:          adx(series.Candles, ADXPeriod),
		StochK:       k,
		StochD:       d,
	}
}
