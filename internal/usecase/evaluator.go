package usecase

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	"SigPulse/internal/service/indicator"
	"SigPulse/internal/service/marketdata"
	"SigPulse/internal/service/pacing"
	applogger "SigPulse/pkg/logger"
)

// EvaluatorConfig holds the evaluation loop parameters.
type EvaluatorConfig struct {
	Pair             string
	Interval         repository.Interval
	Lookback         int
	AnalysisInterval time.Duration
	AdvisoryJoinWait time.Duration
}

// Evaluator runs the full pipeline: fetch, indicators, trend, scoring,
// decision, delivery. It serves both the periodic loop and on-demand
// API evaluations; concurrent on-demand calls are safe.
type Evaluator struct {
	fetcher   *marketdata.Fetcher
	engine    *indicator.Engine
	scorer    *Scorer
	decider   *Decider
	settings  *Settings
	advisor   repository.Advisor
	limiter   *pacing.Limiter
	publisher repository.SignalPublisher
	store     repository.SignalStore
	metrics   repository.Metrics
	logger    *applogger.Logger
	cfg       EvaluatorConfig

	running   atomic.Bool
	latest    atomic.Pointer[models.Analysis]
	broadcast atomic.Pointer[func(*models.Analysis)]

	statsMu sync.Mutex
	stats   models.EngineStats

	done chan struct{}
}

// NewEvaluator wires the pipeline. advisor, publisher and store may be nil
// when the corresponding integration is disabled.
func NewEvaluator(
	fetcher *marketdata.Fetcher,
	engine *indicator.Engine,
	scorer *Scorer,
	decider *Decider,
	settings *Settings,
	advisor repository.Advisor,
	limiter *pacing.Limiter,
	publisher repository.SignalPublisher,
	store repository.SignalStore,
	metrics repository.Metrics,
	l *applogger.Logger,
	cfg EvaluatorConfig,
) *Evaluator {
	if cfg.AnalysisInterval <= 0 {
		cfg.AnalysisInterval = 2 * time.Minute
	}
	if cfg.AdvisoryJoinWait <= 0 {
		cfg.AdvisoryJoinWait = 500 * time.Millisecond
	}
	return &Evaluator{
		fetcher:   fetcher,
		engine:    engine,
		scorer:    scorer,
		decider:   decider,
		settings:  settings,
		advisor:   advisor,
		limiter:   limiter,
		publisher: publisher,
		store:     store,
		metrics:   metrics,
		logger:    l,
		cfg:       cfg,
		stats:     models.EngineStats{StartedAt: time.Now()},
		done:      make(chan struct{}),
	}
}

// SetBroadcast installs a callback invoked with every completed analysis.
func (e *Evaluator) SetBroadcast(fn func(*models.Analysis)) {
	e.broadcast.Store(&fn)
}

// Latest returns the most recent analysis, or nil before the first run.
func (e *Evaluator) Latest() *models.Analysis {
	return e.latest.Load()
}

// Stats returns a copy of the cumulative counters.
func (e *Evaluator) Stats() models.EngineStats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// Start runs the periodic evaluation loop until ctx is cancelled. A tick
// that fires while the previous cycle is still running is skipped, never
// queued.
func (e *Evaluator) Start(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.AnalysisInterval)
	defer ticker.Stop()
	defer close(e.done)

	e.logger.Info("evaluation loop started",
		applogger.String("pair", e.cfg.Pair),
		applogger.Duration("interval", e.cfg.AnalysisInterval),
	)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("evaluation loop stopped")
			return nil
		case <-ticker.C:
			if !e.running.CompareAndSwap(false, true) {
				e.metrics.RecordCycleSkipped()
				e.statsMu.Lock()
				e.stats.SkippedCycles++
				e.statsMu.Unlock()
				e.logger.Warn("evaluation cycle skipped, previous still running")
				continue
			}
			go func() {
				defer e.running.Store(false)
				if _, err := e.Evaluate(ctx, e.cfg.Pair, e.cfg.Interval, false); err != nil {
					e.logger.Error("evaluation cycle failed", applogger.Error(err))
				}
			}()
		}
	}
}

// Wait blocks until the loop has exited.
func (e *Evaluator) Wait() {
	<-e.done
}

// Evaluate runs one full evaluation of the pair and returns the analysis.
func (e *Evaluator) Evaluate(ctx context.Context, pair string, interval repository.Interval, fresh bool) (*models.Analysis, error) {
	start := time.Now()

	series, err := e.fetcher.Fetch(ctx, pair, interval, e.cfg.Lookback, fresh)
	if err != nil {
		return nil, err
	}

	bundle, err := e.engine.Compute(ctx, series)
	if err != nil {
		return nil, err
	}

	t := e.settings.Current()
	trendCfg := indicator.DefaultTrendConfig()
	trendCfg.ADXFloor = t.ADXTrendFloor
	trendCfg.MACDBand = t.MACDStrongThreshold
	trend := indicator.DetectTrend(bundle, trendCfg)

	momentumCfg := indicator.DefaultMomentumConfig()
	if t.MomentumLookback > 0 {
		momentumCfg.Lookback = t.MomentumLookback
	}
	if t.MomentumDeadBandPct > 0 {
		momentumCfg.DeadBandPct = t.MomentumDeadBandPct
	}
	momentum := indicator.DetectMomentum(series, momentumCfg)

	price := series.LastClose()

	// The advisory call overlaps with local scoring; its answer is picked
	// up afterwards if it arrived in time.
	advisoryCh := e.askAdvisory(ctx, pair, price, bundle, trend, momentum)

	result := e.scorer.Score(series, bundle, trend, momentum)

	advScore, advisoryUsed := e.joinAdvisory(ctx, advisoryCh)
	result = e.scorer.Blend(result, advScore, advisoryUsed)

	sig, result := e.decider.Decide(pair, price, result, bundle, momentum, series.Source)

	if e.limiter != nil {
		e.limiter.SetMax(t.MaxSignalsPerHour)
	}
	if sig.Actionable() && e.limiter != nil && !e.limiter.Allow() {
		e.metrics.RecordPacingRejection()
		e.statsMu.Lock()
		e.stats.PacingRejected++
		e.statsMu.Unlock()
		e.logger.Warn("signal dropped by pacing limit",
			applogger.String("pair", pair),
			applogger.String("action", string(sig.Action)),
		)
		sig.Action = models.ActionNoSignal
		sig.Reason = "hourly signal limit reached"
	}

	analysis := &models.Analysis{
		Pair:       pair,
		Interval:   string(interval),
		Indicators: *bundle,
		Trend:      trend,
		Momentum:   momentum,
		Score:      result,
		Signal:     *sig,
		ElapsedMs:  time.Since(start).Milliseconds(),
	}

	e.finish(ctx, analysis, sig)
	return analysis, nil
}

func (e *Evaluator) askAdvisory(ctx context.Context, pair string, price float64, bundle *models.IndicatorBundle, trend models.TrendState, momentum models.MomentumState) <-chan advisoryAnswer {
	if e.advisor == nil {
		return nil
	}
	ch := make(chan advisoryAnswer, 1)
	snap := &models.MarketSnapshot{
		Pair:      pair,
		Price:     price,
		Trend:     trend,
		Momentum:  momentum,
		Bundle:    *bundle,
		Timestamp: time.Now(),
	}
	go func() {
		score, rationale, err := e.advisor.Score(ctx, snap)
		ch <- advisoryAnswer{score: score, rationale: rationale, err: err}
	}()
	return ch
}

type advisoryAnswer struct {
	score     float64
	rationale string
	err       error
}

// joinAdvisory waits briefly for the advisory answer. A slow or failed
// advisory never blocks the decision; the engine proceeds on technicals.
func (e *Evaluator) joinAdvisory(ctx context.Context, ch <-chan advisoryAnswer) (float64, bool) {
	if ch == nil {
		return 0, false
	}
	timer := time.NewTimer(e.cfg.AdvisoryJoinWait)
	defer timer.Stop()

	select {
	case a := <-ch:
		if a.err != nil {
			if errors.Is(a.err, context.Canceled) {
				return 0, false
			}
			e.logger.Warn("advisory unavailable", applogger.Error(a.err))
			return 0, false
		}
		return a.score, true
	case <-timer.C:
		e.logger.Warn("advisory answer missed the join window")
		return 0, false
	case <-ctx.Done():
		return 0, false
	}
}

// finish records metrics and stats, remembers the latest analysis, then
// hands the signal to delivery.
func (e *Evaluator) finish(ctx context.Context, analysis *models.Analysis, sig *models.Signal) {
	e.metrics.RecordSignal(string(sig.Action))
	e.metrics.RecordFinalScore(analysis.Pair, analysis.Score.FinalScore)
	e.metrics.RecordStageLatency("evaluate", float64(analysis.ElapsedMs)/1000)

	e.statsMu.Lock()
	e.stats.Evaluations++
	switch sig.Action {
	case models.ActionBuy:
		e.stats.Buys++
	case models.ActionSell:
		e.stats.Sells++
	default:
		e.stats.NoSignals++
	}
	e.stats.LastEvaluation = sig.Timestamp
	e.stats.LastAction = sig.Action
	e.statsMu.Unlock()

	e.latest.Store(analysis)

	e.logger.Info("evaluation complete",
		applogger.String("pair", analysis.Pair),
		applogger.String("action", string(sig.Action)),
		applogger.Float64("score", analysis.Score.FinalScore),
		applogger.Float64("confidence", analysis.Score.Confidence),
		applogger.Int64("elapsed_ms", analysis.ElapsedMs),
	)

	if fn := e.broadcast.Load(); fn != nil {
		(*fn)(analysis)
	}

	if e.store != nil {
		if err := e.store.Store(ctx, sig); err != nil {
			e.logger.Warn("signal store failed", applogger.Error(err))
		}
	}
	if sig.Actionable() && e.publisher != nil {
		if err := e.publisher.Publish(ctx, sig); err != nil {
			e.logger.Error("signal publish failed", applogger.Error(err))
		}
	}
}
