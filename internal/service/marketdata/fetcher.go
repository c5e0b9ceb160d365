package marketdata

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	"SigPulse/pkg/cache"
	applogger "SigPulse/pkg/logger"
)

// FetchMode selects how configured sources are tried.
type FetchMode string

const (
	// ModeSequential tries sources one by one in ranked order.
	ModeSequential FetchMode = "sequential"
	// ModeParallel races all sources and keeps the first valid window.
	ModeParallel FetchMode = "parallel"
)

// FetcherConfig holds fetcher tuning.
type FetcherConfig struct {
	Mode          FetchMode
	SourceTimeout time.Duration
	Attempts      int
	QuotaBackoff  time.Duration

	TTLVolatile time.Duration
	TTLNormal   time.Duration
	TTLCalm     time.Duration
	HighVolPct  float64
	LowVolPct   float64
}

type sourceState struct {
	errors     int
	quotaUntil time.Time
}

// Fetcher acquires candle windows across multiple sources with caching,
// fallback and quota-aware ranking.
type Fetcher struct {
	sources []repository.CandleSource
	cache   cache.Service
	metrics repository.Metrics
	logger  *applogger.Logger
	cfg     FetcherConfig

	mu    sync.Mutex
	state map[string]*sourceState
}

// NewFetcher creates a candle fetcher over the given sources, tried in the
// given priority order.
func NewFetcher(sources []repository.CandleSource, c cache.Service, m repository.Metrics, l *applogger.Logger, cfg FetcherConfig) *Fetcher {
	if cfg.Mode == "" {
		cfg.Mode = ModeSequential
	}
	if cfg.SourceTimeout <= 0 {
		cfg.SourceTimeout = 10 * time.Second
	}
	if cfg.Attempts <= 0 {
		cfg.Attempts = 2
	}
	if cfg.QuotaBackoff <= 0 {
		cfg.QuotaBackoff = 5 * time.Minute
	}
	if cfg.TTLVolatile <= 0 {
		cfg.TTLVolatile = 30 * time.Second
	}
	if cfg.TTLNormal <= 0 {
		cfg.TTLNormal = 90 * time.Second
	}
	if cfg.TTLCalm <= 0 {
		cfg.TTLCalm = 180 * time.Second
	}
	if cfg.HighVolPct <= 0 {
		cfg.HighVolPct = 0.15
	}
	if cfg.LowVolPct <= 0 {
		cfg.LowVolPct = 0.05
	}
	return &Fetcher{
		sources: sources,
		cache:   c,
		metrics: m,
		logger:  l,
		cfg:     cfg,
		state:   make(map[string]*sourceState),
	}
}

// Fetch returns a candle window for the pair, from cache when fresh enough.
// fresh forces a refetch, bypassing the cache read.
func (f *Fetcher) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int, fresh bool) (*models.CandleSeries, error) {
	key := candleKey(pair, interval)

	if !fresh {
		if series := f.fromCache(ctx, key); series != nil {
			f.metrics.RecordCacheHit("candles")
			return series, nil
		}
		f.metrics.RecordCacheMiss("candles")
	}

	var (
		series *models.CandleSeries
		err    error
	)
	switch f.cfg.Mode {
	case ModeParallel:
		series, err = f.race(ctx, pair, interval, lookback)
	default:
		series, err = f.sequential(ctx, pair, interval, lookback)
	}
	if err != nil {
		return nil, err
	}

	f.toCache(ctx, key, series)
	return series, nil
}

// sequential walks the ranked sources, giving each a bounded number of
// attempts before falling through to the next.
func (f *Fetcher) sequential(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	var lastErr error
	for _, src := range f.ranked() {
		for attempt := 1; attempt <= f.cfg.Attempts; attempt++ {
			series, err := f.tryOnce(ctx, src, pair, interval, lookback)
			if err == nil {
				return series, nil
			}
			lastErr = err
			if errors.Is(err, ErrQuotaExceeded) {
				break // retrying a throttled source inside the window is pointless
			}
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, lastErr)
	}
	return nil, ErrNoData
}

// race launches every ranked source concurrently and returns the first
// structurally valid window, cancelling the rest.
func (f *Fetcher) race(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	type result struct {
		series *models.CandleSeries
		err    error
	}
	results := make(chan result, len(f.sources))

	ranked := f.ranked()
	for _, src := range ranked {
		go func(src repository.CandleSource) {
			series, err := f.tryOnce(raceCtx, src, pair, interval, lookback)
			results <- result{series: series, err: err}
		}(src)
	}

	var lastErr error
	for range ranked {
		select {
		case r := <-results:
			if r.err == nil {
				return r.series, nil
			}
			lastErr = r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if lastErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoData, lastErr)
	}
	return nil, ErrNoData
}

func (f *Fetcher) tryOnce(ctx context.Context, src repository.CandleSource, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, f.cfg.SourceTimeout)
	defer cancel()

	f.metrics.RecordSourceCall(src.Name())
	start := time.Now()
	series, err := src.Fetch(fetchCtx, pair, interval, lookback)
	f.metrics.RecordStageLatency("fetch_"+src.Name(), time.Since(start).Seconds())
	if err != nil {
		f.noteFailure(src.Name(), err)
		f.logger.Debug("source fetch failed",
			applogger.String("source", src.Name()),
			applogger.String("pair", pair),
			applogger.Error(err),
		)
		return nil, err
	}

	f.noteSuccess(src.Name())
	f.logger.Debug("source fetch ok",
		applogger.String("source", src.Name()),
		applogger.String("pair", pair),
		applogger.Int("candles", series.Len()),
	)
	return series, nil
}

// ranked returns sources ordered by configured priority, pushing throttled
// and repeatedly failing sources to the back.
func (f *Fetcher) ranked() []repository.CandleSource {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	out := make([]repository.CandleSource, len(f.sources))
	copy(out, f.sources)

	rank := func(name string) int {
		st := f.state[name]
		if st == nil {
			return 0
		}
		r := st.errors
		if st.quotaUntil.After(now) {
			r += 1000
		}
		return r
	}
	sort.SliceStable(out, func(i, j int) bool {
		return rank(out[i].Name()) < rank(out[j].Name())
	})
	return out
}

func (f *Fetcher) noteFailure(name string, err error) {
	kind := "error"
	if errors.Is(err, ErrQuotaExceeded) {
		kind = "quota"
	}
	f.metrics.RecordSourceError(name, kind)

	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.state[name]
	if st == nil {
		st = &sourceState{}
		f.state[name] = st
	}
	st.errors++
	if kind == "quota" {
		st.quotaUntil = time.Now().Add(f.cfg.QuotaBackoff)
	}
}

func (f *Fetcher) noteSuccess(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if st := f.state[name]; st != nil {
		st.errors = 0
	}
}

func (f *Fetcher) fromCache(ctx context.Context, key string) *models.CandleSeries {
	var series models.CandleSeries
	if err := f.cache.Get(ctx, key, &series); err != nil {
		return nil
	}
	if len(series.Candles) == 0 {
		return nil
	}
	return &series
}

func (f *Fetcher) toCache(ctx context.Context, key string, series *models.CandleSeries) {
	ttl := f.ttlFor(series)
	if err := f.cache.Set(ctx, key, series, ttl); err != nil {
		f.logger.Warn("candle cache write failed", applogger.Error(err))
	}
}

// ttlFor picks a cache TTL from recent realized volatility: fast-moving
// markets get a short TTL, quiet ones a long one.
func (f *Fetcher) ttlFor(series *models.CandleSeries) time.Duration {
	pct := rangePct(series, 14)
	switch {
	case pct >= f.cfg.HighVolPct:
		return f.cfg.TTLVolatile
	case pct <= f.cfg.LowVolPct:
		return f.cfg.TTLCalm
	default:
		return f.cfg.TTLNormal
	}
}

// rangePct is the average high-low range over the last n bars as a
// percentage of the last close.
func rangePct(series *models.CandleSeries, n int) float64 {
	candles := series.Candles
	if len(candles) == 0 {
		return 0
	}
	if n > len(candles) {
		n = len(candles)
	}
	var sum float64
	for _, c := range candles[len(candles)-n:] {
		sum += c.High - c.Low
	}
	last := series.LastClose()
	if last <= 0 {
		return 0
	}
	return (sum / float64(n)) / last * 100
}

func candleKey(pair string, interval repository.Interval) string {
	return fmt.Sprintf("candles:%s:%s", pair, interval)
}
