package marketdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	"SigPulse/pkg/cache"
	applogger "SigPulse/pkg/logger"
)

type fakeSource struct {
	name   string
	series *models.CandleSeries
	err    error
	calls  atomic.Int64
}

func (s *fakeSource) Name() string { return s.name }

func (s *fakeSource) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

func window(source string, n int) *models.CandleSeries {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      1.1, High: 1.101, Low: 1.099, Close: 1.1, Volume: 100,
		}
	}
	return &models.CandleSeries{Pair: "EUR/USD", Interval: "1m", Source: source, Candles: candles}
}

func newTestFetcher(t *testing.T, cfg FetcherConfig, sources ...repository.CandleSource) *Fetcher {
	t.Helper()
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	return NewFetcher(sources, c, repository.NopMetrics{}, applogger.Nop(), cfg)
}

func TestFetchFallsBackToNextSource(t *testing.T) {
	bad := &fakeSource{name: "bad", err: ErrSourceUnavailable}
	good := &fakeSource{name: "good", series: window("good", 100)}
	f := newTestFetcher(t, FetcherConfig{Attempts: 1}, bad, good)

	series, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Source != "good" {
		t.Fatalf("source = %s, want good", series.Source)
	}
	if bad.calls.Load() != 1 {
		t.Fatalf("bad source tried %d times, want 1", bad.calls.Load())
	}
}

func TestFetchAllSourcesExhausted(t *testing.T) {
	a := &fakeSource{name: "a", err: ErrSourceUnavailable}
	b := &fakeSource{name: "b", err: ErrSourceUnavailable}
	f := newTestFetcher(t, FetcherConfig{Attempts: 2}, a, b)

	_, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
	if a.calls.Load() != 2 || b.calls.Load() != 2 {
		t.Fatalf("calls = %d/%d, want bounded attempts 2/2", a.calls.Load(), b.calls.Load())
	}
}

func TestFetchServesFromCache(t *testing.T) {
	src := &fakeSource{name: "src", series: window("src", 100)}
	f := newTestFetcher(t, FetcherConfig{}, src)

	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if src.calls.Load() != 1 {
		t.Fatalf("source called %d times, want 1 (cache hit)", src.calls.Load())
	}
}

func TestFetchFreshBypassesCache(t *testing.T) {
	src := &fakeSource{name: "src", series: window("src", 100)}
	f := newTestFetcher(t, FetcherConfig{}, src)

	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, true); err != nil {
		t.Fatalf("fresh fetch: %v", err)
	}
	if src.calls.Load() != 2 {
		t.Fatalf("source called %d times, want 2", src.calls.Load())
	}
}

func TestFetchQuotaDeprioritizesSource(t *testing.T) {
	throttled := &fakeSource{name: "throttled", err: ErrQuotaExceeded}
	backup := &fakeSource{name: "backup", series: window("backup", 100)}
	f := newTestFetcher(t, FetcherConfig{Attempts: 2}, throttled, backup)

	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if throttled.calls.Load() != 1 {
		t.Fatalf("throttled source retried after quota error: %d calls", throttled.calls.Load())
	}

	// The throttled source now ranks last, so the backup serves alone.
	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, true); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if throttled.calls.Load() != 1 {
		t.Fatalf("throttled source called again while backed off: %d calls", throttled.calls.Load())
	}
	if backup.calls.Load() != 2 {
		t.Fatalf("backup calls = %d, want 2", backup.calls.Load())
	}
}

func TestFetchParallelRaceReturnsValidWindow(t *testing.T) {
	slow := &fakeSource{name: "slow", err: ErrSourceUnavailable}
	fast := &fakeSource{name: "fast", series: window("fast", 100)}
	f := newTestFetcher(t, FetcherConfig{Mode: ModeParallel}, slow, fast)

	series, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Source != "fast" {
		t.Fatalf("source = %s, want fast", series.Source)
	}
}

func TestFetchParallelAllFail(t *testing.T) {
	a := &fakeSource{name: "a", err: ErrSourceUnavailable}
	b := &fakeSource{name: "b", err: ErrSourceUnavailable}
	f := newTestFetcher(t, FetcherConfig{Mode: ModeParallel}, a, b)

	_, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestSingleSourceFailureStaysBelowInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "fetch.log")
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "json", Output: logPath})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}

	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })
	src := &fakeSource{name: "bad", err: ErrSourceUnavailable}
	f := NewFetcher([]repository.CandleSource{src}, c, repository.NopMetrics{}, l, FetcherConfig{Attempts: 1})

	if _, err := f.Fetch(context.Background(), "EUR/USD", repository.I1m, 100, false); !errors.Is(err, ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "source fetch failed") {
		t.Fatalf("per-source failure logged at info or above: %s", data)
	}
}

func TestAdaptiveTTLBuckets(t *testing.T) {
	f := newTestFetcher(t, FetcherConfig{})

	calm := window("src", 50)
	// 0.002 range on 1.1 is ~0.18%, volatile
	volatile := window("src", 50)
	for i := range volatile.Candles {
		volatile.Candles[i].High = 1.102
		volatile.Candles[i].Low = 1.1
	}
	// ~0.018% range, calm
	for i := range calm.Candles {
		calm.Candles[i].High = 1.1001
		calm.Candles[i].Low = 1.0999
	}

	if got := f.ttlFor(volatile); got != f.cfg.TTLVolatile {
		t.Fatalf("volatile ttl = %v, want %v", got, f.cfg.TTLVolatile)
	}
	if got := f.ttlFor(calm); got != f.cfg.TTLCalm {
		t.Fatalf("calm ttl = %v, want %v", got, f.cfg.TTLCalm)
	}
}
