package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	"SigPulse/internal/service/indicator"
	"SigPulse/internal/service/marketdata"
	"SigPulse/internal/service/pacing"
	"SigPulse/pkg/cache"
	applogger "SigPulse/pkg/logger"
)

type stubSource struct {
	name   string
	series *models.CandleSeries
	err    error
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.series, nil
}

// sellSeries is an accelerating decline: every indicator lines up bearish,
// so the pipeline produces a deterministic SELL.
func sellSeries(n int) *models.CandleSeries {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	for i := 0; i < n; i++ {
		p := 1.2 - 0.00001*float64(i)*float64(i)
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      p,
			High:      p + 0.0002,
			Low:       p - 0.0002,
			Close:     p,
			Volume:    1000,
		}
	}
	return &models.CandleSeries{Pair: "EUR/USD", Interval: "1m", Source: "stub", Candles: candles}
}

func newTestEvaluator(t *testing.T, src repository.CandleSource, maxPerHour int) *Evaluator {
	tun := testTunables()
	tun.MaxSignalsPerHour = maxPerHour
	return newTestEvaluatorWith(t, src, tun)
}

func newTestEvaluatorWith(t *testing.T, src repository.CandleSource, tun Tunables) *Evaluator {
	t.Helper()
	l := applogger.Nop()
	m := repository.NopMetrics{}
	c := cache.NewMemoryCache()
	t.Cleanup(func() { c.Close() })

	fetcher := marketdata.NewFetcher([]repository.CandleSource{src}, c, m, l, marketdata.FetcherConfig{})
	engine := indicator.NewEngine(c, m, l, 30*time.Second)
	settings := NewSettings(tun, l)
	scorer := NewScorer(settings, l)
	decider := NewDecider(settings, TradingWindow{}, l)
	limiter := pacing.NewLimiter(tun.MaxSignalsPerHour)

	return NewEvaluator(fetcher, engine, scorer, decider, settings, nil, limiter, nil, nil, m, l, EvaluatorConfig{
		Pair:     "EUR/USD",
		Interval: repository.I1m,
		Lookback: 100,
	})
}

// bounceSeries declines steadily and then bounces over the last three
// bars: a short momentum horizon reads the bounce as UP while a longer
// one still reads the decline as DOWN.
func bounceSeries(n int) *models.CandleSeries {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, n)
	price := 1.2
	for i := 0; i < n; i++ {
		if i < n-3 {
			price = 1.2 - 0.0001*float64(i)
		} else {
			price += 0.00005
		}
		candles[i] = models.Candle{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price + 0.0002,
			Low:       price - 0.0002,
			Close:     price,
			Volume:    1000,
		}
	}
	return &models.CandleSeries{Pair: "EUR/USD", Interval: "1m", Source: "stub", Candles: candles}
}

func TestEvaluateUsesConfiguredMomentumLookback(t *testing.T) {
	tun := testTunables()
	tun.MomentumLookback = 10
	ev := newTestEvaluatorWith(t, &stubSource{name: "stub", series: bounceSeries(100)}, tun)

	analysis, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, false)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if analysis.Momentum.Direction != models.MomentumDown {
		t.Fatalf("momentum = %s, want %s over the ten-bar horizon",
			analysis.Momentum.Direction, models.MomentumDown)
	}
}

func TestEvaluateProducesSellOnBearishWindow(t *testing.T) {
	ev := newTestEvaluator(t, &stubSource{name: "stub", series: sellSeries(100)}, 12)

	analysis, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, false)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if analysis.Signal.Action != models.ActionSell {
		t.Fatalf("action = %s, want SELL (score %v, confidence %v)",
			analysis.Signal.Action, analysis.Score.FinalScore, analysis.Score.Confidence)
	}
	if analysis.Signal.StopLoss <= analysis.Signal.Price {
		t.Fatalf("sell stop loss %v not above price %v", analysis.Signal.StopLoss, analysis.Signal.Price)
	}
	if analysis.Signal.TakeProfit >= analysis.Signal.Price {
		t.Fatalf("sell take profit %v not below price %v", analysis.Signal.TakeProfit, analysis.Signal.Price)
	}
	if ev.Latest() == nil {
		t.Fatal("latest analysis not recorded")
	}

	stats := ev.Stats()
	if stats.Evaluations != 1 || stats.Sells != 1 {
		t.Fatalf("stats = %+v, want one evaluation and one sell", stats)
	}
}

func TestEvaluatePacingLimitConvertsToNoSignal(t *testing.T) {
	ev := newTestEvaluator(t, &stubSource{name: "stub", series: sellSeries(100)}, 1)

	first, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, true)
	if err != nil {
		t.Fatalf("first evaluate: %v", err)
	}
	if first.Signal.Action != models.ActionSell {
		t.Fatalf("first action = %s, want SELL", first.Signal.Action)
	}

	second, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, true)
	if err != nil {
		t.Fatalf("second evaluate: %v", err)
	}
	if second.Signal.Action != models.ActionNoSignal {
		t.Fatalf("second action = %s, want NO_SIGNAL", second.Signal.Action)
	}
	if second.Signal.Reason != "hourly signal limit reached" {
		t.Fatalf("reason = %q", second.Signal.Reason)
	}

	stats := ev.Stats()
	if stats.PacingRejected != 1 {
		t.Fatalf("pacing rejected = %d, want 1", stats.PacingRejected)
	}
}

func TestEvaluateNoDataBubblesUp(t *testing.T) {
	ev := newTestEvaluator(t, &stubSource{name: "stub", err: marketdata.ErrSourceUnavailable}, 12)

	_, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, false)
	if !errors.Is(err, marketdata.ErrNoData) {
		t.Fatalf("err = %v, want ErrNoData", err)
	}
}

func TestEvaluateShortHistoryBubblesUp(t *testing.T) {
	ev := newTestEvaluator(t, &stubSource{name: "stub", series: sellSeries(20)}, 12)

	_, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, false)
	if !errors.Is(err, indicator.ErrInsufficientHistory) {
		t.Fatalf("err = %v, want ErrInsufficientHistory", err)
	}
}

func TestEvaluateBroadcastsAnalyses(t *testing.T) {
	ev := newTestEvaluator(t, &stubSource{name: "stub", series: sellSeries(100)}, 12)

	got := make(chan *models.Analysis, 1)
	ev.SetBroadcast(func(a *models.Analysis) { got <- a })

	if _, err := ev.Evaluate(context.Background(), "EUR/USD", repository.I1m, false); err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	select {
	case a := <-got:
		if a.Pair != "EUR/USD" {
			t.Fatalf("broadcast pair = %s", a.Pair)
		}
	default:
		t.Fatal("no broadcast received")
	}
}
