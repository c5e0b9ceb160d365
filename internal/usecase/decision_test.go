package usecase

import (
	"math"
	"testing"
	"time"

	"SigPulse/internal/domain/models"
	applogger "SigPulse/pkg/logger"
)

func newTestDecider(t Tunables, window TradingWindow) *Decider {
	settings := NewSettings(t, applogger.Nop())
	d := NewDecider(settings, window, applogger.Nop())
	d.now = func() time.Time {
		return time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	}
	return d
}

func flatMomentum() models.MomentumState {
	return models.MomentumState{Direction: models.MomentumFlat}
}

func TestDecideBuyWithRiskLevels(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	result := models.ScoreResult{FinalScore: 70, Confidence: 76}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, flatMomentum(), "test")
	if sig.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY", sig.Action)
	}
	if math.Abs(sig.StopLoss-1.098) > 1e-9 {
		t.Fatalf("stop loss = %v, want 1.098", sig.StopLoss)
	}
	if math.Abs(sig.TakeProfit-1.1036) > 1e-9 {
		t.Fatalf("take profit = %v, want 1.1036", sig.TakeProfit)
	}
}

func TestDecideSellMirrorsRiskLevels(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	result := models.ScoreResult{FinalScore: 30, Confidence: 90}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, flatMomentum(), "test")
	if sig.Action != models.ActionSell {
		t.Fatalf("action = %s, want SELL", sig.Action)
	}
	if math.Abs(sig.StopLoss-1.102) > 1e-9 {
		t.Fatalf("stop loss = %v, want 1.102", sig.StopLoss)
	}
	if math.Abs(sig.TakeProfit-1.0964) > 1e-9 {
		t.Fatalf("take profit = %v, want 1.0964", sig.TakeProfit)
	}
}

func TestDecideNeutralBandIsNoSignal(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	result := models.ScoreResult{FinalScore: 55, Confidence: 90}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, flatMomentum(), "test")
	if sig.Action != models.ActionNoSignal {
		t.Fatalf("action = %s, want NO_SIGNAL", sig.Action)
	}
	if sig.Reason != "score in neutral band" {
		t.Fatalf("reason = %q", sig.Reason)
	}
	if sig.StopLoss != 0 || sig.TakeProfit != 0 {
		t.Fatal("risk levels set on NO_SIGNAL")
	}
}

func TestDecideLowConfidenceIsNoSignal(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	result := models.ScoreResult{FinalScore: 70, Confidence: 50}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, flatMomentum(), "test")
	if sig.Action != models.ActionNoSignal {
		t.Fatalf("action = %s, want NO_SIGNAL", sig.Action)
	}
	if sig.Reason != "confidence below threshold" {
		t.Fatalf("reason = %q", sig.Reason)
	}
}

func TestDecideCounterMomentumPenaltyFlipsBorderlineBuy(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	momentumDown := models.MomentumState{Direction: models.MomentumDown, ChangePct: -0.05}
	result := models.ScoreResult{FinalScore: 62, Confidence: 76}

	sig, adjusted := d.Decide("EUR/USD", 1.1, result, b, momentumDown, "test")
	if sig.Action != models.ActionNoSignal {
		t.Fatalf("action = %s, want NO_SIGNAL after penalty", sig.Action)
	}
	if adjusted.FinalScore != 55 {
		t.Fatalf("adjusted score = %v, want 55", adjusted.FinalScore)
	}
	if adjusted.Confidence != 71 {
		t.Fatalf("adjusted confidence = %v, want 71", adjusted.Confidence)
	}
}

func TestDecideStrongSetupSurvivesCounterMomentum(t *testing.T) {
	d := newTestDecider(testTunables(), TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	momentumDown := models.MomentumState{Direction: models.MomentumDown, ChangePct: -0.05}
	result := models.ScoreResult{FinalScore: 70, Confidence: 90}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, momentumDown, "test")
	if sig.Action != models.ActionBuy {
		t.Fatalf("action = %s, want BUY", sig.Action)
	}
	if sig.Score != 63 {
		t.Fatalf("score = %v, want 63", sig.Score)
	}
}

func TestDecidePenaltyNeverCrossesNeutral(t *testing.T) {
	tun := testTunables()
	tun.MomentumPenaltyScore = 20
	d := newTestDecider(tun, TradingWindow{})
	b := &models.IndicatorBundle{ATR: 0.001}
	momentumDown := models.MomentumState{Direction: models.MomentumDown, ChangePct: -0.05}
	result := models.ScoreResult{FinalScore: 55, Confidence: 90}

	_, adjusted := d.Decide("EUR/USD", 1.1, result, b, momentumDown, "test")
	if adjusted.FinalScore != 50 {
		t.Fatalf("adjusted score = %v, want clamped 50", adjusted.FinalScore)
	}
}

func TestDecideTradingHoursVeto(t *testing.T) {
	window := TradingWindow{Enabled: true, StartHour: 14, EndHour: 20}
	d := newTestDecider(testTunables(), window) // fixed clock at 12:00 UTC
	b := &models.IndicatorBundle{ATR: 0.001}
	result := models.ScoreResult{FinalScore: 70, Confidence: 90}

	sig, _ := d.Decide("EUR/USD", 1.1, result, b, flatMomentum(), "test")
	if sig.Action != models.ActionNoSignal {
		t.Fatalf("action = %s, want NO_SIGNAL", sig.Action)
	}
	if sig.Reason != "outside trading hours" {
		t.Fatalf("reason = %q", sig.Reason)
	}
}

func TestTradingWindowWrapsMidnight(t *testing.T) {
	w := TradingWindow{Enabled: true, StartHour: 22, EndHour: 2}

	at := func(h int) time.Time {
		return time.Date(2026, 3, 2, h, 30, 0, 0, time.UTC)
	}
	if !w.Contains(at(23)) {
		t.Fatal("23:30 should be inside a 22-2 window")
	}
	if !w.Contains(at(1)) {
		t.Fatal("01:30 should be inside a 22-2 window")
	}
	if w.Contains(at(12)) {
		t.Fatal("12:30 should be outside a 22-2 window")
	}
}
