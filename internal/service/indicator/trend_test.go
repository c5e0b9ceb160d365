package indicator

import (
	"testing"

	"SigPulse/internal/domain/models"
)

func TestDetectTrendWeakADXIsRanging(t *testing.T) {
	b := &models.IndicatorBundle{ADX: 18, MACDDiff: 0.0005, RSI: 60}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Direction != models.TrendRanging {
		t.Fatalf("direction = %s, want RANGING", got.Direction)
	}
}

func TestDetectTrendUp(t *testing.T) {
	b := &models.IndicatorBundle{ADX: 30, MACDDiff: 0.0003, RSI: 55}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Direction != models.TrendUp {
		t.Fatalf("direction = %s, want UP", got.Direction)
	}
	if got.Strength != 60 {
		t.Fatalf("strength = %v, want 60", got.Strength)
	}
}

func TestDetectTrendDown(t *testing.T) {
	b := &models.IndicatorBundle{ADX: 28, MACDDiff: -0.0003, RSI: 45}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Direction != models.TrendDown {
		t.Fatalf("direction = %s, want DOWN", got.Direction)
	}
}

func TestDetectTrendRSIContradictionBlocksDirection(t *testing.T) {
	// MACD says up but RSI is deeply oversold: stay RANGING.
	b := &models.IndicatorBundle{ADX: 30, MACDDiff: 0.0003, RSI: 28}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Direction != models.TrendRanging {
		t.Fatalf("direction = %s, want RANGING", got.Direction)
	}
}

func TestDetectTrendMACDDeadBandIsRanging(t *testing.T) {
	b := &models.IndicatorBundle{ADX: 30, MACDDiff: 0.00005, RSI: 55}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Direction != models.TrendRanging {
		t.Fatalf("direction = %s, want RANGING", got.Direction)
	}
}

func TestDetectTrendStrengthCaps(t *testing.T) {
	b := &models.IndicatorBundle{ADX: 70, MACDDiff: 0.0003, RSI: 55}
	got := DetectTrend(b, DefaultTrendConfig())
	if got.Strength != 100 {
		t.Fatalf("strength = %v, want capped 100", got.Strength)
	}
}

func TestDetectMomentumDirections(t *testing.T) {
	cfg := DefaultMomentumConfig()

	up := DetectMomentum(risingSeries(10, 1.0, 0.001), cfg)
	if up.Direction != models.MomentumUp {
		t.Fatalf("rising momentum = %s, want UP", up.Direction)
	}
	if up.ChangePct <= 0 {
		t.Fatalf("rising change pct = %v, want > 0", up.ChangePct)
	}

	down := DetectMomentum(fallingSeries(10, 1.2, 0.001), cfg)
	if down.Direction != models.MomentumDown {
		t.Fatalf("falling momentum = %s, want DOWN", down.Direction)
	}

	flat := DetectMomentum(flatSeries(10, 1.1), cfg)
	if flat.Direction != models.MomentumFlat {
		t.Fatalf("flat momentum = %s, want FLAT", flat.Direction)
	}
	if flat.Strength != 0 {
		t.Fatalf("flat momentum strength = %v, want 0", flat.Strength)
	}
}

func TestDetectMomentumShortSeriesIsFlat(t *testing.T) {
	got := DetectMomentum(flatSeries(2, 1.1), DefaultMomentumConfig())
	if got.Direction != models.MomentumFlat {
		t.Fatalf("short series momentum = %s, want FLAT", got.Direction)
	}
}
