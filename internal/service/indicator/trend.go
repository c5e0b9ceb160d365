package indicator

import (
	"math"

	"SigPulse/internal/domain/models"
)

// TrendConfig holds trend classification cutoffs.
type TrendConfig struct {
	ADXFloor    float64
	MACDBand    float64
	RSIUpFloor  float64
	RSIDownCeil float64
}

// DefaultTrendConfig returns the standard cutoffs.
func DefaultTrendConfig() TrendConfig {
	return TrendConfig{
		ADXFloor:    25,
		MACDBand:    0.0001,
		RSIUpFloor:  40,
		RSIDownCeil: 60,
	}
}

// DetectTrend classifies the prevailing direction from the indicator
// bundle. A weak ADX or a MACD histogram inside the dead band means
// RANGING regardless of other readings; RSI must not contradict the
// MACD direction.
func DetectTrend(b *models.IndicatorBundle, cfg TrendConfig) models.TrendState {
	strength := math.Min(100, b.ADX*2)

	if b.ADX <= cfg.ADXFloor {
		return models.TrendState{Direction: models.TrendRanging, Strength: strength}
	}

	switch {
	case b.MACDDiff > cfg.MACDBand && b.RSI >= cfg.RSIUpFloor:
		return models.TrendState{Direction: models.TrendUp, Strength: strength}
	case b.MACDDiff < -cfg.MACDBand && b.RSI <= cfg.RSIDownCeil:
		return models.TrendState{Direction: models.TrendDown, Strength: strength}
	default:
		return models.TrendState{Direction: models.TrendRanging, Strength: strength}
	}
}

// MomentumConfig holds momentum detection tuning.
type MomentumConfig struct {
	Lookback    int
	DeadBandPct float64
}

// DefaultMomentumConfig returns the standard tuning.
func DefaultMomentumConfig() MomentumConfig {
	return MomentumConfig{Lookback: 3, DeadBandPct: 0.01}
}

// DetectMomentum measures short-horizon drift: the percent change of the
// last close against the close Lookback bars earlier. Changes inside the
// dead band count as FLAT.
func DetectMomentum(series *models.CandleSeries, cfg MomentumConfig) models.MomentumState {
	candles := series.Candles
	if cfg.Lookback <= 0 || len(candles) < cfg.Lookback+1 {
		return models.MomentumState{Direction: models.MomentumFlat}
	}

	last := candles[len(candles)-1].Close
	ref := candles[len(candles)-1-cfg.Lookback].Close
	if ref == 0 {
		return models.MomentumState{Direction: models.MomentumFlat}
	}

	pct := (last - ref) / ref * 100
	state := models.MomentumState{
		ChangePct: pct,
		Strength:  math.Min(100, math.Abs(pct)*100),
	}
	switch {
	case pct > cfg.DeadBandPct:
		state.Direction = models.MomentumUp
	case pct < -cfg.DeadBandPct:
		state.Direction = models.MomentumDown
	default:
		state.Direction = models.MomentumFlat
		state.Strength = 0
	}
	return state
}
