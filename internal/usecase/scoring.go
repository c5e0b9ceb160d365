package usecase

import (
	"SigPulse/internal/domain/models"
	applogger "SigPulse/pkg/logger"
)

// Tier scores assigned from confirmation counts. Bearish tiers mirror the
// bullish ones around 50.
const (
	scoreStrongBull   = 70
	scoreModerateBull = 60
	scoreNeutral      = 50
	scoreModerateBear = 40
	scoreStrongBear   = 30

	confirmationChecks = 6
	volumeSurgeFactor  = 1.5
)

// Scorer turns indicator readings into a technical score with a
// confirmation count and a confidence estimate.
type Scorer struct {
	settings *Settings
	logger   *applogger.Logger
}

// NewScorer creates a scorer reading live tunables from settings.
func NewScorer(settings *Settings, l *applogger.Logger) *Scorer {
	return &Scorer{settings: settings, logger: l}
}

// cutoffs are the confirmation thresholds after adaptive adjustment.
type cutoffs struct {
	rsiOversold     float64
	rsiOverbought   float64
	bbOversold      float64
	bbOverbought    float64
	stochOversold   float64
	stochOverbought float64
}

// Score computes the technical-analysis score for the window. The result
// carries the winning side's confirmation count and a confidence estimate;
// FinalScore is filled in later once the advisory opinion is blended.
func (s *Scorer) Score(series *models.CandleSeries, b *models.IndicatorBundle, trend models.TrendState, momentum models.MomentumState) models.ScoreResult {
	t := s.settings.Current()
	cut := s.cutoffsFor(t, series, b)

	bull := s.bullConfirmations(t, cut, b, momentum)
	bear := s.bearConfirmations(t, cut, b, momentum)

	// Confirmations against a directional trend do not count.
	switch trend.Direction {
	case models.TrendUp:
		bear = 0
	case models.TrendDown:
		bull = 0
	}

	if t.VolumeBonus {
		if surge := volumeSurge(series); surge {
			if bull >= bear && bull > 0 && bull < confirmationChecks {
				bull++
			} else if bear > bull && bear < confirmationChecks {
				bear++
			}
		}
	}

	strongNeed, moderateNeed := t.MinConfirmations, t.MinConfirmations-1
	if trend.Strong() {
		strongNeed -= t.TrendTierDiscount
		moderateNeed -= t.TrendTierDiscount
	}
	// The discount can never let an unconfirmed window out of neutral.
	if strongNeed < 2 {
		strongNeed = 2
	}
	if moderateNeed < 1 {
		moderateNeed = 1
	}

	score := float64(scoreNeutral)
	confirmations := 0
	switch {
	case bull >= bear && bull >= strongNeed:
		score, confirmations = scoreStrongBull, bull
	case bull >= bear && bull == moderateNeed:
		score, confirmations = scoreModerateBull, bull
	case bear > bull && bear >= strongNeed:
		score, confirmations = scoreStrongBear, bear
	case bear > bull && bear == moderateNeed:
		score, confirmations = scoreModerateBear, bear
	}

	result := models.ScoreResult{
		TAScore:       score,
		Confirmations: confirmations,
	}
	result.Confidence = s.confidence(result, score)

	s.logger.Debug("technical score",
		applogger.Float64("ta_score", score),
		applogger.Int("bull", bull),
		applogger.Int("bear", bear),
		applogger.String("trend", string(trend.Direction)),
	)
	return result
}

// Blend mixes the advisory score into the technical score. With no
// advisory opinion the technical score passes through unchanged.
func (s *Scorer) Blend(result models.ScoreResult, advisoryScore float64, advisoryUsed bool) models.ScoreResult {
	t := s.settings.Current()
	result.AdvisoryUsed = advisoryUsed
	if !advisoryUsed || t.AdvisoryWeight <= 0 {
		result.FinalScore = result.TAScore
		return result
	}
	result.AdvisoryScore = advisoryScore
	result.FinalScore = result.TAScore*(1-t.AdvisoryWeight) + advisoryScore*t.AdvisoryWeight
	return result
}

func (s *Scorer) bullConfirmations(t Tunables, cut cutoffs, b *models.IndicatorBundle, momentum models.MomentumState) int {
	n := 0
	if b.RSI < cut.rsiOversold {
		n++
	}
	if b.MACDDiff > t.MACDStrongThreshold {
		n++
	}
	if b.BollingerPct < cut.bbOversold {
		n++
	}
	if b.StochK < cut.stochOversold {
		n++
	}
	if b.ADX > t.ADXTrendFloor {
		n++
	}
	if momentum.Direction == models.MomentumUp {
		n++
	}
	return n
}

func (s *Scorer) bearConfirmations(t Tunables, cut cutoffs, b *models.IndicatorBundle, momentum models.MomentumState) int {
	n := 0
	if b.RSI > cut.rsiOverbought {
		n++
	}
	if b.MACDDiff < -t.MACDStrongThreshold {
		n++
	}
	if b.BollingerPct > cut.bbOverbought {
		n++
	}
	if b.StochK > cut.stochOverbought {
		n++
	}
	if b.ADX > t.ADXTrendFloor {
		n++
	}
	if momentum.Direction == models.MomentumDown {
		n++
	}
	return n
}

// cutoffsFor widens the confirmation cutoffs in fast markets and relaxes
// them in quiet ones, keyed on ATR as a fraction of price.
func (s *Scorer) cutoffsFor(t Tunables, series *models.CandleSeries, b *models.IndicatorBundle) cutoffs {
	cut := cutoffs{
		rsiOversold:     t.RSIOversold,
		rsiOverbought:   t.RSIOverbought,
		bbOversold:      t.BBOversold,
		bbOverbought:    t.BBOverbought,
		stochOversold:   t.StochOversold,
		stochOverbought: t.StochOverbought,
	}
	if !t.AdaptiveThresholds {
		return cut
	}

	price := series.LastClose()
	if price <= 0 {
		return cut
	}
	atrPct := b.ATR / price * 100

	var shift float64
	switch {
	case atrPct >= 0.15:
		shift = -5 // noisy market, demand deeper extremes
	case atrPct <= 0.05:
		shift = 5
	}
	cut.rsiOversold += shift
	cut.rsiOverbought -= shift
	cut.bbOversold += shift
	cut.bbOverbought -= shift
	cut.stochOversold += shift
	cut.stochOverbought -= shift
	return cut
}

// confidence grows with the winning confirmation count. A neutral score
// has nothing to be confident about.
func (s *Scorer) confidence(result models.ScoreResult, score float64) float64 {
	if score == scoreNeutral {
		return 0
	}
	c := 40 + 55*float64(result.Confirmations)/confirmationChecks
	if c > 100 {
		c = 100
	}
	return c
}

// volumeSurge reports whether the last bar's volume clears 1.5x the window
// average. Windows without volume data never surge.
func volumeSurge(series *models.CandleSeries) bool {
	candles := series.Candles
	if len(candles) < 2 {
		return false
	}
	var sum float64
	for _, c := range candles {
		sum += c.Volume
	}
	avg := sum / float64(len(candles))
	if avg <= 0 {
		return false
	}
	return candles[len(candles)-1].Volume > volumeSurgeFactor*avg
}
