package usecase

import (
	"time"

	"SigPulse/internal/domain/models"
	applogger "SigPulse/pkg/logger"
)

// TradingWindow restricts actionable signals to a UTC hour range. A start
// after the end wraps around midnight.
type TradingWindow struct {
	Enabled   bool
	StartHour int
	EndHour   int
}

// Contains reports whether t falls inside the window.
func (w TradingWindow) Contains(t time.Time) bool {
	if !w.Enabled {
		return true
	}
	h := t.UTC().Hour()
	if w.StartHour <= w.EndHour {
		return h >= w.StartHour && h <= w.EndHour
	}
	return h >= w.StartHour || h <= w.EndHour
}

// Decider turns a blended score into a trade decision with risk levels.
type Decider struct {
	settings *Settings
	window   TradingWindow
	logger   *applogger.Logger
	now      func() time.Time
}

// NewDecider creates a decider reading live tunables from settings.
func NewDecider(settings *Settings, window TradingWindow, l *applogger.Logger) *Decider {
	return &Decider{settings: settings, window: window, logger: l, now: time.Now}
}

// Decide produces the signal for one evaluation. Counter-running momentum
// shaves the score and confidence before the thresholds are applied, so a
// borderline setup with momentum against it stays flat.
func (d *Decider) Decide(pair string, price float64, result models.ScoreResult, b *models.IndicatorBundle, momentum models.MomentumState, source string) (*models.Signal, models.ScoreResult) {
	t := d.settings.Current()
	now := d.now()

	score := result.FinalScore
	confidence := result.Confidence

	switch {
	case score > scoreNeutral && momentum.Direction == models.MomentumDown:
		score = towardNeutral(score, t.MomentumPenaltyScore)
		confidence -= t.MomentumPenaltyConfidence
	case score < scoreNeutral && momentum.Direction == models.MomentumUp:
		score = towardNeutral(score, t.MomentumPenaltyScore)
		confidence -= t.MomentumPenaltyConfidence
	}
	if confidence < 0 {
		confidence = 0
	}
	result.FinalScore = score
	result.Confidence = confidence

	sig := &models.Signal{
		Pair:       pair,
		Action:     models.ActionNoSignal,
		Price:      price,
		Score:      score,
		Confidence: confidence,
		Source:     source,
		Timestamp:  now,
	}

	switch {
	case score >= t.MinBuyScore && confidence >= t.MinConfidence:
		sig.Action = models.ActionBuy
	case score <= t.MaxSellScore && confidence >= t.MinConfidence:
		sig.Action = models.ActionSell
	case score >= t.MinBuyScore || score <= t.MaxSellScore:
		sig.Reason = "confidence below threshold"
	default:
		sig.Reason = "score in neutral band"
	}

	if sig.Actionable() && !d.window.Contains(now) {
		d.logger.Info("signal vetoed outside trading hours",
			applogger.String("pair", pair),
			applogger.String("action", string(sig.Action)),
		)
		sig.Action = models.ActionNoSignal
		sig.Reason = "outside trading hours"
	}

	if sig.Actionable() {
		d.applyRisk(sig, b.ATR, t)
	}
	return sig, result
}

// applyRisk sets stop loss and take profit from ATR distance and the
// configured reward to risk ratio.
func (d *Decider) applyRisk(sig *models.Signal, atr float64, t Tunables) {
	stopDist := atr * t.ATRStopMultiplier
	profitDist := stopDist * t.RewardRiskRatio
	if sig.Action == models.ActionBuy {
		sig.StopLoss = sig.Price - stopDist
		sig.TakeProfit = sig.Price + profitDist
		return
	}
	sig.StopLoss = sig.Price + stopDist
	sig.TakeProfit = sig.Price - profitDist
}

// towardNeutral moves score toward 50 by delta without crossing it.
func towardNeutral(score, delta float64) float64 {
	if score > scoreNeutral {
		score -= delta
		if score < scoreNeutral {
			return scoreNeutral
		}
		return score
	}
	score += delta
	if score > scoreNeutral {
		return scoreNeutral
	}
	return score
}
