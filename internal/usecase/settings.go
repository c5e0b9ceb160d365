package usecase

import (
	"sync"
	"sync/atomic"

	"SigPulse/internal/domain/models"
	"SigPulse/pkg/config"
	applogger "SigPulse/pkg/logger"
)

// Tunables are the scoring and risk knobs that may change at runtime.
// Readers always see a complete, consistent set.
type Tunables struct {
	MinBuyScore               float64
	MaxSellScore              float64
	MinConfidence             float64
	MinConfirmations          int
	TrendTierDiscount         int
	RSIOversold               float64
	RSIOverbought             float64
	BBOversold                float64
	BBOverbought              float64
	StochOversold             float64
	StochOverbought           float64
	ADXTrendFloor             float64
	MACDStrongThreshold       float64
	MomentumLookback          int
	MomentumDeadBandPct       float64
	MomentumPenaltyScore      float64
	MomentumPenaltyConfidence float64
	AdaptiveThresholds        bool
	VolumeBonus               bool
	AdvisoryWeight            float64
	MaxSignalsPerHour         int
	ATRStopMultiplier         float64
	RewardRiskRatio           float64
}

// TunablesFromConfig seeds runtime tunables from the loaded configuration.
func TunablesFromConfig(cfg *config.Config) Tunables {
	t := cfg.Thresholds
	return Tunables{
		MinBuyScore:               t.MinBuyScore,
		MaxSellScore:              t.MaxSellScore,
		MinConfidence:             t.MinConfidence,
		MinConfirmations:          t.MinConfirmations,
		TrendTierDiscount:         t.TrendTierDiscount,
		RSIOversold:               t.RSIOversold,
		RSIOverbought:             t.RSIOverbought,
		BBOversold:                t.BBOversold,
		BBOverbought:              t.BBOverbought,
		StochOversold:             t.StochOversold,
		StochOverbought:           t.StochOverbought,
		ADXTrendFloor:             t.ADXTrendFloor,
		MACDStrongThreshold:       t.MACDStrongThreshold,
		MomentumLookback:          t.MomentumLookback,
		MomentumDeadBandPct:       t.MomentumDeadBandPct,
		MomentumPenaltyScore:      t.MomentumPenaltyScore,
		MomentumPenaltyConfidence: t.MomentumPenaltyConfidence,
		AdaptiveThresholds:        t.AdaptiveThresholds,
		VolumeBonus:               t.VolumeBonus,
		AdvisoryWeight:            cfg.Advisory.Weight,
		MaxSignalsPerHour:         cfg.Pacing.MaxSignalsPerHour,
		ATRStopMultiplier:         cfg.Risk.ATRStopMultiplier,
		RewardRiskRatio:           cfg.Risk.RewardRiskRatio,
	}
}

// Settings holds the live tunables behind an atomic pointer so evaluation
// cycles read one consistent snapshot without locking. Writers serialize
// through a mutex so concurrent patches cannot lose each other's changes.
type Settings struct {
	applyMu sync.Mutex
	current atomic.Pointer[Tunables]
	logger  *applogger.Logger
}

// NewSettings creates a settings holder seeded with initial.
func NewSettings(initial Tunables, l *applogger.Logger) *Settings {
	s := &Settings{logger: l}
	s.current.Store(&initial)
	return s
}

// Current returns the live tunables snapshot.
func (s *Settings) Current() Tunables {
	return *s.current.Load()
}

// Apply merges the patch into a copy of the current tunables and swaps it
// in. Only whitelisted fields can change; each change is logged with old
// and new values. Returns the updated snapshot and the changed field names.
func (s *Settings) Apply(patch *models.SettingsPatchRequest) (Tunables, []string) {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	next := s.Current()
	var changed []string

	setF := func(name string, dst *float64, v *float64) {
		if v != nil && *v != *dst {
			s.logger.Info("setting changed",
				applogger.String("field", name),
				applogger.Float64("old", *dst),
				applogger.Float64("new", *v),
			)
			*dst = *v
			changed = append(changed, name)
		}
	}
	setI := func(name string, dst *int, v *int) {
		if v != nil && *v != *dst {
			s.logger.Info("setting changed",
				applogger.String("field", name),
				applogger.Int("old", *dst),
				applogger.Int("new", *v),
			)
			*dst = *v
			changed = append(changed, name)
		}
	}

	setF("min_buy_score", &next.MinBuyScore, patch.MinBuyScore)
	setF("max_sell_score", &next.MaxSellScore, patch.MaxSellScore)
	setF("min_confidence", &next.MinConfidence, patch.MinConfidence)
	setI("min_confirmations", &next.MinConfirmations, patch.MinConfirmations)
	setF("macd_strong_threshold", &next.MACDStrongThreshold, patch.MACDStrongThreshold)
	setF("adx_trend_floor", &next.ADXTrendFloor, patch.ADXTrendFloor)
	setF("advisory_weight", &next.AdvisoryWeight, patch.AdvisoryWeight)
	setI("max_signals_per_hour", &next.MaxSignalsPerHour, patch.MaxSignalsPerHour)
	setF("atr_stop_multiplier", &next.ATRStopMultiplier, patch.ATRStopMultiplier)
	setF("reward_risk_ratio", &next.RewardRiskRatio, patch.RewardRiskRatio)

	if len(changed) > 0 {
		s.current.Store(&next)
	}
	return next, changed
}
