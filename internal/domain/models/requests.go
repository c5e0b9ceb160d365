package models

// EvaluateRequest asks for an on-demand evaluation of a pair.
type EvaluateRequest struct {
	Pair     string `query:"pair" json:"pair"`
	Interval string `query:"interval" json:"interval" default:"1m" validate:"omitempty,oneof=1m 5m 15m 30m 1h 4h 1d"`
	Fresh    bool   `query:"fresh" json:"fresh"`
}

// HistoryRequest asks for recent stored signals.
type HistoryRequest struct {
	Pair  string `query:"pair" json:"pair"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=1000"`
}

// SettingsPatchRequest carries runtime tunable overrides. All fields are
// optional; absent fields leave the current value untouched.
type SettingsPatchRequest struct {
	MinBuyScore         *float64 `json:"min_buy_score" validate:"omitempty,gt=50,lte=100"`
	MaxSellScore        *float64 `json:"max_sell_score" validate:"omitempty,gte=0,lt=50"`
	MinConfidence       *float64 `json:"min_confidence" validate:"omitempty,gte=0,lte=100"`
	MinConfirmations    *int     `json:"min_confirmations" validate:"omitempty,gte=1,lte=6"`
	MACDStrongThreshold *float64 `json:"macd_strong_threshold" validate:"omitempty,gt=0"`
	ADXTrendFloor       *float64 `json:"adx_trend_floor" validate:"omitempty,gte=0,lte=100"`
	AdvisoryWeight      *float64 `json:"advisory_weight" validate:"omitempty,gte=0,lte=1"`
	MaxSignalsPerHour   *int     `json:"max_signals_per_hour" validate:"omitempty,gte=1,lte=1000"`
	ATRStopMultiplier   *float64 `json:"atr_stop_multiplier" validate:"omitempty,gt=0,lte=10"`
	RewardRiskRatio     *float64 `json:"reward_risk_ratio" validate:"omitempty,gt=0,lte=10"`
}
