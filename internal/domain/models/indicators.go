package models

// IndicatorBundle holds the technical indicator values computed from one
// candle window. All values refer to the most recent bar.
type IndicatorBundle struct {
	RSI          float64 `json:"rsi"`
	MACDLine     float64 `json:"macd_line"`
	MACDSignal   float64 `json:"macd_signal"`
	MACDDiff     float64 `json:"macd_diff"`
	BollingerPct float64 `json:"bollinger_pct"`
	ATR          float64 `json:"atr"`
	ADX          float64 `json:"adx"`
	StochK       float64 `json:"stoch_k"`
	StochD       float64 `json:"stoch_d"`
}

// TrendDirection classifies the prevailing market direction.
type TrendDirection string

const (
	TrendUp      TrendDirection = "UP"
	TrendDown    TrendDirection = "DOWN"
	TrendRanging TrendDirection = "RANGING"
)

// TrendState is the outcome of trend classification.
type TrendState struct {
	Direction TrendDirection `json:"direction"`
	Strength  float64        `json:"strength"`
}

// Strong reports whether the trend is both directional and strong.
func (t TrendState) Strong() bool {
	return t.Direction != TrendRanging && t.Strength >= 50
}

// Moderate reports whether the trend is directional with middling strength.
func (t TrendState) Moderate() bool {
	return t.Direction != TrendRanging && t.Strength >= 25 && t.Strength < 50
}

// MomentumDirection classifies short-horizon price drift.
type MomentumDirection string

const (
	MomentumUp   MomentumDirection = "UP"
	MomentumDown MomentumDirection = "DOWN"
	MomentumFlat MomentumDirection = "FLAT"
)

// MomentumState is the outcome of momentum detection.
type MomentumState struct {
	Direction MomentumDirection `json:"direction"`
	ChangePct float64           `json:"change_pct"`
	Strength  float64           `json:"strength"`
}
