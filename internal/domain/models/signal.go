package models

import "time"

// Action is the trade decision for an evaluation.
type Action string

const (
	ActionBuy      Action = "BUY"
	ActionSell     Action = "SELL"
	ActionNoSignal Action = "NO_SIGNAL"
)

// ScoreResult carries the scoring breakdown for one evaluation.
type ScoreResult struct {
	TAScore       float64 `json:"ta_score"`
	Confirmations int     `json:"confirmations"`
	AdvisoryScore float64 `json:"advisory_score"`
	AdvisoryUsed  bool    `json:"advisory_used"`
	FinalScore    float64 `json:"final_score"`
	Confidence    float64 `json:"confidence"`
}

// Signal is the final output of an evaluation cycle.
type Signal struct {
	Pair       string    `json:"pair"`
	Action     Action    `json:"action"`
	Price      float64   `json:"price"`
	Score      float64   `json:"score"`
	Confidence float64   `json:"confidence"`
	StopLoss   float64   `json:"stop_loss,omitempty"`
	TakeProfit float64   `json:"take_profit,omitempty"`
	Reason     string    `json:"reason,omitempty"`
	Source     string    `json:"source,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Actionable reports whether the signal calls for a trade.
func (s *Signal) Actionable() bool {
	return s.Action == ActionBuy || s.Action == ActionSell
}

// Analysis is the full evaluation result exposed over the API.
type Analysis struct {
	Pair       string          `json:"pair"`
	Interval   string          `json:"interval"`
	Indicators IndicatorBundle `json:"indicators"`
	Trend      TrendState      `json:"trend"`
	Momentum   MomentumState   `json:"momentum"`
	Score      ScoreResult     `json:"score"`
	Signal     Signal          `json:"signal"`
	ElapsedMs  int64           `json:"elapsed_ms"`
}

// MarketSnapshot is the condensed market state sent to the advisory service.
type MarketSnapshot struct {
	Pair      string          `json:"pair"`
	Price     float64         `json:"price"`
	Trend     TrendState      `json:"trend"`
	Momentum  MomentumState   `json:"momentum"`
	Bundle    IndicatorBundle `json:"indicators"`
	Timestamp time.Time       `json:"timestamp"`
}

// EngineStats are cumulative counters for the running engine.
type EngineStats struct {
	Evaluations    int64     `json:"evaluations"`
	Buys           int64     `json:"buys"`
	Sells          int64     `json:"sells"`
	NoSignals      int64     `json:"no_signals"`
	SkippedCycles  int64     `json:"skipped_cycles"`
	PacingRejected int64     `json:"pacing_rejected"`
	LastEvaluation time.Time `json:"last_evaluation"`
	LastAction     Action    `json:"last_action"`
	StartedAt      time.Time `json:"started_at"`
}
