package models

import (
	"fmt"
	"time"
)

// Candle is a single OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Valid reports whether the bar is structurally sound.
func (c Candle) Valid() bool {
	if c.Timestamp.IsZero() {
		return false
	}
	if c.Open <= 0 || c.High <= 0 || c.Low <= 0 || c.Close <= 0 {
		return false
	}
	if c.High < c.Low {
		return false
	}
	return true
}

// CandleSeries is an ordered window of candles for one pair and interval,
// oldest first.
type CandleSeries struct {
	Pair     string   `json:"pair"`
	Interval string   `json:"interval"`
	Source   string   `json:"source"`
	Candles  []Candle `json:"candles"`
}

// Len returns the number of candles in the series.
func (s *CandleSeries) Len() int {
	return len(s.Candles)
}

// Last returns the most recent candle. The series must be non-empty.
func (s *CandleSeries) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// LastClose returns the close of the most recent candle, or 0 when empty.
func (s *CandleSeries) LastClose() float64 {
	if len(s.Candles) == 0 {
		return 0
	}
	return s.Candles[len(s.Candles)-1].Close
}

// Version identifies the data window: two series with equal versions cover
// the same bars, so derived indicator values can be reused.
func (s *CandleSeries) Version() string {
	if len(s.Candles) == 0 {
		return fmt.Sprintf("%s:%s:empty", s.Pair, s.Interval)
	}
	last := s.Candles[len(s.Candles)-1]
	return fmt.Sprintf("%s:%s:%d:%d", s.Pair, s.Interval, last.Timestamp.Unix(), len(s.Candles))
}

// Closes returns the close prices oldest first.
func (s *CandleSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// Validate checks the series is non-empty, ordered and structurally sound.
func (s *CandleSeries) Validate() error {
	if len(s.Candles) == 0 {
		return fmt.Errorf("series %s/%s: no candles", s.Pair, s.Interval)
	}
	var prev time.Time
	for i, c := range s.Candles {
		if !c.Valid() {
			return fmt.Errorf("series %s/%s: invalid candle at %d", s.Pair, s.Interval, i)
		}
		if i > 0 && !c.Timestamp.After(prev) {
			return fmt.Errorf("series %s/%s: out of order candle at %d", s.Pair, s.Interval, i)
		}
		prev = c.Timestamp
	}
	return nil
}
