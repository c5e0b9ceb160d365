package indicator

import (
	"math"

	"SigPulse/internal/domain/models"
)

// Periods used across the indicator set.
const (
	RSIPeriod        = 14
	MACDFastPeriod   = 12
	MACDSlowPeriod   = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerStdDev  = 2.0
	ATRPeriod        = 14
	ADXPeriod        = 14
	StochKPeriod     = 14
	StochDPeriod     = 3
)

// MinHistory is the smallest window that supports the full indicator set.
// MACD needs slow EMA plus signal warmup; ADX needs two smoothing passes.
const MinHistory = 40

// rsi computes Wilder-smoothed RSI over the close series. A flat series
// yields the neutral 50; all-gain series saturate at 100.
func rsi(closes []float64, period int) float64 {
	if len(closes) < period+1 {
		return 50
	}

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := closes[i] - closes[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(closes); i++ {
		d := closes[i] - closes[i-1]
		var gain, loss float64
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgGain == 0 && avgLoss == 0 {
		return 50
	}
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// ema computes the exponential moving average series of values.
func ema(values []float64, period int) []float64 {
	if len(values) == 0 {
		return nil
	}
	out := make([]float64, len(values))
	k := 2.0 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// macd returns the MACD line, signal line and histogram for the last bar.
func macd(closes []float64) (line, signal, diff float64) {
	if len(closes) < MACDSlowPeriod {
		return 0, 0, 0
	}
	fast := ema(closes, MACDFastPeriod)
	slow := ema(closes, MACDSlowPeriod)

	macdSeries := make([]float64, len(closes))
	for i := range closes {
		macdSeries[i] = fast[i] - slow[i]
	}
	signalSeries := ema(macdSeries, MACDSignalPeriod)

	n := len(closes) - 1
	return macdSeries[n], signalSeries[n], macdSeries[n] - signalSeries[n]
}

// bollingerPct returns %B: the position of the last close inside the
// Bollinger band, scaled to 0..100. A degenerate band yields 50.
func bollingerPct(closes []float64, period int, stdDev float64) float64 {
	if len(closes) < period {
		return 50
	}
	window := closes[len(closes)-period:]

	var sum float64
	for _, c := range window {
		sum += c
	}
	mean := sum / float64(period)

	var variance float64
	for _, c := range window {
		variance += (c - mean) * (c - mean)
	}
	sd := math.Sqrt(variance / float64(period))

	upper := mean + stdDev*sd
	lower := mean - stdDev*sd
	if upper == lower {
		return 50
	}

	pct := (closes[len(closes)-1] - lower) / (upper - lower) * 100
	return clamp(pct, 0, 100)
}

// atr computes the Wilder-smoothed average true range. Degenerate output
// falls back to a small fraction of the last close so downstream risk
// levels stay non-zero.
func atr(candles []models.Candle, period int) float64 {
	if len(candles) < period+1 {
		return fallbackATR(candles)
	}

	trs := trueRanges(candles)
	v := 0.0
	for _, tr := range trs[:period] {
		v += tr
	}
	v /= float64(period)
	for _, tr := range trs[period:] {
		v = (v*float64(period-1) + tr) / float64(period)
	}

	if v <= 0 {
		return fallbackATR(candles)
	}
	return v
}

func fallbackATR(candles []models.Candle) float64 {
	if len(candles) == 0 {
		return 0
	}
	return candles[len(candles)-1].Close * 0.001
}

func trueRanges(candles []models.Candle) []float64 {
	out := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		h, l, pc := candles[i].High, candles[i].Low, candles[i-1].Close
		tr := math.Max(h-l, math.Max(math.Abs(h-pc), math.Abs(l-pc)))
		out = append(out, tr)
	}
	return out
}

// adx computes the Wilder average directional index. History too short for
// the double smoothing pass yields the weak-trend fallback of 20.
func adx(candles []models.Candle, period int) float64 {
	if len(candles) < 2*period+1 {
		return 20
	}

	n := len(candles) - 1
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	trs := trueRanges(candles)
	for i := 1; i < len(candles); i++ {
		up := candles[i].High - candles[i-1].High
		down := candles[i-1].Low - candles[i].Low
		if up > down && up > 0 {
			plusDM[i-1] = up
		}
		if down > up && down > 0 {
			minusDM[i-1] = down
		}
	}

	smTR := wilderSum(trs, period)
	smPlus := wilderSum(plusDM, period)
	smMinus := wilderSum(minusDM, period)

	dxs := make([]float64, 0, len(smTR))
	for i := range smTR {
		if smTR[i] == 0 {
			dxs = append(dxs, 0)
			continue
		}
		pdi := 100 * smPlus[i] / smTR[i]
		mdi := 100 * smMinus[i] / smTR[i]
		if pdi+mdi == 0 {
			dxs = append(dxs, 0)
			continue
		}
		dxs = append(dxs, 100*math.Abs(pdi-mdi)/(pdi+mdi))
	}
	if len(dxs) < period {
		return 20
	}

	v := 0.0
	for _, dx := range dxs[:period] {
		v += dx
	}
	v /= float64(period)
	for _, dx := range dxs[period:] {
		v = (v*float64(period-1) + dx) / float64(period)
	}
	return clamp(v, 0, 100)
}

// wilderSum applies Wilder's running smoothing to values, emitting one
// smoothed value per input from index period-1 onward.
func wilderSum(values []float64, period int) []float64 {
	if len(values) < period {
		return nil
	}
	out := make([]float64, 0, len(values)-period+1)
	v := 0.0
	for _, x := range values[:period] {
		v += x
	}
	out = append(out, v)
	for _, x := range values[period:] {
		v = v - v/float64(period) + x
		out = append(out, v)
	}
	return out
}

// stochastic returns %K and %D for the last bar. A flat window yields the
// neutral 50 for both.
func stochastic(candles []models.Candle, kPeriod, dPeriod int) (k, d float64) {
	if len(candles) < kPeriod+dPeriod-1 {
		return 50, 50
	}

	ks := make([]float64, 0, dPeriod)
	for i := dPeriod - 1; i >= 0; i-- {
		end := len(candles) - i
		window := candles[end-kPeriod : end]

		hi, lo := window[0].High, window[0].Low
		for _, c := range window[1:] {
			if c.High > hi {
				hi = c.High
			}
			if c.Low < lo {
				lo = c.Low
			}
		}
		if hi == lo {
			ks = append(ks, 50)
			continue
		}
		ks = append(ks, (window[kPeriod-1].Close-lo)/(hi-lo)*100)
	}

	var sum float64
	for _, v := range ks {
		sum += v
	}
	return ks[len(ks)-1], sum / float64(len(ks))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
