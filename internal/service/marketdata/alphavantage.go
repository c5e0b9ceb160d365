package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

// AlphaVantageSource fetches FX candles from the Alpha Vantage FX_INTRADAY
// and FX_DAILY endpoints.
type AlphaVantageSource struct {
	client  *xhttp.Client
	logger  *applogger.Logger
	baseURL string
	apiKey  string
}

// NewAlphaVantageSource creates an Alpha Vantage candle source.
func NewAlphaVantageSource(client *xhttp.Client, l *applogger.Logger, baseURL, apiKey string) *AlphaVantageSource {
	if baseURL == "" {
		baseURL = "https://www.alphavantage.co"
	}
	return &AlphaVantageSource{client: client, logger: l, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the source identifier.
func (s *AlphaVantageSource) Name() string { return "alpha_vantage" }

type alphaVantageBar struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// Fetch retrieves the latest candle window, oldest first. FX endpoints
// carry no volume, so Volume is always zero for this source.
func (s *AlphaVantageSource) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	base, quote := splitPair(pair)
	fn, avInterval := alphaVantageFunction(interval)

	params := map[string]string{
		"function":    fn,
		"from_symbol": base,
		"to_symbol":   quote,
		"outputsize":  "compact",
		"apikey":      s.apiKey,
	}
	if avInterval != "" {
		params["interval"] = avInterval
	}

	var raw map[string]json.RawMessage
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.baseURL + "/query",
		QueryParams: params,
	}, &raw)
	if err != nil {
		return nil, fmt.Errorf("alpha_vantage: %w", classifyStatus(err))
	}

	// Quota and error conditions come back as 200 with a message key.
	for _, key := range []string{"Note", "Information"} {
		if msg, ok := raw[key]; ok {
			s.logger.Debug("alpha_vantage throttled", applogger.String("message", string(msg)))
			return nil, fmt.Errorf("alpha_vantage: %w", ErrQuotaExceeded)
		}
	}
	if msg, ok := raw["Error Message"]; ok {
		s.logger.Debug("alpha_vantage error", applogger.String("message", string(msg)))
		return nil, fmt.Errorf("alpha_vantage: %w", ErrSourceUnavailable)
	}

	var seriesRaw json.RawMessage
	for key, v := range raw {
		if strings.HasPrefix(key, "Time Series") {
			seriesRaw = v
			break
		}
	}
	if seriesRaw == nil {
		return nil, fmt.Errorf("alpha_vantage: missing time series: %w", ErrSourceUnavailable)
	}

	var bars map[string]alphaVantageBar
	if err := json.Unmarshal(seriesRaw, &bars); err != nil {
		return nil, fmt.Errorf("alpha_vantage: decode series: %w", ErrSourceUnavailable)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("alpha_vantage: empty window: %w", ErrSourceUnavailable)
	}

	keys := make([]string, 0, len(bars))
	for k := range bars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > lookback {
		keys = keys[len(keys)-lookback:]
	}

	candles := make([]models.Candle, 0, len(keys))
	for _, k := range keys {
		c, err := parseAlphaVantageBar(k, bars[k])
		if err != nil {
			return nil, fmt.Errorf("alpha_vantage: %v: %w", err, ErrSourceUnavailable)
		}
		candles = append(candles, c)
	}

	series := &models.CandleSeries{
		Pair:     pair,
		Interval: string(interval),
		Source:   s.Name(),
		Candles:  candles,
	}
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("alpha_vantage: %v: %w", err, ErrSourceUnavailable)
	}
	return series, nil
}

func parseAlphaVantageBar(ts string, b alphaVantageBar) (models.Candle, error) {
	t, err := time.Parse("2006-01-02 15:04:05", ts)
	if err != nil {
		t, err = time.Parse("2006-01-02", ts)
		if err != nil {
			return models.Candle{}, fmt.Errorf("bad timestamp %q", ts)
		}
	}
	o, err1 := strconv.ParseFloat(b.Open, 64)
	h, err2 := strconv.ParseFloat(b.High, 64)
	l, err3 := strconv.ParseFloat(b.Low, 64)
	c, err4 := strconv.ParseFloat(b.Close, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Candle{}, fmt.Errorf("bad ohlc at %s", ts)
	}
	return models.Candle{Timestamp: t, Open: o, High: h, Low: l, Close: c}, nil
}

func alphaVantageFunction(iv repository.Interval) (fn, interval string) {
	switch iv {
	case repository.I1m:
		return "FX_INTRADAY", "1min"
	case repository.I5m:
		return "FX_INTRADAY", "5min"
	case repository.I15m:
		return "FX_INTRADAY", "15min"
	case repository.I30m:
		return "FX_INTRADAY", "30min"
	case repository.I1h, repository.I4h:
		return "FX_INTRADAY", "60min"
	case repository.I1d:
		return "FX_DAILY", ""
	default:
		return "FX_INTRADAY", "1min"
	}
}
