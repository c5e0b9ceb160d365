package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

// TwelveDataSource fetches FX candles from the Twelve Data time_series API.
type TwelveDataSource struct {
	client  *xhttp.Client
	logger  *applogger.Logger
	baseURL string
	apiKey  string
}

// NewTwelveDataSource creates a Twelve Data candle source.
func NewTwelveDataSource(client *xhttp.Client, l *applogger.Logger, baseURL, apiKey string) *TwelveDataSource {
	if baseURL == "" {
		baseURL = "https://api.twelvedata.com"
	}
	return &TwelveDataSource{client: client, logger: l, baseURL: baseURL, apiKey: apiKey}
}

// Name returns the source identifier.
func (s *TwelveDataSource) Name() string { return "twelve_data" }

type twelveDataValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

type twelveDataResponse struct {
	Status  string            `json:"status"`
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Values  []twelveDataValue `json:"values"`
}

// Fetch retrieves the latest candle window, oldest first.
func (s *TwelveDataSource) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	var resp twelveDataResponse
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/time_series",
		QueryParams: map[string]string{
			"symbol":     pair,
			"interval":   twelveDataInterval(interval),
			"outputsize": strconv.Itoa(lookback),
			"apikey":     s.apiKey,
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("twelve_data: %w", classifyStatus(err))
	}

	if resp.Status == "error" {
		s.logger.Debug("twelve_data rejected request",
			applogger.Int("code", resp.Code),
			applogger.String("message", resp.Message),
		)
		if resp.Code == 429 {
			return nil, fmt.Errorf("twelve_data: %w", ErrQuotaExceeded)
		}
		return nil, fmt.Errorf("twelve_data: %w", ErrSourceUnavailable)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("twelve_data: empty window: %w", ErrSourceUnavailable)
	}

	// API returns newest first
	candles := make([]models.Candle, 0, len(resp.Values))
	for i := len(resp.Values) - 1; i >= 0; i-- {
		c, err := parseTwelveDataValue(resp.Values[i])
		if err != nil {
			return nil, fmt.Errorf("twelve_data: %v: %w", err, ErrSourceUnavailable)
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
		return nil, fmt.Errorf("twelve_data: %v: %w", err, ErrSourceUnavailable)
	}
	return series, nil
}

func parseTwelveDataValue(v twelveDataValue) (models.Candle, error) {
	ts, err := time.Parse("2006-01-02 15:04:05", v.Datetime)
	if err != nil {
		// daily resolution omits the time component
		ts, err = time.Parse("2006-01-02", v.Datetime)
		if err != nil {
			return models.Candle{}, fmt.Errorf("bad datetime %q", v.Datetime)
		}
	}
	o, err1 := strconv.ParseFloat(v.Open, 64)
	h, err2 := strconv.ParseFloat(v.High, 64)
	l, err3 := strconv.ParseFloat(v.Low, 64)
	c, err4 := strconv.ParseFloat(v.Close, 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return models.Candle{}, fmt.Errorf("bad ohlc at %s", v.Datetime)
	}
	var vol float64
	if v.Volume != "" {
		vol, _ = strconv.ParseFloat(v.Volume, 64)
	}
	return models.Candle{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: vol}, nil
}

func twelveDataInterval(iv repository.Interval) string {
	switch iv {
	case repository.I1m:
		return "1min"
	case repository.I5m:
		return "5min"
	case repository.I15m:
		return "15min"
	case repository.I30m:
		return "30min"
	case repository.I1h:
		return "1h"
	case repository.I4h:
		return "4h"
	case repository.I1d:
		return "1day"
	default:
		return "1min"
	}
}
