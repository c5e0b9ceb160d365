package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

// BinanceSource fetches candles from the Binance klines API using a stable
// proxy symbol (e.g. EURUSDT for EUR/USD). It serves as the keyless
// fallback when the FX providers are exhausted.
type BinanceSource struct {
	client      *xhttp.Client
	logger      *applogger.Logger
	baseURL     string
	proxySymbol string
}

// NewBinanceSource creates a Binance candle source.
func NewBinanceSource(client *xhttp.Client, l *applogger.Logger, baseURL, proxySymbol string) *BinanceSource {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	if proxySymbol == "" {
		proxySymbol = "EURUSDT"
	}
	return &BinanceSource{client: client, logger: l, baseURL: baseURL, proxySymbol: proxySymbol}
}

// Name returns the source identifier.
func (s *BinanceSource) Name() string { return "binance" }

// Fetch retrieves the latest candle window, oldest first.
func (s *BinanceSource) Fetch(ctx context.Context, pair string, interval repository.Interval, lookback int) (*models.CandleSeries, error) {
	var rows [][]json.RawMessage
	err := s.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    s.baseURL + "/api/v3/klines",
		QueryParams: map[string]string{
			"symbol":   s.proxySymbol,
			"interval": string(interval),
			"limit":    strconv.Itoa(lookback),
		},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("binance: %w", classifyStatus(err))
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("binance: empty window: %w", ErrSourceUnavailable)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		c, err := parseKline(row)
		if err != nil {
			s.logger.Debug("binance kline parse failed", applogger.Error(err))
			return nil, fmt.Errorf("binance: %v: %w", err, ErrSourceUnavailable)
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
		return nil, fmt.Errorf("binance: %v: %w", err, ErrSourceUnavailable)
	}
	return series, nil
}

// parseKline decodes one klines row:
// [openTime, open, high, low, close, volume, closeTime, ...]
// with prices and volume as JSON strings and times as epoch millis.
func parseKline(row []json.RawMessage) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("short kline row: %d fields", len(row))
	}
	var openMs int64
	if err := json.Unmarshal(row[0], &openMs); err != nil {
		return models.Candle{}, fmt.Errorf("bad open time: %w", err)
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		var s string
		if err := json.Unmarshal(row[i], &s); err != nil {
			return models.Candle{}, fmt.Errorf("bad field %d: %w", i, err)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("bad field %d: %w", i, err)
		}
		fields[i-1] = f
	}

	return models.Candle{
		Timestamp: time.UnixMilli(openMs).UTC(),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}
