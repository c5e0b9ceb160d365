package marketdata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"SigPulse/internal/domain/repository"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

func jsonHandler(t *testing.T, status int, body string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestTwelveDataFetchParsesWindow(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{
		"status": "ok",
		"values": [
			{"datetime": "2026-03-02 09:02:00", "open": "1.1003", "high": "1.1005", "low": "1.1001", "close": "1.1004", "volume": "120"},
			{"datetime": "2026-03-02 09:01:00", "open": "1.1001", "high": "1.1004", "low": "1.1000", "close": "1.1003", "volume": "110"},
			{"datetime": "2026-03-02 09:00:00", "open": "1.1000", "high": "1.1002", "low": "1.0999", "close": "1.1001", "volume": "100"}
		]
	}`))
	defer srv.Close()

	src := NewTwelveDataSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	series, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Len() != 3 {
		t.Fatalf("len = %d, want 3", series.Len())
	}
	// Newest-first payload must come back oldest-first.
	first := series.Candles[0]
	want := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(want) {
		t.Fatalf("first timestamp = %v, want %v", first.Timestamp, want)
	}
	if series.LastClose() != 1.1004 {
		t.Fatalf("last close = %v, want 1.1004", series.LastClose())
	}
	if series.Source != "twelve_data" {
		t.Fatalf("source = %s", series.Source)
	}
}

func TestTwelveDataQuotaCode(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK,
		`{"status": "error", "code": 429, "message": "API credits exhausted"}`))
	defer srv.Close()

	src := NewTwelveDataSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	_, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 3)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestTwelveDataHTTP429IsQuota(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusTooManyRequests, `{}`))
	defer srv.Close()

	src := NewTwelveDataSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	_, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 3)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestAlphaVantageFetchParsesWindow(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `{
		"Meta Data": {"1. Information": "FX Intraday (1min)"},
		"Time Series FX (1min)": {
			"2026-03-02 09:01:00": {"1. open": "1.1001", "2. high": "1.1004", "3. low": "1.1000", "4. close": "1.1003"},
			"2026-03-02 09:00:00": {"1. open": "1.1000", "2. high": "1.1002", "3. low": "1.0999", "4. close": "1.1001"}
		}
	}`))
	defer srv.Close()

	src := NewAlphaVantageSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	series, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 100)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
	if series.Candles[0].Timestamp.After(series.Candles[1].Timestamp) {
		t.Fatal("candles not ordered oldest first")
	}
	if series.Candles[0].Volume != 0 {
		t.Fatalf("volume = %v, want 0 for FX endpoint", series.Candles[0].Volume)
	}
}

func TestAlphaVantageNoteIsQuota(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK,
		`{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is reached."}`))
	defer srv.Close()

	src := NewAlphaVantageSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	_, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 100)
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("err = %v, want ErrQuotaExceeded", err)
	}
}

func TestAlphaVantageErrorMessage(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK,
		`{"Error Message": "Invalid API call."}`))
	defer srv.Close()

	src := NewAlphaVantageSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "key")
	_, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 100)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}

func TestBinanceFetchParsesKlines(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `[
		[1772442000000, "1.1000", "1.1002", "1.0999", "1.1001", "100.5", 1772442059999],
		[1772442060000, "1.1001", "1.1004", "1.1000", "1.1003", "110.0", 1772442119999]
	]`))
	defer srv.Close()

	src := NewBinanceSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "EURUSDT")
	series, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 2)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("len = %d, want 2", series.Len())
	}
	c := series.Candles[0]
	if c.Open != 1.1 || c.Close != 1.1001 || c.Volume != 100.5 {
		t.Fatalf("candle = %+v", c)
	}
	if c.Timestamp.IsZero() || c.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp = %v, want UTC epoch time", c.Timestamp)
	}
}

func TestBinanceShortRow(t *testing.T) {
	srv := httptest.NewServer(jsonHandler(t, http.StatusOK, `[[1772442000000, "1.1"]]`))
	defer srv.Close()

	src := NewBinanceSource(xhttp.NewClient(), applogger.Nop(), srv.URL, "EURUSDT")
	_, err := src.Fetch(context.Background(), "EUR/USD", repository.I1m, 1)
	if !errors.Is(err, ErrSourceUnavailable) {
		t.Fatalf("err = %v, want ErrSourceUnavailable", err)
	}
}
