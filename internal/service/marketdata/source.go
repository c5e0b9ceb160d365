package marketdata

import (
	"errors"
	"strings"

	xhttp "SigPulse/pkg/http"
)

var (
	// ErrNoData means every configured source failed or returned an
	// unusable window.
	ErrNoData = errors.New("no candle data available")

	// ErrSourceUnavailable means one source failed; the fetcher falls
	// through to the next one.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrQuotaExceeded means the source rejected the call for rate or
	// quota reasons and should be deprioritized for a while.
	ErrQuotaExceeded = errors.New("source quota exceeded")
)

// classifyStatus maps an upstream HTTP failure onto a source error.
func classifyStatus(err error) error {
	var se *xhttp.StatusError
	if errors.As(err, &se) {
		if se.Code == 429 || se.Code == 402 {
			return ErrQuotaExceeded
		}
	}
	return ErrSourceUnavailable
}

// splitPair breaks "EUR/USD" into base and quote currencies.
func splitPair(pair string) (string, string) {
	parts := strings.SplitN(pair, "/", 2)
	if len(parts) != 2 {
		return pair, ""
	}
	return parts[0], parts[1]
}
