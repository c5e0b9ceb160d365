package api

import (
	"errors"

	"SigPulse/internal/domain/models"
	domrepo "SigPulse/internal/domain/repository"
	"SigPulse/internal/service/indicator"
	"SigPulse/internal/service/marketdata"
	"SigPulse/internal/usecase"
	xhttp "SigPulse/pkg/http"
	xlogger "SigPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// SignalsHandler exposes the evaluation pipeline over HTTP.
type SignalsHandler struct {
	logger    *xlogger.Logger
	evaluator *usecase.Evaluator
	settings  *usecase.Settings
	store     domrepo.SignalStore
	stream    *SignalStream
	pair      string
}

// NewSignalsHandler creates the API handler. store and stream may be nil
// when those integrations are disabled.
func NewSignalsHandler(l *xlogger.Logger, ev *usecase.Evaluator, settings *usecase.Settings, store domrepo.SignalStore, stream *SignalStream, pair string) *SignalsHandler {
	return &SignalsHandler{
		logger:    l,
		evaluator: ev,
		settings:  settings,
		store:     store,
		stream:    stream,
		pair:      pair,
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/signal", h.Evaluate)
	g.GET("/signals/latest", h.Latest)
	g.GET("/signals/history", h.History)
	g.GET("/stats", h.Stats)
	g.GET("/settings", h.Settings)
	g.PATCH("/settings", h.PatchSettings)

	if h.stream != nil {
		e.GET("/ws/signals", h.stream.Serve)
	}
}

// Evaluate runs an on-demand evaluation and returns the full analysis.
func (h *SignalsHandler) Evaluate(c echo.Context) error {
	req := &models.EvaluateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	pair := req.Pair
	if pair == "" {
		pair = h.pair
	}
	interval := domrepo.NormalizeInterval(req.Interval)

	analysis, err := h.evaluator.Evaluate(c.Request().Context(), pair, interval, req.Fresh)
	if err != nil {
		h.logger.Error("evaluation failed", xlogger.Error(err))
		switch {
		case errors.Is(err, marketdata.ErrNoData):
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("no candle data available").WithError(err))
		case errors.Is(err, indicator.ErrInsufficientHistory):
			return xhttp.AppErrorResponse(c, xhttp.UnavailableError("not enough candle history").WithError(err))
		default:
			return xhttp.AppErrorResponse(c, err)
		}
	}
	return xhttp.SuccessResponse(c, analysis)
}

// Latest returns the most recent analysis without triggering a new one.
func (h *SignalsHandler) Latest(c echo.Context) error {
	analysis := h.evaluator.Latest()
	if analysis == nil {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no evaluation has completed yet"))
	}
	return xhttp.SuccessResponse(c, analysis)
}

// History returns recent stored signals.
func (h *SignalsHandler) History(c echo.Context) error {
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError("signal history is not enabled"))
	}
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	signals, err := h.store.Recent(c.Request().Context(), req.Pair, req.Limit)
	if err != nil {
		h.logger.Error("history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, signals, int64(len(signals)))
}

// Stats returns cumulative engine counters.
func (h *SignalsHandler) Stats(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.evaluator.Stats())
}

// Settings returns the live tunables.
func (h *SignalsHandler) Settings(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.settings.Current())
}

// PatchSettings applies whitelisted tunable overrides at runtime.
func (h *SignalsHandler) PatchSettings(c echo.Context) error {
	req := &models.SettingsPatchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	cur := h.settings.Current()
	minBuy, maxSell := cur.MinBuyScore, cur.MaxSellScore
	if req.MinBuyScore != nil {
		minBuy = *req.MinBuyScore
	}
	if req.MaxSellScore != nil {
		maxSell = *req.MaxSellScore
	}
	if maxSell >= minBuy {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("max_sell_score must be below min_buy_score"))
	}

	next, changed := h.settings.Apply(req)
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"changed":  changed,
		"settings": next,
	})
}

// Health reports liveness plus store health when the store is enabled.
func (h *SignalsHandler) Health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			status["store"] = "unreachable"
		} else {
			status["store"] = "ok"
		}
	}
	return xhttp.SuccessResponse(c, status)
}
