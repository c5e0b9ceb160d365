package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SigPulse/internal/domain/models"
	"SigPulse/internal/domain/repository"
	xhttp "SigPulse/pkg/http"
	applogger "SigPulse/pkg/logger"
)

// ErrTimeout means the advisory service did not answer inside its budget.
var ErrTimeout = errors.New("advisory timeout")

// Client scores market snapshots through an external advisory HTTP service.
type Client struct {
	client  *xhttp.Client
	logger  *applogger.Logger
	baseURL string
	timeout time.Duration
}

// NewClient creates an advisory client. timeout bounds each scoring call.
func NewClient(l *applogger.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Client{
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
		logger:  l,
		baseURL: baseURL,
		timeout: timeout,
	}
}

type scoreResponse struct {
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale"`
}

// Score posts the snapshot and returns the advisory score in 0..100 with a
// short rationale. Timeouts surface as ErrTimeout so callers can continue
// on technicals alone.
func (c *Client) Score(ctx context.Context, snap *models.MarketSnapshot) (float64, string, error) {
	if c.baseURL == "" {
		return 0, "", fmt.Errorf("advisory url not configured")
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var resp scoreResponse
	err := c.client.SendAndParse(callCtx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.baseURL + "/score",
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: snap,
	}, &resp)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			return 0, "", ErrTimeout
		}
		return 0, "", fmt.Errorf("advisory score: %w", err)
	}

	if resp.Score < 0 || resp.Score > 100 {
		c.logger.Warn("advisory score out of range", applogger.Float64("score", resp.Score))
		return 0, "", fmt.Errorf("advisory score out of range: %v", resp.Score)
	}
	return resp.Score, resp.Rationale, nil
}

var _ repository.Advisor = (*Client)(nil)
