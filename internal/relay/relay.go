// Package relay provides the HTTP transport used for the single hop to the
// relay endpoint.
package relay

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/OIRNOIR/oproxy-go/internal/config"
	"github.com/OIRNOIR/oproxy-go/internal/metrics"
	"github.com/OIRNOIR/oproxy-go/internal/middleware"
)

// Client sends physical requests to the relay endpoint.
//
// Redirects are never followed automatically: redirect handling against the
// target belongs to the relay, and locally following a relay-issued redirect
// would dial past the relay entirely.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a relay Client with connection pooling and timeouts.
// The metrics parameter is optional; pass nil to disable relay call metrics.
func NewClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *Client {
	var rt http.RoundTripper = &http.Transport{
		MaxIdleConns:        cfg.Relay.IdleConnections,
		MaxIdleConnsPerHost: cfg.Relay.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	if m != nil {
		rt = middleware.Metrics(m, rt)
	}
	if cfg.Limits.Enabled {
		limiter := rate.NewLimiter(rate.Limit(cfg.Limits.RequestsPerSecond), 1)
		rt = middleware.RateLimit(limiter, rt)
	}
	rt = middleware.Logging(logger.With("component", "relay_client"), rt)

	httpClient := &http.Client{
		Transport: rt,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	// An opt-in deadline only: by default the call runs until it finishes or
	// the caller's ctx says otherwise. http.Client.Timeout also covers body
	// reads, so installing one unasked would cut off slow tunneled
	// downloads mid-stream. The dial and idle timeouts above are connection
	// hygiene, not a call deadline.
	if cfg.Relay.TimeoutSeconds > 0 {
		httpClient.Timeout = time.Duration(cfg.Relay.TimeoutSeconds) * time.Second
	}

	return &Client{
		httpClient: httpClient,
		logger:     logger.With("component", "relay_client"),
	}
}

// Do executes one physical request against the relay and returns the raw
// response. The caller is responsible for closing the response body.
// Transport failures (network errors, context cancellation) are returned
// unchanged apart from wrapping; there are no retries.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to the caller
	if err != nil {
		return nil, fmt.Errorf("relay request: %w", err)
	}
	return resp, nil
}
