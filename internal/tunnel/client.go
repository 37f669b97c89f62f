// Package tunnel implements the HTTP-tunneling client: it serializes a
// logical request into envelope headers addressed to one fixed relay
// endpoint, issues the physical call, and rebuilds a faithful response from
// the relay's reply, applying the side-channel status and header overrides.
package tunnel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/OIRNOIR/oproxy-go/internal/model"
	"github.com/OIRNOIR/oproxy-go/internal/relay"
)

// ErrEmptyRelayEndpoint is returned by NewClient for a blank relay endpoint.
// An empty endpoint can never be a valid destination and must not be
// discovered only at call time.
var ErrEmptyRelayEndpoint = errors.New("tunnel: relay endpoint must not be empty")

// Client tunnels logical HTTP requests through a single relay endpoint.
//
// A Client is stateless between calls: every Tunnel invocation builds a
// fresh envelope and produces a fresh response, so concurrent calls need no
// coordination.
type Client struct {
	relayURL  string
	transport *relay.Client
	logger    *slog.Logger
}

// NewClient creates a Client for the given relay endpoint.
func NewClient(relayURL string, transport *relay.Client, logger *slog.Logger) (*Client, error) {
	if relayURL == "" {
		return nil, ErrEmptyRelayEndpoint
	}
	if _, err := url.Parse(relayURL); err != nil {
		return nil, fmt.Errorf("tunnel: parse relay endpoint: %w", err)
	}

	return &Client{
		relayURL:  relayURL,
		transport: transport,
		logger:    logger.With("component", "tunnel_client"),
	}, nil
}

// Tunnel sends the logical request described by opts to target via the
// relay and returns the reconstructed response.
//
// The caller reads the returned value exactly like a direct response from
// target: StatusCode and Header already carry the side-channel overrides,
// and the relay's own physical headers sit under ProxyHeader. The caller is
// responsible for closing the response body. Transport errors, including
// cancellation through ctx, propagate unchanged; there are no retries.
func (c *Client) Tunnel(ctx context.Context, target string, opts *model.RequestOptions) (*model.Response, error) {
	if opts == nil {
		opts = &model.RequestOptions{}
	}

	envelope, err := buildEnvelope(target, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, resolveMethod(opts), c.relayURL, opts.Body)
	if err != nil {
		return nil, fmt.Errorf("tunnel: build relay request: %w", err)
	}
	req.Header = envelope
	if opts.Keepalive != nil && !*opts.Keepalive {
		req.Close = true
	}

	c.logger.Debug("tunneling request",
		"method", req.Method,
		"target", target,
	)

	resp, err := c.transport.Do(req)
	if err != nil {
		return nil, err
	}

	// Resolve the logical status and headers eagerly, before the caller
	// sees anything: the returned value is immutable and owned outright,
	// the physical reply is discarded after extraction.
	status, err := resolveStatus(resp)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	header, err := resolveHeader(resp)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}

	return &model.Response{
		StatusCode:  status,
		Status:      statusText(resp, status),
		Header:      header.Clone(),
		Body:        resp.Body,
		ProxyHeader: resp.Header.Clone(),
	}, nil
}

// statusText picks the status text to expose. When the side channel
// overrode the code, the physical reply's reason phrase no longer matches
// it, so the canonical text for the resolved code is used instead (empty
// for unknown codes).
func statusText(resp *http.Response, resolved int) string {
	if resolved != resp.StatusCode {
		return http.StatusText(resolved)
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
}
