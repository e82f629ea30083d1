package lnurl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/btcsuite/btclog"

	"github.com/fedibtc/fedicore/internal/metrics"
	"github.com/fedibtc/fedicore/internal/transport"
	fedierr "github.com/fedibtc/fedicore/pkg/errors"
)

// ErrService matches every ServiceError.
var ErrService = fedierr.ErrLNURLService //nolint:gochecknoglobals // alias of sentinel

// Defaults for Client.
const (
	DefaultTimeout      = 10 * time.Second
	DefaultMaxBodyBytes = 64 * 1024
)

// ClientOptions configures a Client. Zero values select defaults.
type ClientOptions struct {
	HTTPClient   *http.Client
	Timeout      time.Duration
	Limiter      *transport.RateLimiter
	Metrics      *metrics.Metrics
	MaxBodyBytes int64

	// DisallowHTTPOnion rejects plain-http onion endpoints.
	DisallowHTTPOnion bool
}

// Client fetches LNURL parameters.
type Client struct {
	http         *http.Client
	limiter      *transport.RateLimiter
	metrics      *metrics.Metrics
	maxBodyBytes int64
	allowOnion   bool
	log          btclog.Logger
}

// NewClient creates a Client. A nil opts selects all defaults.
func NewClient(opts *ClientOptions) *Client {
	if opts == nil {
		opts = &ClientOptions{}
	}

	c := &Client{
		http:         opts.HTTPClient,
		limiter:      opts.Limiter,
		metrics:      opts.Metrics,
		maxBodyBytes: opts.MaxBodyBytes,
		allowOnion:   !opts.DisallowHTTPOnion,
		log:          log,
	}

	if c.http == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.limiter == nil {
		c.limiter = transport.DefaultRateLimiter()
	}
	if c.metrics == nil {
		c.metrics = metrics.Global
	}
	if c.maxBodyBytes <= 0 {
		c.maxBodyBytes = DefaultMaxBodyBytes
	}
	return c
}

// Fetch retrieves the LNURL parameters served at rawURL.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	resp, err := c.fetch(ctx, rawURL)
	c.metrics.RecordLNURLFetch(err)
	return resp, err
}

func (c *Client) fetch(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "Invalid URL %q", rawURL)
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
	case "http":
		if !IsOnion(u.Host) || !c.allowOnion {
			return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "Invalid URL %q: https required", rawURL)
		}
	default:
		return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "Invalid URL %q", rawURL)
	}

	waited, err := c.limiter.Wait(ctx, u.Host)
	if err != nil {
		return nil, fmt.Errorf("waiting for %s: %w", u.Host, err)
	}
	if waited > time.Millisecond {
		c.log.Debugf("Throttled request to %s for %v", u.Host, waited)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "Invalid URL %q: %v", rawURL, err)
	}
	req.Header.Set("Accept", "application/json")

	c.log.Debugf("Fetching lnurl parameters from %s", u.Host)

	httpResp, err := c.http.Do(req)
	if err != nil {
		return nil, fedierr.Wrap(fedierr.ErrNetworkError, "Network request failed: %v", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, c.maxBodyBytes+1))
	if err != nil {
		return nil, fedierr.Wrap(fedierr.ErrNetworkError, "Network request failed: reading body: %v", err)
	}
	if int64(len(body)) > c.maxBodyBytes {
		return nil, fedierr.Wrap(fedierr.ErrLNURLService, "response from %s exceeds %d bytes", u.Host, c.maxBodyBytes)
	}

	// Services report errors with 200 and non-200 alike, so check the
	// status envelope before the HTTP status.
	var status ServiceError
	if json.Unmarshal(body, &status) == nil && strings.EqualFold(status.Status, "ERROR") {
		return nil, &status
	}

	if httpResp.StatusCode >= http.StatusBadRequest {
		return nil, fedierr.Wrap(fedierr.ErrNetworkError,
			"Network request failed: %s returned status %d", u.Host, httpResp.StatusCode)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "invalid JSON from %s: %v", u.Host, err)
	}
	if out.Tag == "" {
		return nil, fedierr.Wrap(fedierr.ErrInvalidLNURL, "invalid lnurl response from %s: missing tag", u.Host)
	}

	out.URL = rawURL
	out.Domain = u.Hostname()
	return &out, nil
}
