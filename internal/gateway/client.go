// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package gateway is the single configured HTTP client every domain talks through.
// It reduces every transport outcome to either a *Response (the server answered,
// whatever the status) or a normalized *Error.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ManuGH/storefront/internal/log"
	"github.com/ManuGH/storefront/internal/metrics"
	"github.com/ManuGH/storefront/internal/platform/httpx"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// APIPrefix is appended to the configured origin.
	APIPrefix = "/api"

	// HeaderRequestID carries the per-request correlation id.
	HeaderRequestID = "X-Request-ID"

	contentTypeJSON = "application/json"
	maxBodyBytes    = 10 << 20
)

// Config holds gateway configuration.
type Config struct {
	BaseURL    string            // origin, e.g. https://shop.example.com
	Timeout    time.Duration     // ignored when HTTPClient is set
	Headers    map[string]string // default headers merged under caller headers
	UserAgent  string
	RateLimit  float64 // requests per second, <= 0 disables client-side limiting
	Burst      int
	HTTPClient *http.Client
}

// Options describe one outbound call.
type Options struct {
	Headers map[string]string
	// Body is nil, a *Form, raw JSON bytes, or any value encodable with encoding/json.
	Body  any
	Query url.Values
}

// Response is the success envelope: the server was reached.
type Response struct {
	Status int
	Header http.Header
	Data   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return nil
	}
	return json.Unmarshal(r.Data, v)
}

// Client is stateless and safe for concurrent use by all domains.
type Client struct {
	base    string
	headers http.Header
	http    *http.Client
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a gateway bound to cfg.BaseURL + "/api".
func New(cfg Config) (*Client, error) {
	origin := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if origin == "" {
		return nil, fmt.Errorf("gateway: base URL is required")
	}
	u, err := url.Parse(origin)
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("gateway: base URL has no host")
	}

	headers := http.Header{}
	headers.Set("Accept", contentTypeJSON)
	headers.Set("Content-Type", contentTypeJSON)
	for k, v := range cfg.Headers {
		headers.Set(k, v)
	}
	if cfg.UserAgent != "" {
		headers.Set("User-Agent", cfg.UserAgent)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = httpx.NewClient(httpx.Options{Timeout: cfg.Timeout, Traced: true})
	}

	c := &Client{
		base:    origin + APIPrefix,
		headers: headers,
		http:    hc,
		logger:  log.WithComponent("gateway"),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	c.logger.Debug().Str(log.FieldBaseURL, c.base).Msg("gateway configured")
	return c, nil
}

// BaseURL returns the effective API base including the /api prefix.
func (c *Client) BaseURL() string {
	return c.base
}

// Request performs exactly one call. Any received response is returned as a
// *Response regardless of status; failures are *Error.
func (c *Client) Request(ctx context.Context, method, path string, opts Options) (*Response, error) {
	if ctx == nil {
		return nil, c.fail(method, path, unexpected(errors.New("nil context")))
	}
	logger := log.WithContext(ctx, c.logger)

	req, err := c.build(ctx, method, path, opts)
	if err != nil {
		return nil, c.fail(method, path, unexpected(err))
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, c.fail(method, path, unexpected(fmt.Errorf("rate limit wait: %w", err)))
		}
	}

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(method, path, noResponse(err))
	}
	defer func() { _ = res.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, c.fail(method, path, noResponse(fmt.Errorf("read body: %w", err)))
	}
	elapsed := time.Since(start)

	metrics.ObserveGatewayRequest(method, metrics.StatusClass(res.StatusCode), elapsed)
	logger.Debug().
		Str(log.FieldMethod, method).
		Str(log.FieldPath, path).
		Int(log.FieldStatus, res.StatusCode).
		Dur(log.FieldDuration, elapsed).
		Str(log.FieldRequestID, req.Header.Get(HeaderRequestID)).
		Msg("request completed")

	return &Response{Status: res.StatusCode, Header: res.Header, Data: body}, nil
}

func (c *Client) build(ctx context.Context, method, path string, opts Options) (*http.Request, error) {
	if method == "" {
		return nil, errors.New("method is required")
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u, err := url.Parse(c.base + path)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if len(opts.Query) > 0 {
		q := u.Query()
		for k, vs := range opts.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	headers := c.headers.Clone()
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}

	var body io.Reader
	switch b := opts.Body.(type) {
	case nil:
	case *Form:
		buf, contentType, err := b.encode()
		if err != nil {
			return nil, err
		}
		body = buf
		headers.Set("Content-Type", contentType)
	case json.RawMessage:
		body = bytes.NewReader(b)
	case []byte:
		body = bytes.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header = headers

	rid := log.RequestIDFromContext(ctx)
	if rid == "" {
		rid = uuid.NewString()
	}
	req.Header.Set(HeaderRequestID, rid)
	return req, nil
}

func (c *Client) fail(method, path string, e *Error) *Error {
	outcome := "local_error"
	if errors.Is(e, ErrNoResponse) {
		outcome = "no_response"
	}
	metrics.ObserveGatewayRequest(method, outcome, 0)
	c.logger.Warn().
		Str(log.FieldMethod, method).
		Str(log.FieldPath, path).
		Str("outcome", outcome).
		Err(e.Err).
		Msg(e.Message)
	return e
}
