// Package apiclient is the HTTP boundary to the fleet API. A single Client is
// shared by the session and every entity store so that request interceptors
// and the 401 hook apply process-wide.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/railfleet/fleet-state/internal/core/domain"
	"github.com/railfleet/fleet-state/internal/core/ports"
	"github.com/railfleet/fleet-state/internal/infrastructure/metrics"
)

// maxErrorBody caps how much of an error response is kept as payload.
const maxErrorBody = 64 << 10

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each request. Zero leaves it to the transport.
	Timeout time.Duration
	// HTTPClient overrides the underlying client, e.g. in tests.
	HTTPClient *http.Client
}

// Client implements ports.FleetAPI over net/http with JSON bodies.
type Client struct {
	baseURL string
	http    *http.Client
	log     zerolog.Logger

	mu           sync.RWMutex
	interceptors []ports.RequestInterceptor
	unauthorized []ports.UnauthorizedHook
}

var (
	_ ports.FleetAPI      = (*Client)(nil)
	_ ports.Interceptable = (*Client)(nil)
)

// New returns a Client for opts.BaseURL.
func New(opts Options, log zerolog.Logger) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    hc,
		log:     log,
	}
}

// UseRequest registers an interceptor applied to every outgoing request in
// registration order.
func (c *Client) UseRequest(fn ports.RequestInterceptor) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.interceptors = append(c.interceptors, fn)
}

// OnUnauthorized registers a hook run for every 401 response.
func (c *Client) OnUnauthorized(fn ports.UnauthorizedHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unauthorized = append(c.unauthorized, fn)
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	start := time.Now()
	reqErr := func(err error) *domain.RequestError {
		return &domain.RequestError{Kind: domain.KindTransport, Method: method, Path: path, Err: err}
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return reqErr(fmt.Errorf("encode body: %w", err))
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return reqErr(err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.mu.RLock()
	interceptors := c.interceptors
	c.mu.RUnlock()
	for _, fn := range interceptors {
		fn(req)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(method, "transport").Inc()
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("fleet api unreachable")
		return reqErr(err)
	}
	defer func() { _ = resp.Body.Close() }()

	metrics.RequestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	defer func() {
		metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rerr := decodeError(resp, method, path)
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("message", rerr.Message).
			Msg("fleet api request failed")
		if resp.StatusCode == http.StatusUnauthorized {
			c.fireUnauthorized(ctx)
		}
		return rerr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return &domain.RequestError{
			Kind:   domain.KindServer,
			Method: method,
			Path:   path,
			Status: resp.StatusCode,
			Err:    fmt.Errorf("decode response: %w", err),
		}
	}
	return nil
}

func (c *Client) fireUnauthorized(ctx context.Context) {
	c.mu.RLock()
	hooks := c.unauthorized
	c.mu.RUnlock()
	for _, fn := range hooks {
		fn(ctx)
	}
}

// errorBody is the fleet API error envelope. Older endpoints use "error".
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func decodeError(resp *http.Response, method, path string) *domain.RequestError {
	rerr := &domain.RequestError{
		Kind:   domain.KindForStatus(resp.StatusCode),
		Method: method,
		Path:   path,
		Status: resp.StatusCode,
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(bytes.TrimSpace(raw)) == 0 {
		return rerr
	}
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		rerr.Payload = json.RawMessage(raw)
		rerr.Message = eb.Message
		if rerr.Message == "" {
			rerr.Message = eb.Error
		}
	}
	return rerr
}
