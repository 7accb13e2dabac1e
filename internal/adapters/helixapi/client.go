package helixapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/emiliopalmerini/helix-console/internal/ports"
)

// DefaultTimeout bounds every backend request.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the backend. Message carries the
// backend's detail field when it sent one.
type APIError struct {
	Status    int
	Message   string
	Operation string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: backend returned %d %s", e.Operation, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %s (HTTP %d)", e.Operation, e.Message, e.Status)
}

// HTTPStatus is the status code the backend answered with.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Client talks to the Helix backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	metrics    ports.ConsoleMetrics
}

var _ ports.HelixAPI = (*Client)(nil)

// Option customizes a Client.
type Option func(*Client)

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l.With(zap.String("component", "helixapi")) }
}

func WithMetrics(m ports.ConsoleMetrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// NewClient creates a client for the backend at cfg.BaseURL.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("helix API base URL not configured")
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("parsing API URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized backend URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any

	// raw bodies bypass JSON encoding, e.g. multipart uploads.
	rawBody     io.Reader
	contentType string
}

func (c *Client) newHTTPRequest(ctx context.Context, r request) (*http.Request, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	contentType := r.contentType
	switch {
	case r.rawBody != nil:
		body = r.rawBody
	case r.body != nil:
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("encoding %s request: %w", r.op, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// send executes r and returns the response body of a 2xx answer.
func (c *Client) send(ctx context.Context, r request) ([]byte, error) {
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(ctx, r.op, 0, true)
		c.logger.Debug("request failed", zap.String("op", r.op), zap.Error(err))
		return nil, fmt.Errorf("%s: executing request: %w", r.op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(ctx, r.op, resp.StatusCode, true)
		return nil, fmt.Errorf("%s: reading response: %w", r.op, err)
	}

	failed := resp.StatusCode < 200 || resp.StatusCode >= 300
	c.record(ctx, r.op, resp.StatusCode, failed)
	c.logger.Debug("backend call",
		zap.String("op", r.op),
		zap.String("method", r.method),
		zap.String("path", r.path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if failed {
		return nil, &APIError{Status: resp.StatusCode, Message: detailMessage(data), Operation: r.op}
	}
	return data, nil
}

// do executes r and decodes a JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out any) error {
	data, err := c.send(ctx, r)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s: decoding response: %w", r.op, err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, op string, status int, failed bool) {
	if c.metrics != nil {
		c.metrics.RecordAPICall(ctx, op, status, failed)
	}
}

// detailMessage extracts the backend's detail field. Validation failures
// carry a list of {loc, msg} objects instead of a string.
func detailMessage(data []byte) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err != nil || len(body.Detail) == 0 {
		return strings.TrimSpace(string(data))
	}

	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(body.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if len(it.Loc) > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[len(it.Loc)-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return string(body.Detail)
}

func pageQuery(skip, limit int) url.Values {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}
