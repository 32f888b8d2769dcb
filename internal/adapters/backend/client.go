// Package backend is the HTTP client for the system-of-record API.
// Every call forwards the caller's bearer token and is bounded by a fixed timeout.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"studydesk/internal/adapters/http/perf"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client issues JSON requests against the backend base URL.
type Client struct {
	baseURL   string
	http      *http.Client
	collector *perf.Collector
	newID     func() string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient uses a copy of hc for transport, keeping the client's timeout.
// hc itself is never modified.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		cp := *hc
		cp.Timeout = c.http.Timeout
		c.http = &cp
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithCollector records one perf entry per call.
func WithCollector(collector *perf.Collector) Option {
	return func(c *Client) {
		c.collector = collector
	}
}

// NewClient creates a client rooted at baseURL (e.g. "http://localhost:5000/api").
// PRE: baseURL is an absolute http(s) URL
// POST: Returns a client with DefaultTimeout
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: DefaultTimeout},
		newID:   func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get sends GET path?query and decodes the JSON response into out.
// PRE: path starts with "/"; out is a pointer or nil
// POST: Returns *Error on transport failure, timeout, non-2xx or bad JSON
func (c *Client) Get(ctx context.Context, path string, query url.Values, token string, out any) error {
	_, err := c.do(ctx, http.MethodGet, path, query, nil, token, out)
	return err
}

// Post sends body as JSON and decodes the JSON response into out.
// PRE: path starts with "/"; out is a pointer or nil
// POST: Returns *Error on transport failure, timeout, non-2xx or bad JSON
func (c *Client) Post(ctx context.Context, path string, body any, token string, out any) error {
	_, err := c.do(ctx, http.MethodPost, path, nil, body, token, out)
	return err
}

// Delete sends DELETE path and returns the response status.
// PRE: path starts with "/"
// POST: status is non-zero whenever a response was received; err is *Error for non-2xx
func (c *Client) Delete(ctx context.Context, path string, token string) (int, error) {
	return c.do(ctx, http.MethodDelete, path, nil, nil, token, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, token string, out any) (int, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("build %s %s request: %w", method, path, err)
	}
	requestID := c.newID()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		kind := KindUnavailable
		if isTimeout(err) {
			kind = KindTimeout
		}
		c.record(method, path, 0, true, start)
		slog.Warn("backend_error", "request_id", requestID, "method", method, "path", path, "kind", kind.String(), "error", err.Error())
		return 0, &Error{Kind: kind, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.record(method, path, resp.StatusCode, true, start)
		kind := KindUnavailable
		if isTimeout(err) {
			kind = KindTimeout
		}
		return resp.StatusCode, &Error{Kind: kind, Method: method, Path: path, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.record(method, path, resp.StatusCode, true, start)
		msg, generic := errorMessage(data, resp.StatusCode)
		slog.Warn("backend_error", "request_id", requestID, "method", method, "path", path, "kind", KindRejected.String(), "status", resp.StatusCode)
		return resp.StatusCode, &Error{
			Kind:    KindRejected,
			Method:  method,
			Path:    path,
			Status:  resp.StatusCode,
			Message: msg,
			Generic: generic,
		}
	}

	c.record(method, path, resp.StatusCode, false, start)
	slog.Debug("backend_call", "request_id", requestID, "method", method, "path", path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())

	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, &Error{Kind: KindDecode, Method: method, Path: path, Status: resp.StatusCode, Err: err}
		}
	}
	return resp.StatusCode, nil
}

func (c *Client) record(method, path string, status int, failed bool, start time.Time) {
	c.collector.Record(perf.Entry{
		Kind:       perf.KindBackend,
		Path:       method + " " + path,
		StatusCode: status,
		Failed:     failed,
		DurationMs: float64(time.Since(start).Microseconds()) / 1000.0,
		Timestamp:  start,
	})
}

// errorMessage extracts {"message": "..."} from an error body.
// The second result is true when the status text was used instead.
func errorMessage(data []byte, status int) (string, bool) {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Message != "" {
			return body.Message, false
		}
		if body.Error != "" {
			return body.Error, false
		}
	}
	return genericMessage(status), true
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
