package backend

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

	"eventix-gateway/internal/logger"
)

// DefaultTimeout is the fixed per-request timeout of the ticketing API. No request is retried.
const DefaultTimeout = 10 * time.Second

// ErrUnavailable marks transport failures: the backend could not be reached or timed out.
var ErrUnavailable = errors.New("backend unavailable")

// ObserveFunc receives one sample per backend round trip. status is 0 on transport failure.
type ObserveFunc func(method, route string, status int, elapsed time.Duration)

// Client calls the ticketing REST API rooted at /api/v1.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger

	Observe ObserveFunc
}

func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// APIError is a non-2xx answer of the backend.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Route      string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend %s %s: %d %s", e.Method, e.Route, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("backend %s %s: status %d", e.Method, e.Route, e.StatusCode)
}

// StatusOf returns the backend status carried by err, or 0 when err is not an APIError.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// MessageOf returns the backend message carried by err, or fallback.
func MessageOf(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader, contentType string) (*http.Request, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	for _, cookie := range CredentialsFrom(ctx) {
		req.AddCookie(&http.Cookie{Name: cookie.Name, Value: cookie.Value})
	}
	return req, nil
}

// doJSON sends an optional JSON body and decodes a JSON answer into out.
func (c *Client) doJSON(ctx context.Context, method, route, path string, query url.Values, in, out interface{}) (*http.Response, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s request: %w", route, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, query, body, contentType)
	if err != nil {
		return nil, err
	}
	return c.send(req, route, out)
}

func (c *Client) send(req *http.Request, route string, out interface{}) (*http.Response, error) {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(req.Method, route, 0, time.Since(start))
		c.logger.LogBackend(req.Method, req.URL.Path, 0, err.Error())
		return nil, fmt.Errorf("%w: %s %s: %w", ErrUnavailable, req.Method, route, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("BACKEND", fmt.Sprintf("Error closing response body: %v", cerr))
		}
	}()
	c.observe(req.Method, route, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp, req.Method, route)
		c.logger.LogBackend(req.Method, req.URL.Path, resp.StatusCode, apiErr.Message)
		return resp, apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return resp, fmt.Errorf("failed to decode %s response: %w", route, err)
	}
	return resp, nil
}

func (c *Client) observe(method, route string, status int, elapsed time.Duration) {
	if c.Observe != nil {
		c.Observe(method, route, status, elapsed)
	}
}

func decodeAPIError(resp *http.Response, method, route string) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode, Method: method, Route: route}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
		return apiErr
	}

	if text := strings.TrimSpace(string(raw)); len(text) > 0 && len(text) <= 200 {
		apiErr.Message = text
	}
	return apiErr
}
