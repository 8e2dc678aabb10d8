// Package remote implements the expense-backend ports over HTTP. One call
// per operation, no retries: the orchestrator owns retry policy, and a
// duplicate POST against the submission endpoint would not be idempotent.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	dErrors "claimcheck/pkg/domain-errors"
)

const tracerName = "claimcheck/internal/review/adapters/remote"

// Client carries the shared transport for the expense-backend adapters.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tracer     trace.Tracer
}

// Option configures the Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithTimeout adjusts the default client's timeout. The explain endpoint
// fronts a language model and can be slow.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient builds a client for the expense backend at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tracer:     otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// postJSON sends one JSON request and decodes a JSON response into out.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "encode expense backend request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "build expense backend request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

// send executes the request and decodes the 2xx body into out.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "expense backend unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return errorFromResponse(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "decode expense backend response")
	}
	return nil
}

// errorDetail is the backend's error envelope.
type errorDetail struct {
	Detail string `json:"detail"`
}

// errorFromResponse turns a non-2xx response into a coded error. Client
// errors keep the backend's detail message; everything else reads as the
// backend being unavailable.
func errorFromResponse(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	detail := resp.Status
	var envelope errorDetail
	if err := json.Unmarshal(data, &envelope); err == nil && strings.TrimSpace(envelope.Detail) != "" {
		detail = strings.TrimSpace(envelope.Detail)
	}

	code := dErrors.CodeUnavailable
	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode < http.StatusInternalServerError {
		code = dErrors.CodeBadRequest
	}
	return dErrors.Newf(code, "expense backend: %s", detail)
}
