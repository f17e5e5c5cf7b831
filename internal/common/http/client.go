// internal/common/http/client.go
package http

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rental-portal/internal/common/errors"
	"rental-portal/internal/common/metrics"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client talks to the backend API. Every request carries the shared secret
// header; callers add the bearer token of the signed-in user when they have one.
type Client struct {
	baseURL      string
	secretHeader string
	secret       string
	httpClient   *http.Client
	tracer       trace.Tracer
}

type Option func(*Client)

func WithSharedSecret(header, secret string) Option {
	return func(c *Client) {
		c.secretHeader = header
		c.secret = secret
	}
}

// WithHTTPClient replaces the underlying client; its Timeout is kept as given.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.tracer == nil {
		c.tracer = otel.Tracer("rental-portal/upstream")
	}
	return c
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// NewRequest builds a request for path relative to the backend base URL.
func (c *Client) NewRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.secretHeader != "" && c.secret != "" {
		req.Header.Set(c.secretHeader, c.secret)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

func (c *Client) DoWithContext(ctx context.Context, req *http.Request) (*http.Response, error) {
	req = req.WithContext(ctx)
	return c.httpClient.Do(req)
}

// DoJSON executes req, decodes a 2xx JSON body into out (when out is non-nil)
// and converts every failure into a StandardError. It never retries.
func (c *Client) DoJSON(ctx context.Context, operation string, req *http.Request, out interface{}) error {
	ctx, span := c.tracer.Start(ctx, "upstream."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("http.path", req.URL.Path),
		),
	)
	defer span.End()

	resp, err := c.DoWithContext(ctx, req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "transport_error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport error")
		if isTimeout(ctx, err) {
			return errors.NewUpstreamTimeoutError(operation)
		}
		return errors.NewUpstreamUnavailableError(operation, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(operation, "rejected").Inc()
		span.SetStatus(codes.Error, resp.Status)
		return errors.NewUpstreamRejectedError(operation, resp.StatusCode, serverMessage(resp.Body))
	}

	metrics.UpstreamRequests.WithLabelValues(operation, "ok").Inc()

	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		span.RecordError(err)
		return errors.NewUpstreamUnavailableError(operation, fmt.Errorf("decode response: %w", err))
	}
	return nil
}

// serverMessage pulls a human readable message out of an error body. The
// backend answers with {"message": ...} or {"error": ...}; plain text is used as is.
func serverMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		return payload.Error
	}

	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "<") {
		return ""
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return text
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
