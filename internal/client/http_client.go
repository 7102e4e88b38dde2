package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"inventory-crud/internal/logger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
)

var HttpClientTracer = otel.Tracer("HttpClient")

// HTTPClient is a small JSON client that propagates the active trace.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	headers map[string]string
}

// RequestOptions for request configuration
type RequestOptions struct {
	Method      string
	URL         string
	Headers     map[string]string
	QueryParams map[string]string
	Body        interface{}
}

// Response wrapper with generic type
type Response[T any] struct {
	Data       T
	StatusCode int
	Headers    http.Header
	RawBody    []byte
}

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: make(map[string]string),
	}
}

func (c *HTTPClient) SetDefaultHeader(key, value string) {
	c.headers[key] = value
}

// Send performs the request and decodes a 2xx JSON body into T. Non-2xx
// responses are returned without error; callers inspect StatusCode.
func Send[T any](ctx context.Context, c *HTTPClient, opts RequestOptions) (*Response[T], error) {
	fullURL, err := c.buildURL(opts.URL, opts.QueryParams)
	if err != nil {
		return nil, fmt.Errorf("build url: %w", err)
	}

	var bodyReader io.Reader
	if opts.Body != nil {
		b, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		bodyReader = bytes.NewReader(b)
	}

	ctx, span := HttpClientTracer.Start(ctx, "HttpClient "+opts.Method)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, opts.Method, fullURL, bodyReader)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("create request: %w", err)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	c.setHeaders(req, opts.Headers)
	if sc := span.SpanContext(); sc.IsValid() {
		req.Header.Set("X-Trace-ID", sc.TraceID().String())
	}

	logger.Info(ctx, "HttpClient request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
	)

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		logger.Error(ctx, "Failed to execute request", slog.String("error", err.Error()))
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response body: %w", err)
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	logger.Info(ctx, "HttpClient response",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.Int("status", resp.StatusCode),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	out := &Response[T]{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		RawBody:    rawBody,
	}
	if !out.IsSuccess() {
		span.SetStatus(codes.Error, resp.Status)
		return out, nil
	}
	if len(rawBody) > 0 {
		if err := json.Unmarshal(rawBody, &out.Data); err != nil {
			span.RecordError(err)
			return out, fmt.Errorf("decode response: %w", err)
		}
	}
	return out, nil
}

func (c *HTTPClient) buildURL(endpoint string, queryParams map[string]string) (string, error) {
	fullURL := endpoint
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		fullURL = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}

	if len(queryParams) == 0 {
		return fullURL, nil
	}

	u, err := url.Parse(fullURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	for k, v := range queryParams {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *HTTPClient) setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	if req.Body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

func (r *Response[T]) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

