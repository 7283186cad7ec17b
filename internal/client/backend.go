// Package client provides the outbound HTTP client for the backend service.
package client

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"rankings-proxy/internal/config"
	"rankings-proxy/internal/metrics"
	"rankings-proxy/internal/model"
)

// BackendClient sends requests to the backend service. Redirects are never
// followed: every 3xx is returned to the caller as-is.
type BackendClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// NewBackendClient creates a BackendClient with connection pooling. The
// configured timeout applies to the response headers only.
// The metrics parameter is optional; pass nil to disable backend metrics recording.
func NewBackendClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics, tp trace.TracerProvider) *BackendClient {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        cfg.Backend.IdleConnections,
		MaxIdleConnsPerHost: cfg.Backend.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		// The body is relayed byte for byte; never negotiate or decode gzip here.
		DisableCompression: true,
		// Only the wait for response headers is bounded. Streamed bodies run
		// as long as the caller's request context stays alive.
		ResponseHeaderTimeout: time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
	return &BackendClient{
		httpClient: &http.Client{
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:  logger.With("component", "backend_client"),
		metrics: m,
		tracer:  tp.Tracer("rankings-proxy/client"),
	}
}

// Do executes an HTTP request against the backend and returns the raw response.
// The caller is responsible for closing the response body.
func (c *BackendClient) Do(req *http.Request) (*http.Response, error) {
	ctx, span := c.tracer.Start(req.Context(), "backend "+req.Method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
		),
	)
	defer span.End()

	c.logger.Debug("backend request",
		"method", req.Method,
		"path", req.URL.Path,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req.WithContext(ctx)) //nolint:bodyclose // body ownership transfers to caller
	duration := time.Since(start).Seconds()
	method := metrics.NormalizeMethod(req.Method)

	if c.metrics != nil {
		c.metrics.BackendDuration.WithLabelValues(method).Observe(duration)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "backend request failed")
		return nil, fmt.Errorf("backend request: %w", err)
	}

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	if resp.StatusCode >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(resp.StatusCode))
	}
	if c.metrics != nil {
		c.metrics.BackendResponses.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()
	}
	return resp, nil
}

// DoStream executes a request and returns the response body as a stream.
// The caller is responsible for closing the returned body.
// The provided context controls the lifetime of the backend request:
// when the context is canceled (e.g. the caller disconnects), the backend
// request is canceled too.
//
// Bodies of type *bytes.Reader, *bytes.Buffer and *strings.Reader are sent
// with an exact Content-Length; a nil body sends none.
func (c *BackendClient) DoStream(ctx context.Context, method, url, host string, header http.Header, body io.Reader) (*model.ProxyResponse, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("build backend request: %w", err)
	}
	req.Header = header
	if host != "" {
		req.Host = host
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	return &model.ProxyResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}
