package handler

import (
	"io"
	"log/slog"
	"testing"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/trace/noop"

	"rankings-proxy/internal/client"
	"rankings-proxy/internal/config"
	"rankings-proxy/internal/metrics"
	"rankings-proxy/internal/middleware"
	"rankings-proxy/internal/service"
)

func testConfig(origin string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{BodyMaxBytes: 1 << 20},
		Backend: config.BackendConfig{
			Origin:          origin,
			LoginPath:       "/login",
			TimeoutSeconds:  10,
			IdleConnections: 10,
		},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
}

// testApp is a fully wired echo instance in front of a backend origin.
type testApp struct {
	e       *echo.Echo
	metrics *metrics.Metrics
	proxy   *ProxyHandler
	login   *LoginHandler
}

func newTestApp(t *testing.T, cfg *config.Config) *testApp {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New()
	bc := client.NewBackendClient(cfg, logger, m, noop.NewTracerProvider())

	proxy := NewProxyHandler(service.NewForwardService(bc, cfg, logger), logger)
	login, err := NewLoginHandler(service.NewLoginService(bc, cfg, logger, m), cfg, logger)
	if err != nil {
		t.Fatalf("NewLoginHandler: %v", err)
	}

	e := echo.New()
	e.Use(middleware.RequestID())
	e.Use(middleware.MetricsMiddleware(m, cfg.Metrics.Path))
	RegisterRoutes(e, proxy, login, NewHealthHandler(cfg, "test"))
	RegisterMetrics(e, cfg, m)

	return &testApp{e: e, metrics: m, proxy: proxy, login: login}
}
