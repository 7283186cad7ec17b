package handler

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"rankings-proxy/internal/config"
	"rankings-proxy/internal/metrics"
	"rankings-proxy/internal/middleware"
)

// RegisterRoutes wires all route handlers onto the Echo instance. Only the
// locally rendered routes get security headers.
func RegisterRoutes(e *echo.Echo, proxy *ProxyHandler, login *LoginHandler, health *HealthHandler) {
	local := middleware.SecurityHeaders()

	e.GET("/healthz", health.Healthz, local)
	e.GET("/proxy/status", health.Status, local)
	e.GET("/login", login.Show, local)

	// The bare prefix forwards with an empty suffix: /api?x=1 goes to {origin}/?x=1.
	e.Match(ProxiedMethods, strings.TrimSuffix(APIPrefix, "/"), proxy.Handle)
	e.Match(ProxiedMethods, APIPrefix+"*", proxy.Handle)
}

// RegisterMetrics exposes the Prometheus registry when metrics are enabled.
func RegisterMetrics(e *echo.Echo, cfg *config.Config, m *metrics.Metrics) {
	if !cfg.Metrics.Enabled {
		return
	}
	e.GET(cfg.Metrics.Path, echo.WrapHandler(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})))
}
