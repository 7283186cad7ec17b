// Package server binds the listener and runs the Echo server inside the fx
// lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/labstack/echo/v4"
	proxyproto "github.com/pires/go-proxyproto"
	"go.uber.org/fx"

	"rankings-proxy/internal/config"
)

// proxyHeaderTimeout bounds how long a new connection may take to send its
// PROXY protocol header.
const proxyHeaderTimeout = 5 * time.Second

// Listen binds the configured address. When proxy_protocol is enabled the
// listener accepts PROXY v1/v2 headers so the remote address seen by the
// handlers is the original client rather than the load balancer.
func Listen(cfg config.ServerConfig) (net.Listener, error) {
	addr := cfg.Addr()
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	if !cfg.ProxyProtocol {
		return ln, nil
	}
	return &proxyproto.Listener{
		Listener:          ln,
		ReadHeaderTimeout: proxyHeaderTimeout,
	}, nil
}

// Register starts e on OnStart and shuts it down gracefully on OnStop.
func Register(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ln, err := Listen(cfg.Server)
			if err != nil {
				return err
			}
			logger.Info("starting server",
				"addr", ln.Addr().String(),
				"backend", cfg.Backend.Origin,
				"body_limit", humanize.IBytes(uint64(cfg.Server.BodyMaxBytes)),
				"proxy_protocol", cfg.Server.ProxyProtocol,
			)
			go func() {
				if err := e.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
