package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"rankings-proxy/internal/client"
	"rankings-proxy/internal/config"
	"rankings-proxy/internal/handler"
	"rankings-proxy/internal/metrics"
	"rankings-proxy/internal/server"
	"rankings-proxy/internal/service"
	"rankings-proxy/internal/tracing"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("rankings-proxy"),
		kong.Description("Front proxy for the playlist rankings backend."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			metrics.New,
			tracing.NewProvider,
			func(p *tracing.Provider) trace.TracerProvider { return p },
			server.NewEcho,
			client.NewBackendClient,
			service.NewForwardService,
			service.NewLoginService,
			handler.NewProxyHandler,
			handler.NewLoginHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(
			handler.RegisterRoutes,
			handler.RegisterMetrics,
			tracing.Register,
			warnConfigPermissions,
			server.Register,
		),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(h)
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}
