package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"rankings-proxy/internal/client"
	"rankings-proxy/internal/config"
	"rankings-proxy/internal/metrics"
	"rankings-proxy/internal/model"
)

// maxDrainBytes bounds how much of a probe response is read before closing.
const maxDrainBytes = 64 << 10

// LoginService asks the backend whether the login page should redirect.
type LoginService struct {
	client   *client.BackendClient
	logger   *slog.Logger
	metrics  *metrics.Metrics
	loginURL string
	timeout  time.Duration
}

// NewLoginService creates a LoginService probing the configured login path.
// The metrics parameter is optional.
func NewLoginService(c *client.BackendClient, cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *LoginService {
	return &LoginService{
		client:   c,
		logger:   logger.With("component", "login_service"),
		metrics:  m,
		loginURL: cfg.Backend.LoginURL(),
		timeout:  time.Duration(cfg.Backend.TimeoutSeconds) * time.Second,
	}
}

// Probe issues GET {origin}{login_path} without following redirects. Only an
// exact 303 produces a redirect; its location is the Location header, or the
// response's own URL when the header is missing. Every other status continues
// to the login page. The whole probe, body drain included, is bounded by the
// backend timeout.
func (s *LoginService) Probe(ctx context.Context) (model.LoginDecision, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.loginURL, http.NoBody)
	if err != nil {
		s.record(metrics.LoginError)
		return model.LoginDecision{}, fmt.Errorf("build login probe: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		s.record(metrics.LoginError)
		return model.LoginDecision{}, backendError(fmt.Errorf("probe login: %w", err))
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusSeeOther {
		s.logger.Debug("login probe continues", "status", resp.StatusCode)
		s.record(metrics.LoginContinue)
		return model.LoginDecision{}, nil
	}

	location := resp.Header.Get("Location")
	if location == "" && resp.Request != nil && resp.Request.URL != nil {
		location = resp.Request.URL.String()
	}
	if location == "" {
		s.logger.Warn("backend answered 303 without a location; not redirecting", "url", s.loginURL)
		s.record(metrics.LoginContinue)
		return model.LoginDecision{}, nil
	}

	s.logger.Debug("login probe redirects", "location", location)
	s.record(metrics.LoginRedirect)
	return model.LoginDecision{Redirect: true, Location: location}, nil
}

func (s *LoginService) record(result string) {
	if s.metrics != nil {
		s.metrics.LoginProbes.WithLabelValues(result).Inc()
	}
}
