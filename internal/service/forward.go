// Package service implements the backend forwarding and login probe logic.
package service

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"rankings-proxy/internal/client"
	"rankings-proxy/internal/config"
	"rankings-proxy/internal/model"
)

// ForwardService relays requests to the backend origin unchanged.
type ForwardService struct {
	client *client.BackendClient
	cfg    *config.Config
	logger *slog.Logger
	origin string
}

// NewForwardService creates a ForwardService for the configured origin.
func NewForwardService(c *client.BackendClient, cfg *config.Config, logger *slog.Logger) *ForwardService {
	return &ForwardService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "forward_service"),
		origin: cfg.Backend.Origin,
	}
}

// TargetURL returns origin + "/" + path + "?" + rawQuery. The parts are
// concatenated as received; nothing is escaped or normalized.
func (s *ForwardService) TargetURL(path, rawQuery string) string {
	target := s.origin + "/" + path
	if rawQuery != "" {
		target += "?" + rawQuery
	}
	return target
}

// Forward sends a ProxyRequest to the backend and returns the response.
// The caller is responsible for closing the response body.
//
// GET and HEAD never carry a body. For every other method the inbound body is
// read fully and sent with an exact Content-Length. Failures are returned as
// *ForwardError.
func (s *ForwardService) Forward(pr *model.ProxyRequest) (*model.ProxyResponse, error) {
	target := s.TargetURL(pr.Path, pr.RawQuery)
	header := outboundHeader(pr.Header, s.cfg.Backend.StripHopByHop)

	host := pr.Host
	if s.cfg.Backend.RewriteHost {
		host = ""
	}

	var body io.Reader
	if hasBody(pr.Method) && pr.Body != nil {
		buf, err := io.ReadAll(pr.Body)
		if err != nil {
			return nil, &ForwardError{
				Outcome: model.OutcomeBadRequest,
				Err:     fmt.Errorf("read request body: %w", err),
			}
		}
		body = bytes.NewReader(buf)
	}

	s.logger.Info("proxying request",
		"method", pr.Method,
		"target", target,
	)

	resp, err := s.client.DoStream(pr.Ctx, pr.Method, target, host, header, body)
	if err != nil {
		return nil, backendError(fmt.Errorf("forward to backend: %w", err))
	}

	s.logger.Debug("backend responded",
		"method", pr.Method,
		"target", target,
		"status", resp.StatusCode,
	)

	resp.Header = inboundHeader(resp.Header, s.cfg.Backend.StripHopByHop)
	return resp, nil
}

func hasBody(method string) bool {
	return method != http.MethodGet && method != http.MethodHead
}
