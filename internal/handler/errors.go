package handler

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/labstack/echo/v4"

	"rankings-proxy/internal/model"
	"rankings-proxy/internal/service"
)

// writeBackendError maps a failed backend call onto the caller-visible
// response. Forwarder and login redirector share this policy.
func writeBackendError(c echo.Context, logger *slog.Logger, err error) error {
	outcome := service.Classify(err)
	logger.Error("backend error",
		"err", err,
		"outcome", outcome.String(),
		"path", c.Request().URL.Path,
	)

	switch outcome {
	case model.OutcomeBadRequest:
		// BodyLimit reports an oversized body through the reader.
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return c.JSON(http.StatusBadRequest, map[string]string{
			"error": "failed to read request body",
		})
	case model.OutcomeTimeout:
		return c.JSON(http.StatusGatewayTimeout, map[string]string{
			"error": "backend request timed out",
		})
	case model.OutcomeCanceled:
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "client disconnected",
		})
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error": "backend host unreachable",
		})
	}
	return c.JSON(http.StatusBadGateway, map[string]string{
		"error": "backend connection failed",
	})
}
