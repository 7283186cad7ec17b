package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rankings-proxy/internal/model"
	"rankings-proxy/internal/service"
)

// APIPrefix is the route prefix whose suffix is forwarded to the backend.
const APIPrefix = "/api/"

// ProxiedMethods are the methods routed to the forwarder.
var ProxiedMethods = []string{
	http.MethodGet,
	http.MethodHead,
	http.MethodPost,
	http.MethodPut,
	http.MethodPatch,
	http.MethodDelete,
}

const streamChunkSize = 32 << 10

// ProxyHandler forwards /api/* requests to the backend.
type ProxyHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ForwardService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle proxies the request to the backend and streams the response back
// with the backend's status and header set.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()
	pr := &model.ProxyRequest{
		Ctx:      req.Context(),
		Method:   req.Method,
		Path:     wildcardSuffix(c),
		RawQuery: req.URL.RawQuery,
		Host:     req.Host,
		Header:   req.Header,
		Body:     req.Body,
	}

	resp, err := h.service.Forward(pr)
	if err != nil {
		return writeBackendError(c, h.logger, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Replace whatever earlier middleware set (X-Request-Id) with exactly
	// the backend's headers.
	header := c.Response().Header()
	clear(header)
	for key, vals := range resp.Header {
		header[key] = append([]string(nil), vals...)
	}
	// net/http would otherwise add these when the backend omitted them.
	for _, key := range []string{echo.HeaderContentType, "Date"} {
		if _, ok := resp.Header[key]; !ok {
			header[key] = nil
		}
	}

	c.Response().WriteHeader(resp.StatusCode)
	if req.Method == http.MethodHead {
		return nil
	}

	// The status is already sent. A mid-stream failure aborts the connection
	// so the caller sees a broken response rather than a clean, short one.
	if err := stream(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"outcome", service.Classify(err).String(),
			"path", req.URL.Path,
		)
		panic(http.ErrAbortHandler)
	}
	return nil
}

// stream copies body to the caller, flushing after every chunk so streamed
// backend responses reach the caller as they arrive.
func stream(w *echo.Response, body io.Reader) error {
	buf := make([]byte, streamChunkSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			w.Flush()
		}
		if rerr == io.EOF {
			return nil
		}
		if rerr != nil {
			return rerr
		}
	}
}

// wildcardSuffix returns the path after /api/ in its escaped, as-received
// form. The bare /api prefix has an empty suffix.
func wildcardSuffix(c echo.Context) string {
	p := c.Request().URL.EscapedPath()
	if p == strings.TrimSuffix(APIPrefix, "/") {
		return ""
	}
	if strings.HasPrefix(p, APIPrefix) {
		return p[len(APIPrefix):]
	}
	return c.Param("*")
}
