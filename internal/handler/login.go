package handler

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"rankings-proxy/internal/config"
	"rankings-proxy/internal/service"
)

//go:embed templates/login.html
var loginPageSource string

// LoginHandler serves the login page, redirecting first when the backend
// says so.
type LoginHandler struct {
	service   *service.LoginService
	logger    *slog.Logger
	page      *template.Template
	signInURL string
}

// NewLoginHandler creates a LoginHandler. The page's sign-in link goes
// through the forwarder to the backend login endpoint.
func NewLoginHandler(svc *service.LoginService, cfg *config.Config, logger *slog.Logger) (*LoginHandler, error) {
	page, err := template.New("login").Parse(loginPageSource)
	if err != nil {
		return nil, fmt.Errorf("parse login page: %w", err)
	}
	return &LoginHandler{
		service:   svc,
		logger:    logger.With("component", "login_handler"),
		page:      page,
		signInURL: strings.TrimSuffix(APIPrefix, "/") + cfg.Backend.LoginPath,
	}, nil
}

// Show probes the backend login endpoint. A 303 from the backend becomes a
// 303 to the same location; anything else renders the page.
func (h *LoginHandler) Show(c echo.Context) error {
	decision, err := h.service.Probe(c.Request().Context())
	if err != nil {
		return writeBackendError(c, h.logger, err)
	}
	if decision.Redirect {
		return c.Redirect(http.StatusSeeOther, decision.Location)
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, struct{ SignInURL string }{h.signInURL}); err != nil {
		return fmt.Errorf("render login page: %w", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}
