// Package middleware provides Echo middleware for logging, metrics and
// locally rendered pages.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// RequestIDKey is the echo.Context key holding the request id.
const RequestIDKey = "request_id"

// RequestID assigns every request a UUID (or keeps the caller's X-Request-Id)
// and stores it on the context. Forwarded responses drop the response header
// again, so the context value is what log lines use.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: uuid.NewString,
		RequestIDHandler: func(c echo.Context, id string) {
			c.Set(RequestIDKey, id)
		},
	})
}

// RequestIDFrom returns the id assigned by RequestID, or empty string.
func RequestIDFrom(c echo.Context) string {
	id, _ := c.Get(RequestIDKey).(string)
	return id
}
