// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// ProxyRequest represents a caller request to be forwarded to the backend.
type ProxyRequest struct {
	Ctx    context.Context
	Method string
	// Path is the wildcard suffix exactly as received, without a leading slash.
	Path string
	// RawQuery is the query string without the leading '?'.
	RawQuery string
	Host     string
	Header   http.Header
	Body     io.Reader
}

// ProxyResponse represents the backend response to be streamed back.
type ProxyResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// Outcome classifies how a backend call ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeBadRequest
	OutcomeUnreachable
	OutcomeTimeout
	OutcomeCanceled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeBadRequest:
		return "bad_request"
	case OutcomeUnreachable:
		return "unreachable"
	case OutcomeTimeout:
		return "timeout"
	case OutcomeCanceled:
		return "canceled"
	}
	return "unknown"
}

// LoginDecision is the result of probing the backend login endpoint.
// Location is only meaningful when Redirect is true.
type LoginDecision struct {
	Redirect bool
	Location string
}
