package service

import (
	"net/http"
	"net/textproto"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// hopByHopHeaders are meaningful only for a single transport connection.
var hopByHopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// outboundHeader copies the caller's headers for the backend request.
// The copy is verbatim unless strip is set.
func outboundHeader(src http.Header, strip bool) http.Header {
	dst := src.Clone()
	if dst == nil {
		dst = make(http.Header)
	}
	if strip {
		keepTrailers := httpguts.HeaderValuesContainsToken(src["Te"], "trailers")
		removeHopByHop(dst)
		if keepTrailers {
			dst.Set("Te", "trailers")
		}
	}
	// net/http adds its own User-Agent when the key is absent; an empty
	// value suppresses it so the backend sees exactly what the caller sent.
	if _, ok := dst["User-Agent"]; !ok {
		dst["User-Agent"] = []string{""}
	}
	return dst
}

// inboundHeader prepares the backend's response headers for the caller.
func inboundHeader(src http.Header, strip bool) http.Header {
	if !strip {
		return src
	}
	dst := src.Clone()
	removeHopByHop(dst)
	return dst
}

// removeHopByHop deletes the fixed hop-by-hop set plus every header the
// Connection header names.
func removeHopByHop(h http.Header) {
	for _, v := range h["Connection"] {
		for _, name := range strings.Split(v, ",") {
			if name = textproto.TrimString(name); name != "" && httpguts.ValidHeaderFieldName(name) {
				h.Del(name)
			}
		}
	}
	for _, name := range hopByHopHeaders {
		h.Del(name)
	}
}
