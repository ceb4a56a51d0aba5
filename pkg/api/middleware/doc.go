// Package middleware provides the HTTP middleware of the calculation server.
//
// Each concern lives in its own file:
//
//   - recovery.go: panic recovery
//   - request_id.go: request ID generation and propagation
//   - logging.go: structured request logging
//   - metrics.go: Prometheus request metrics
//   - ratelimit.go: per-client rate limiting
//   - body_limit.go: request body size limit
//   - client_ip.go: client address extraction behind trusted proxies
//   - security_headers.go: response hardening headers
//
// All middleware has the form func(http.Handler) http.Handler and is
// composed with Chain.
package middleware

import "net/http"

// Chain applies middleware so that the first argument is the outermost.
func Chain(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		h = mw[i](h)
	}
	return h
}
