// Package httpmiddleware holds the net/http middleware chain of the
// marketplace API: panic recovery, CORS, rate limiting, request ids, and
// access logging.
package httpmiddleware

import "net/http"

// Middleware decorates an http.Handler.
type Middleware func(http.Handler) http.Handler

// Wrap chains middlewares around h, outermost first: Wrap(h, a, b) gives
// a(b(h)), so a sees every request before b does.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
