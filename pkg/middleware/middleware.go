// Package middleware provides the HTTP middleware applied to mounted modules:
// request IDs, panic recovery, access logging, CORS, and bearer authentication.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Chain wraps h so that mws run in the order given, the first outermost.
func Chain(h http.Handler, mws ...Func) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
