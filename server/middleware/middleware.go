package middleware

import (
	"encoding/json"
	"net/http"
)

// Middleware is the signature of the server-wide layers that run before
// Gin routing: recovery, request IDs, tracing, CORS, body limits and the
// access log. The request gate and the authorization policy are Gin
// handlers instead because they answer through the central error resolver.
type Middleware func(http.Handler) http.Handler

// Chain composes middlewares; the first one is the outermost.
func Chain(middlewares ...Middleware) Middleware {
	return func(h http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			h = middlewares[i](h)
		}
		return h
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
