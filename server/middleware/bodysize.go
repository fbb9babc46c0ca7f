package middleware

import (
	"net/http"

	"github.com/kbukum/invoicer/errors"
)

// BodySizeLimit caps request bodies at limit bytes. A declared
// Content-Length over the cap is refused with 413 before the handler
// runs; undeclared bodies fail on read once they pass the cap.
func BodySizeLimit(limit int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > limit {
				writeJSON(w, http.StatusRequestEntityTooLarge,
					errors.InvalidInput("body", "request body too large").
						WithStatus(http.StatusRequestEntityTooLarge).
						WithDetail("limit", limit).ToResponse())
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
