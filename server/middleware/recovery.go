package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/kbukum/invoicer/errors"
	"github.com/kbukum/invoicer/logger"
)

// Recovery returns middleware that recovers from panics, logs the stack and
// answers with a 500 INTERNAL_ERROR body.
func Recovery(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					log.WithContext(r.Context()).Error("Panic recovered", map[string]interface{}{
						"error":  fmt.Sprintf("%v", rec),
						"stack":  string(debug.Stack()),
						"path":   r.URL.Path,
						"method": r.Method,
					})
					writeJSON(w, http.StatusInternalServerError,
						errors.Internal(fmt.Errorf("panic: %v", rec)).ToResponse())
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
