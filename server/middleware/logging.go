package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/invoicer/logger"
)

const slowRequest = 500 * time.Millisecond

// quietPaths are polled by orchestrators and never logged.
var quietPaths = map[string]bool{"/health": true, "/livez": true, "/readyz": true}

// RequestLogger writes one access log line per request: 5xx at error,
// 4xx at warn and the rest at debug.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if quietPaths[r.URL.Path] {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			rec := record(w)
			next.ServeHTTP(rec, r)
			elapsed := time.Since(start)

			fields := map[string]interface{}{
				logger.FieldMethod:   r.Method,
				logger.FieldPath:     r.URL.Path,
				logger.FieldStatus:   rec.status,
				logger.FieldDuration: elapsed.Milliseconds(),
				logger.FieldClientIP: remoteIP(r),
			}
			if elapsed > slowRequest {
				fields["slow"] = true
			}

			l := log.WithContext(r.Context())
			switch {
			case rec.status >= 500:
				l.Error("Request completed", fields)
			case rec.status >= 400:
				l.Warn("Request completed", fields)
			default:
				l.Debug("Request completed", fields)
			}
		})
	}
}

// remoteIP prefers the first X-Forwarded-For hop.
func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	return r.RemoteAddr
}

// recorder remembers the first status written through it. Flush and
// Unwrap keep streaming and http.ResponseController working underneath.
type recorder struct {
	http.ResponseWriter
	status  int
	written bool
}

func record(w http.ResponseWriter) *recorder {
	if rec, ok := w.(*recorder); ok {
		return rec
	}
	return &recorder{ResponseWriter: w, status: http.StatusOK}
}

func (rec *recorder) WriteHeader(code int) {
	if !rec.written {
		rec.status, rec.written = code, true
	}
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *recorder) Write(b []byte) (int, error) {
	rec.written = true
	return rec.ResponseWriter.Write(b)
}

func (rec *recorder) Flush() {
	if f, ok := rec.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rec *recorder) Unwrap() http.ResponseWriter { return rec.ResponseWriter }
