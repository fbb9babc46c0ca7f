package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/kbukum/invoicer/errors"
)

// CORSConfig lists the browser origins allowed to call the API and what
// they may send. "*" in AllowedOrigins admits any origin.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	AllowedMethods   []string `yaml:"allowed_methods" mapstructure:"allowed_methods"`
	AllowedHeaders   []string `yaml:"allowed_headers" mapstructure:"allowed_headers"`
	AllowCredentials bool     `yaml:"allow_credentials" mapstructure:"allow_credentials"`
	// MaxAge is how long, in seconds, a browser may cache a preflight answer.
	MaxAge int `yaml:"max_age" mapstructure:"max_age"`
}

type corsPolicy struct {
	anyOrigin   bool
	origins     map[string]bool
	methods     map[string]bool
	headers     map[string]bool
	cfg         *CORSConfig
}

func newCORSPolicy(cfg *CORSConfig) *corsPolicy {
	p := &corsPolicy{
		origins:     map[string]bool{},
		methods:     map[string]bool{},
		headers:     map[string]bool{},
		cfg:         cfg,
	}
	for _, o := range cfg.AllowedOrigins {
		p.anyOrigin = p.anyOrigin || o == "*"
		p.origins[o] = true
	}
	for _, m := range cfg.AllowedMethods {
		p.methods[strings.ToUpper(m)] = true
	}
	for _, h := range cfg.AllowedHeaders {
		p.headers[http.CanonicalHeaderKey(h)] = true
	}
	return p
}

func (p *corsPolicy) originAllowed(origin string) bool {
	return origin != "" && (p.anyOrigin || p.origins[origin])
}

// admits reports whether a preflight's requested method and headers are
// all configured. An empty method means a bare OPTIONS request.
func (p *corsPolicy) admits(method, headers string) bool {
	if method != "" && !p.methods[strings.ToUpper(method)] {
		return false
	}
	for _, h := range strings.Split(headers, ",") {
		if h = strings.TrimSpace(h); h != "" && !p.headers[http.CanonicalHeaderKey(h)] {
			return false
		}
	}
	return true
}

// CORS answers every OPTIONS request itself; no route ever sees one. A
// preflight from an unknown origin, or asking for a method or header
// outside the configured lists, is refused with 403. Other requests from
// allowed origins get Access-Control-Allow-Origin.
func CORS(cfg *CORSConfig) Middleware {
	p := newCORSPolicy(cfg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			h.Add("Vary", "Origin")

			if r.Method != http.MethodOptions {
				if p.originAllowed(origin) {
					p.allowOrigin(h, origin)
				}
				next.ServeHTTP(w, r)
				return
			}

			if origin == "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			if !p.originAllowed(origin) ||
				!p.admits(r.Header.Get("Access-Control-Request-Method"), r.Header.Get("Access-Control-Request-Headers")) {
				writeJSON(w, http.StatusForbidden, errors.Forbidden("Cross-origin request not allowed.").ToResponse())
				return
			}
			p.allowOrigin(h, origin)
			if len(p.cfg.AllowedMethods) > 0 {
				h.Set("Access-Control-Allow-Methods", strings.Join(p.cfg.AllowedMethods, ", "))
			}
			if len(p.cfg.AllowedHeaders) > 0 {
				h.Set("Access-Control-Allow-Headers", strings.Join(p.cfg.AllowedHeaders, ", "))
			}
			if p.cfg.MaxAge > 0 {
				h.Set("Access-Control-Max-Age", strconv.Itoa(p.cfg.MaxAge))
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}

func (p *corsPolicy) allowOrigin(h http.Header, origin string) {
	h.Set("Access-Control-Allow-Origin", origin)
	if p.cfg.AllowCredentials {
		h.Set("Access-Control-Allow-Credentials", "true")
	}
}
