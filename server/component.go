package server

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/component"
)

var (
	_ component.Component     = (*Server)(nil)
	_ component.Describable   = (*Server)(nil)
	_ component.RouteProvider = (*Server)(nil)
)

// operational routes are listed after the API in the startup summary.
var operational = []string{"/health", "/livez", "/readyz", "/info"}

var methodRank = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}

func (s *Server) Name() string { return "http-server" }

func (s *Server) Health(context.Context) component.Health {
	if s.bound.Load() == nil {
		return component.Health{Name: s.Name(), Status: component.StatusUnhealthy, Message: "not listening"}
	}
	return component.Health{Name: s.Name(), Status: component.StatusHealthy}
}

func (s *Server) Describe() component.Description {
	return component.Description{
		Name:    "HTTP Server",
		Type:    "server",
		Details: fmt.Sprintf("%s cors=%s", s.Addr(), strings.Join(s.cfg.CORS.AllowedOrigins, ",")),
		Port:    s.cfg.Port,
	}
}

// Routes lists API routes by path then method, followed by the
// operational routes.
func (s *Server) Routes() []component.Route {
	rank := func(method string) int {
		if i := slices.Index(methodRank, method); i >= 0 {
			return i
		}
		return len(methodRank)
	}
	infos := s.engine.Routes()
	slices.SortFunc(infos, func(a, b gin.RouteInfo) int {
		return cmp.Or(
			cmp.Compare(boolRank(slices.Contains(operational, a.Path)), boolRank(slices.Contains(operational, b.Path))),
			cmp.Compare(a.Path, b.Path),
			cmp.Compare(rank(a.Method), rank(b.Method)),
		)
	})

	out := make([]component.Route, len(infos))
	for i, r := range infos {
		name := handlerName(r.Handler)
		if slices.Contains(operational, r.Path) {
			name += " (system)"
		}
		out[i] = component.Route{Method: r.Method, Path: r.Path, Handler: name}
	}
	return out
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

// handlerName shortens Gin's handler symbol for display:
//
//	".../identity.(*Handler).Login-fm"   -> "Handler.Login"
//	".../server/endpoint.Health.func1"   -> "health"
func handlerName(symbol string) string {
	symbol = strings.TrimSuffix(symbol, "-fm")
	symbol = symbol[strings.LastIndex(symbol, "/")+1:]
	symbol = strings.NewReplacer("(*", "", ")", "").Replace(symbol)

	parts := strings.Split(symbol, ".")
	if i := slices.IndexFunc(parts, func(p string) bool { return strings.HasPrefix(p, "func") }); i > 0 {
		return strings.ToLower(parts[i-1])
	}
	if len(parts) > 1 && parts[0] == strings.ToLower(parts[0]) {
		parts = parts[1:]
	}
	return strings.Join(parts, ".")
}
