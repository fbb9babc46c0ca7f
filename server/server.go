// Package server runs the service's Gin engine behind an h2c-capable
// net/http server, with the server-wide middleware stack and the
// operational endpoints.
//
// Middleware, outermost first: Recovery, RequestID, Tracing, CORS,
// BodySizeLimit and RequestLogger. Operational endpoints live in
// server/endpoint: /health, /livez, /readyz and /info.
package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/server/endpoint"
	"github.com/kbukum/invoicer/server/middleware"
	"github.com/kbukum/invoicer/util"
)

// Server serves one Gin engine over HTTP/1.1 and cleartext HTTP/2.
// It is also the "http-server" lifecycle component.
type Server struct {
	cfg    Config
	log    *logger.Logger
	engine *gin.Engine
	h2     *http2.Server
	srv    *http.Server

	bound atomic.Pointer[net.Addr]
}

// New builds the engine without middleware; call Prepare before serving.
func New(cfg Config, log *logger.Logger) *Server {
	mode := gin.ReleaseMode
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		mode = gin.DebugMode
	}
	gin.SetMode(mode)

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	h2 := &http2.Server{MaxConcurrentStreams: 250, IdleTimeout: 2 * time.Minute}

	return &Server{
		cfg:    cfg,
		log:    log.WithComponent("server"),
		engine: engine,
		h2:     h2,
		srv: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
			Handler:      h2c.NewHandler(engine, h2),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
	}
}

// Engine is where routes are registered.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Handler is the complete handler stack, for driving the server in tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// ServiceInfo identifies the service on the operational endpoints.
type ServiceInfo struct {
	Name        string
	Version     string
	Environment string
}

// Prepare installs the middleware stack and the operational endpoints.
func (s *Server) Prepare(info ServiceInfo, checker endpoint.HealthChecker) {
	s.Use(info.Name)
	s.Operational(info, checker)
}

// Use wraps the engine in the server-wide middleware. CORS answers
// preflight requests before routing or authorization sees them.
func (s *Server) Use(serviceName string) {
	stack := []middleware.Middleware{
		middleware.Recovery(s.log),
		middleware.RequestID(),
		middleware.Tracing(serviceName),
		middleware.CORS(&s.cfg.CORS),
	}
	if limit := util.ParseSize(s.cfg.MaxBodySize, 0); limit > 0 {
		stack = append(stack, middleware.BodySizeLimit(limit))
	}
	stack = append(stack, middleware.RequestLogger(s.log))
	s.srv.Handler = h2c.NewHandler(middleware.Chain(stack...)(s.engine), s.h2)
}

// Operational registers the health, liveness, readiness and info routes.
func (s *Server) Operational(info ServiceInfo, checker endpoint.HealthChecker) {
	s.engine.GET("/health", endpoint.Health(info.Name, checker))
	s.engine.GET("/livez", endpoint.Liveness(info.Name))
	s.engine.GET("/readyz", endpoint.Readiness(info.Name, checker))
	s.engine.GET("/info", endpoint.Info(info.Name, info.Version, info.Environment))
}

// Start returns once the port is bound; requests are served in the background.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.srv.Addr, err)
	}
	addr := ln.Addr()
	s.bound.Store(&addr)
	s.log.Info("HTTP server listening", map[string]interface{}{"addr": addr.String()})

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server stopped unexpectedly", map[string]interface{}{"error": err.Error()})
		}
	}()
	return nil
}

// Stop drains in-flight requests for up to ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.bound.Swap(nil) == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, cmp.Or(s.cfg.ShutdownTimeout, 5*time.Second))
	defer cancel()
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Addr is the bound address while serving, else the configured one.
func (s *Server) Addr() string {
	if a := s.bound.Load(); a != nil {
		return (*a).String()
	}
	return s.srv.Addr
}
