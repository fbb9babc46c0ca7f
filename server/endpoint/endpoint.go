// Package endpoint serves the operational routes: /health, /livez,
// /readyz and /info. None of them require a token.
package endpoint

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/version"
)

// HealthChecker reports the health of every registered component.
type HealthChecker func(ctx context.Context) []component.Health

var started = time.Now()

// worst folds component states: any unhealthy wins, then degraded.
func worst(components []component.Health) component.HealthStatus {
	status := component.StatusHealthy
	for _, h := range components {
		switch h.Status {
		case component.StatusUnhealthy:
			return component.StatusUnhealthy
		case component.StatusDegraded:
			status = component.StatusDegraded
		}
	}
	return status
}

func check(c *gin.Context, checker HealthChecker) []component.Health {
	if checker == nil {
		return nil
	}
	return checker(c.Request.Context())
}

func reply(c *gin.Context, code int, service, status string, extra gin.H) {
	body := gin.H{
		"status":    status,
		"service":   service,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		body[k] = v
	}
	c.JSON(code, body)
}

// Health lists every component and answers 503 once one is unhealthy.
// A degraded component still answers 200.
func Health(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		components := check(c, checker)
		status := worst(components)
		code := http.StatusOK
		if status == component.StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		reply(c, code, service, string(status), gin.H{"components": components})
	}
}

// Liveness answers 200 while the process can serve HTTP at all.
func Liveness(service string) gin.HandlerFunc {
	return func(c *gin.Context) {
		reply(c, http.StatusOK, service, "alive", nil)
	}
}

// Readiness answers 503 while any component is unhealthy.
func Readiness(service string, checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if worst(check(c, checker)) == component.StatusUnhealthy {
			reply(c, http.StatusServiceUnavailable, service, "not_ready", nil)
			return
		}
		reply(c, http.StatusOK, service, "ready", nil)
	}
}

// Info reports build metadata. A configured version overrides the
// build-stamped one.
func Info(service, configuredVersion, environment string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version.Get()
		if configuredVersion != "" {
			v.Version = configuredVersion
		}
		reply(c, http.StatusOK, service, "ok", gin.H{
			"environment": environment,
			"version":     v.Version,
			"git_commit":  v.GitCommit,
			"build_time":  v.BuildTime,
			"go_version":  v.GoVersion,
			"is_dirty":    v.IsDirty,
			"uptime":      time.Since(started).Round(time.Second).String(),
		})
	}
}
