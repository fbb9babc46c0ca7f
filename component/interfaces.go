package component

import "context"

type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health is what /health lists per component.
type Health struct {
	Name    string       `json:"name"`
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// Component is a piece of infrastructure with a lifecycle: the database,
// Redis, object storage, telemetry and the HTTP server.
type Component interface {
	Name() string
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Health(ctx context.Context) Health
}

// Description is a component's line in the startup summary. An empty
// Name falls back to Component.Name; Port is 0 when there is none.
type Description struct {
	Name    string
	Type    string
	Details string
	Port    int
}

// Describable components are listed in the startup summary.
type Describable interface {
	Describe() Description
}

type Route struct {
	Method  string
	Path    string
	Handler string
}

// RouteProvider lets the HTTP server list its routes in the summary.
type RouteProvider interface {
	Routes() []Route
}
