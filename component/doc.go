// Package component defines the lifecycle contract for the service's
// infrastructure (database, object storage, HTTP server).
//
// Components are registered with a Registry, started in registration order
// and stopped in reverse order. They report health for the readiness and
// health endpoints and may describe themselves for the startup summary.
package component
