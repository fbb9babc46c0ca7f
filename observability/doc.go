// Package observability wires OpenTelemetry tracing and metrics.
//
// The Component starts the OTLP/HTTP tracer and meter providers when
// observability is enabled and shuts them down on stop. When disabled the
// global no-op providers stay installed, so spans and counters cost nothing.
//
//	ctx, span := observability.StartSpan(ctx, "identity.authenticate")
//	defer span.End()
//
// Metrics holds the service counters (login attempts, signups, gate
// outcomes). It is created from the global meter and can be built before the
// providers are started.
package observability
