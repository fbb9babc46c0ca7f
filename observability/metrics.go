package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	loginAttempts = "auth.login.attempts"
	signups       = "auth.signups"
	gateRequests  = "auth.gate.requests"
)

var counterHelp = map[string]string{
	loginAttempts: "Login attempts by outcome",
	signups:       "Completed signups",
	gateRequests:  "Requests seen by the authentication gate by outcome",
}

// Metrics holds the service counters.
type Metrics struct {
	counters map[string]metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{counters: make(map[string]metric.Int64Counter, len(counterHelp))}
	for name, help := range counterHelp {
		c, err := meter.Int64Counter(name, metric.WithDescription(help))
		if err != nil {
			return nil, fmt.Errorf("observability: counter %s: %w", name, err)
		}
		m.counters[name] = c
	}
	return m, nil
}

// NewGlobalMetrics binds to the global meter, which forwards to whatever
// provider is installed later.
func NewGlobalMetrics() (*Metrics, error) { return NewMetrics(otel.Meter(TracerName)) }

func (m *Metrics) add(ctx context.Context, name, outcome string) {
	if outcome == "" {
		m.counters[name].Add(ctx, 1)
		return
	}
	m.counters[name].Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *Metrics) LoginAttempt(ctx context.Context, outcome string) { m.add(ctx, loginAttempts, outcome) }
func (m *Metrics) SignupCompleted(ctx context.Context)              { m.add(ctx, signups, "") }
func (m *Metrics) GateOutcome(ctx context.Context, outcome string)  { m.add(ctx, gateRequests, outcome) }
