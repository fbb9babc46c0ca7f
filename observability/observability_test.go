package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/kbukum/invoicer/component"
	"github.com/kbukum/invoicer/logger"
)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()

	if cfg.Enabled {
		t.Error("expected observability disabled by default")
	}
	if cfg.Endpoint != "localhost:4318" {
		t.Errorf("expected Endpoint 'localhost:4318', got %s", cfg.Endpoint)
	}
	if cfg.Rate() != 1.0 {
		t.Errorf("expected rate 1.0, got %f", cfg.Rate())
	}
	if cfg.MetricInterval != 15*time.Second {
		t.Errorf("expected MetricInterval 15s, got %v", cfg.MetricInterval)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	rate := func(r float64) *float64 { return &r }
	bad := []Config{
		{SampleRate: rate(1.5), MetricInterval: time.Second},
		{SampleRate: rate(-0.1), MetricInterval: time.Second},
		{SampleRate: rate(0.5), MetricInterval: -time.Second},
	}
	for _, cfg := range bad {
		if err := cfg.Validate(); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestConfig_ExplicitZeroRateSamplesNothing(t *testing.T) {
	zero := 0.0
	cfg := Config{SampleRate: &zero}
	cfg.ApplyDefaults()
	if cfg.Rate() != 0 {
		t.Fatalf("rate = %v, want 0", cfg.Rate())
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if d := sampler(cfg.Rate()).Description(); d != sdktrace.NeverSample().Description() {
		t.Errorf("sampler = %s", d)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}

	ctx := context.Background()
	metrics.LoginAttempt(ctx, "success")
	metrics.SignupCompleted(ctx)
	metrics.GateOutcome(ctx, "rejected")
}

func sumByOutcome(t *testing.T, rm metricdata.ResourceMetrics, name string) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("%s: unexpected data type %T", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				outcome, _ := dp.Attributes.Value(attribute.Key("outcome"))
				out[outcome.AsString()] += dp.Value
			}
		}
	}
	return out
}

func TestMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	metrics.LoginAttempt(ctx, "success")
	metrics.LoginAttempt(ctx, "failure")
	metrics.LoginAttempt(ctx, "failure")
	metrics.SignupCompleted(ctx)
	metrics.GateOutcome(ctx, "authenticated")
	metrics.GateOutcome(ctx, "rejected")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatal(err)
	}

	logins := sumByOutcome(t, rm, "auth.login.attempts")
	if logins["success"] != 1 || logins["failure"] != 2 {
		t.Errorf("login counts = %v", logins)
	}
	signups := sumByOutcome(t, rm, "auth.signups")
	if signups[""] != 1 {
		t.Errorf("signup counts = %v", signups)
	}
	gate := sumByOutcome(t, rm, "auth.gate.requests")
	if gate["authenticated"] != 1 || gate["rejected"] != 1 {
		t.Errorf("gate counts = %v", gate)
	}
}

func TestStartSpanAndSetSpanError(t *testing.T) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	_, span := StartSpan(context.Background(), "identity.authenticate")
	SetSpanError(span, errors.New("bad credentials"))
	SetSpanError(span, nil)
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != "identity.authenticate" {
		t.Errorf("span name = %s", ended[0].Name())
	}
	if ended[0].Status().Code != codes.Error {
		t.Errorf("span status = %v, want Error", ended[0].Status().Code)
	}
	if len(ended[0].Events()) != 1 {
		t.Errorf("expected one recorded error event, got %d", len(ended[0].Events()))
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource("invoicer", "1.2.3", "test")
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	got := map[string]string{}
	for _, kv := range res.Attributes() {
		got[string(kv.Key)] = kv.Value.Emit()
	}
	if got["service.name"] != "invoicer" || got["service.version"] != "1.2.3" || got["deployment.environment"] != "test" {
		t.Errorf("resource attributes = %v", got)
	}
}

func TestSampler(t *testing.T) {
	if d := sampler(0).Description(); d != sdktrace.NeverSample().Description() {
		t.Errorf("rate 0 sampler = %s", d)
	}
	if d := sampler(1).Description(); d != sdktrace.ParentBased(sdktrace.AlwaysSample()).Description() {
		t.Errorf("rate 1 sampler = %s", d)
	}
}

func TestComponent_Disabled(t *testing.T) {
	ctx := context.Background()
	c := NewComponent(Config{}, "invoicer", "dev", "test", logger.NewDefault("test"))

	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	h := c.Health(ctx)
	if h.Status != component.StatusHealthy || h.Message != "disabled" {
		t.Errorf("Health = %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("Describe = %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}
