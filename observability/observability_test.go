package observability

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestConfigDefaultsAndValidate(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.OTLPEndpoint != "localhost:4318" {
		t.Errorf("expected localhost:4318, got %s", cfg.OTLPEndpoint)
	}
	if cfg.MetricExporter != ExporterPrometheus {
		t.Errorf("expected prometheus exporter, got %s", cfg.MetricExporter)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}

	cfg.SampleRate = 2
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for sample rate above 1")
	}
	cfg.SampleRate = 1
	cfg.MetricExporter = "statsd"
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for unknown exporter")
	}
}

func TestSamplerFor(t *testing.T) {
	if s := samplerFor(1); !strings.Contains(s.Description(), "AlwaysOn") {
		t.Errorf("expected AlwaysOn sampler, got %s", s.Description())
	}
	if s := samplerFor(0); !strings.Contains(s.Description(), "AlwaysOff") {
		t.Errorf("expected AlwaysOff sampler, got %s", s.Description())
	}
	if s := samplerFor(0.5); !strings.Contains(s.Description(), "TraceIDRatioBased") {
		t.Errorf("expected ratio sampler, got %s", s.Description())
	}
}

func TestStartSpanRecordsAttributesAndErrors(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	defer otel.SetTracerProvider(prev)

	ctx, span := StartSpan(context.Background(), SpanCompile)
	SetSpanAttribute(ctx, AttrStrategyID, "s-1")
	SetSpanAttribute(ctx, AttrNodeCount, 3)
	SetSpanError(ctx, errors.New("boom"))
	span.End()

	ended := recorder.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	if ended[0].Name() != SpanCompile {
		t.Errorf("expected span %s, got %s", SpanCompile, ended[0].Name())
	}
	found := false
	for _, kv := range ended[0].Attributes() {
		if string(kv.Key) == AttrStrategyID && kv.Value.AsString() == "s-1" {
			found = true
		}
	}
	if !found {
		t.Error("expected strategy.id attribute")
	}
	if len(ended[0].Events()) == 0 {
		t.Error("expected error event on span")
	}
}

func TestSetSpanAttributeNoSpan(t *testing.T) {
	SetSpanAttribute(context.Background(), "k", "v")
	SetSpanError(context.Background(), errors.New("x"))
}

func TestNewMetricsWithNoopMeter(t *testing.T) {
	meter := noop.NewMeterProvider().Meter("test")
	m, err := NewMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m.RecordRequest(context.Background(), "/x", "GET", 200, time.Millisecond)
	m.RecordOperation(context.Background(), "ledger", "sui_getObject", "ok", time.Millisecond)
	m.RecordError(context.Background(), "timeout", "ledger")

	cm, err := NewCompileMetrics(meter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cm.RecordCompile(context.Background(), "ok", 7, time.Millisecond)
	cm.RecordIssue(context.Background(), "CYCLE_1", "error")
	cm.RecordEstimate(context.Background(), "cetus", "fallback")
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.RecordOperation(context.Background(), "a", "b", "ok", 0)
	var cm *CompileMetrics
	cm.RecordCompile(context.Background(), "ok", 1, 0)
}

func TestInitMeterPrometheusServesCompileMetrics(t *testing.T) {
	cfg := Config{MetricExporter: ExporterPrometheus}
	cfg.ApplyDefaults()
	setup, err := InitMeter(context.Background(), Identity{ServiceName: "strategyc"}, cfg)
	if err != nil {
		t.Fatalf("InitMeter failed: %v", err)
	}
	defer setup.Shutdown(context.Background())

	if setup.Handler == nil {
		t.Fatal("expected prometheus handler")
	}
	cm, err := NewCompileMetrics(setup.Provider.Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cm.RecordCompile(context.Background(), "ok", 4, time.Millisecond)

	rec := httptest.NewRecorder()
	setup.Handler.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "strategy_compile_total") {
		t.Errorf("expected strategy_compile_total in exposition, got:\n%s", body)
	}
}

func TestInitMeterNone(t *testing.T) {
	setup, err := InitMeter(context.Background(), Identity{ServiceName: "x"}, Config{MetricExporter: ExporterNone})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if setup.Handler != nil || setup.Provider != nil {
		t.Error("expected no provider and no handler for the none exporter")
	}
	if err := setup.Shutdown(context.Background()); err != nil {
		t.Errorf("expected nil shutdown error, got %v", err)
	}
}

type staticChecker Health

func (s staticChecker) CheckHealth(context.Context) Health { return Health(s) }

func TestCheckAggregates(t *testing.T) {
	sh := Check(context.Background(), "strategyc", "1.0.0",
		staticChecker{Name: "ledger", Status: HealthStatusUp},
		staticChecker{Name: "cetus", Status: HealthStatusDegraded},
	)
	if sh.Status != HealthStatusDegraded {
		t.Errorf("expected degraded, got %s", sh.Status)
	}
	sh.AddComponent(Health{Name: "x", Status: HealthStatusDown})
	sh.AddComponent(Health{Name: "y", Status: HealthStatusDegraded})
	if sh.Status != HealthStatusDown {
		t.Errorf("expected down to stick, got %s", sh.Status)
	}
	if len(sh.Components) != 4 {
		t.Errorf("expected 4 components, got %d", len(sh.Components))
	}
}
