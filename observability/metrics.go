package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the instruments for outbound operations (ledger RPC, pool
// reads) and HTTP requests.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	operationTotal    metric.Int64Counter
	operationDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error
	if m.requestTotal, err = meter.Int64Counter("http.request.total",
		metric.WithDescription("Total number of HTTP requests")); err != nil {
		return nil, fmt.Errorf("creating http.request.total counter: %w", err)
	}
	if m.requestDuration, err = meter.Float64Histogram("http.request.duration",
		metric.WithDescription("Duration of HTTP requests in seconds"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating http.request.duration histogram: %w", err)
	}
	if m.operationTotal, err = meter.Int64Counter("operation.total",
		metric.WithDescription("Total number of outbound operations")); err != nil {
		return nil, fmt.Errorf("creating operation.total counter: %w", err)
	}
	if m.operationDuration, err = meter.Float64Histogram("operation.duration",
		metric.WithDescription("Duration of outbound operations in seconds"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating operation.duration histogram: %w", err)
	}
	if m.errorTotal, err = meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by type and component")); err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}
	return m, nil
}

// RecordRequest records a completed HTTP request.
func (m *Metrics) RecordRequest(ctx context.Context, route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("method", method),
		attribute.Int("status", status),
	)
	m.requestTotal.Add(ctx, 1, attrs)
	m.requestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordOperation records an outbound operation.
func (m *Metrics) RecordOperation(ctx context.Context, component, operation, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.operationTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
		attribute.String("status", status),
	))
	m.operationDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("component", component),
		attribute.String("operation", operation),
	))
}

// RecordError records an error by type and component.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

// CompileMetrics holds compiler instruments.
type CompileMetrics struct {
	compiles         metric.Int64Counter
	compileDuration  metric.Float64Histogram
	commandsEmitted  metric.Int64Histogram
	validationIssues metric.Int64Counter
	estimates        metric.Int64Counter
}

// NewCompileMetrics creates the compiler instruments on meter.
func NewCompileMetrics(meter metric.Meter) (*CompileMetrics, error) {
	m := &CompileMetrics{}
	var err error
	if m.compiles, err = meter.Int64Counter("strategy.compile.total",
		metric.WithDescription("Compilations by outcome")); err != nil {
		return nil, fmt.Errorf("creating strategy.compile.total counter: %w", err)
	}
	if m.compileDuration, err = meter.Float64Histogram("strategy.compile.duration",
		metric.WithDescription("Compilation duration in seconds"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("creating strategy.compile.duration histogram: %w", err)
	}
	if m.commandsEmitted, err = meter.Int64Histogram("strategy.compile.commands",
		metric.WithDescription("Commands emitted per successful compile")); err != nil {
		return nil, fmt.Errorf("creating strategy.compile.commands histogram: %w", err)
	}
	if m.validationIssues, err = meter.Int64Counter("strategy.validation.issues",
		metric.WithDescription("Validation findings by rule and severity")); err != nil {
		return nil, fmt.Errorf("creating strategy.validation.issues counter: %w", err)
	}
	if m.estimates, err = meter.Int64Counter("strategy.estimate.total",
		metric.WithDescription("Swap estimates by protocol and source")); err != nil {
		return nil, fmt.Errorf("creating strategy.estimate.total counter: %w", err)
	}
	return m, nil
}

// RecordCompile records a finished compile. status is ok, invalid or failed.
func (m *CompileMetrics) RecordCompile(ctx context.Context, status string, commands int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.String("status", status))
	m.compiles.Add(ctx, 1, attrs)
	m.compileDuration.Record(ctx, duration.Seconds(), attrs)
	if status == "ok" {
		m.commandsEmitted.Record(ctx, int64(commands))
	}
}

// RecordIssue records one validation finding.
func (m *CompileMetrics) RecordIssue(ctx context.Context, ruleID, severity string) {
	if m == nil {
		return
	}
	m.validationIssues.Add(ctx, 1, metric.WithAttributes(
		attribute.String("rule_id", ruleID),
		attribute.String("severity", severity),
	))
}

// RecordEstimate records a swap estimate and where its numbers came from.
func (m *CompileMetrics) RecordEstimate(ctx context.Context, protocol, source string) {
	if m == nil {
		return
	}
	m.estimates.Add(ctx, 1, metric.WithAttributes(
		attribute.String("protocol", protocol),
		attribute.String("source", source),
	))
}
