package provider

import (
	"context"
	"time"

	"github.com/kbukum/strategykit/observability"
)

// WithMetrics records count, duration and errors of each Execute call
// under the given component name.
func WithMetrics[I, O any](metrics *observability.Metrics, component string) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics, component: component}
	}
}

type metricsRR[I, O any] struct {
	inner     RequestResponse[I, O]
	metrics   *observability.Metrics
	component string
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)

	status := "ok"
	if err != nil {
		status = "error"
		m.metrics.RecordError(ctx, "execute", m.component)
	}
	m.metrics.RecordOperation(ctx, m.component, m.inner.Name(), status, time.Since(start))
	return output, err
}
