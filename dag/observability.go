package dag

import (
	"context"
	"time"

	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
)

// WithTracing wraps a Task with OpenTelemetry span creation.
// Each execution creates a span named "{prefix}.{nodeID}".
func WithTracing(task Task, prefix string) Task {
	return func(ctx context.Context, id string) error {
		ctx, span := observability.StartSpan(ctx, prefix+"."+id)
		defer span.End()

		observability.SetSpanAttribute(ctx, observability.AttrNodeID, id)

		err := task(ctx, id)
		if err != nil {
			observability.SetSpanError(ctx, err)
		}
		return err
	}
}

// WithMetrics wraps a Task with metric recording.
// Records operation count, duration, and errors.
func WithMetrics(task Task, component string, metrics *observability.Metrics) Task {
	return func(ctx context.Context, id string) error {
		start := time.Now()
		err := task(ctx, id)

		status := "ok"
		if err != nil {
			status = "error"
			metrics.RecordError(ctx, "task", component)
		}
		metrics.RecordOperation(ctx, component, "dag.run", status, time.Since(start))
		return err
	}
}

// WithLogging wraps a Task with execution logging.
// Logs: node id, duration, and success/error status.
func WithLogging(task Task, log *logger.Logger) Task {
	return func(ctx context.Context, id string) error {
		start := time.Now()
		err := task(ctx, id)

		fields := map[string]interface{}{
			logger.FieldNodeID:   id,
			logger.FieldDuration: time.Since(start).Milliseconds(),
		}
		if err != nil {
			fields[logger.FieldError] = err.Error()
			log.Warn("dag task failed", fields)
		} else {
			log.Debug("dag task completed", fields)
		}
		return err
	}
}
