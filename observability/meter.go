package observability

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/strategykit/logger"
)

// MeterSetup is an initialized meter provider plus the /metrics handler
// when the Prometheus exporter is selected.
type MeterSetup struct {
	Provider *sdkmetric.MeterProvider
	// Handler serves the Prometheus exposition format. It is nil for
	// OTLP and none exporters.
	Handler http.Handler
}

// Shutdown flushes and stops the meter provider.
func (m *MeterSetup) Shutdown(ctx context.Context) error {
	if m == nil || m.Provider == nil {
		return nil
	}
	return m.Provider.Shutdown(ctx)
}

// InitMeter installs a global meter provider with the configured exporter.
// The Prometheus exporter uses its own registry so repeated initialisation
// in tests does not collide on the default registerer.
func InitMeter(ctx context.Context, id Identity, cfg Config) (*MeterSetup, error) {
	res, err := newResource(id)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	setup := &MeterSetup{}
	var reader sdkmetric.Reader
	switch cfg.MetricExporter {
	case ExporterPrometheus:
		registry := prometheus.NewRegistry()
		exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
		if err != nil {
			return nil, fmt.Errorf("creating prometheus exporter: %w", err)
		}
		reader = exporter
		setup.Handler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	case ExporterOTLP:
		opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint)}
		if cfg.Insecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating metric exporter: %w", err)
		}
		reader = sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))
	default:
		return setup, nil
	}

	setup.Provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(setup.Provider)

	logger.Info("meter initialized", logger.Fields(
		"service", id.ServiceName,
		"exporter", cfg.MetricExporter,
	))
	return setup, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}
