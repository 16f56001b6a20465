package observability

import (
	"fmt"
	"time"
)

// Metric exporters.
const (
	ExporterPrometheus = "prometheus"
	ExporterOTLP       = "otlp"
	ExporterNone       = "none"
)

// Config is the observability section of the service configuration.
type Config struct {
	// TracingEnabled turns on the OTLP/HTTP span exporter.
	TracingEnabled bool `yaml:"tracing_enabled" mapstructure:"tracing_enabled"`
	// OTLPEndpoint is the OTLP HTTP receiver host:port.
	OTLPEndpoint string `yaml:"otlp_endpoint" mapstructure:"otlp_endpoint"`
	// Insecure disables TLS towards the OTLP receiver.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling ratio (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate"`
	// MetricExporter is one of prometheus, otlp or none.
	MetricExporter string `yaml:"metric_exporter" mapstructure:"metric_exporter"`
	// MetricInterval is the OTLP push interval.
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.OTLPEndpoint == "" {
		c.OTLPEndpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricExporter == "" {
		c.MetricExporter = ExporterPrometheus
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return fmt.Errorf("observability.sample_rate must be within [0, 1] (got: %v)", c.SampleRate)
	}
	switch c.MetricExporter {
	case ExporterPrometheus, ExporterOTLP, ExporterNone:
	default:
		return fmt.Errorf("observability.metric_exporter must be one of [prometheus, otlp, none] (got: %s)", c.MetricExporter)
	}
	return nil
}
