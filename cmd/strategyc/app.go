package main

import (
	"context"
	"errors"
	"net/http"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/strategykit/adapter"
	"github.com/kbukum/strategykit/adapter/exchange"
	"github.com/kbukum/strategykit/adapter/flashloan"
	"github.com/kbukum/strategykit/compiler"
	"github.com/kbukum/strategykit/ledger"
	"github.com/kbukum/strategykit/logger"
	"github.com/kbukum/strategykit/observability"
	"github.com/kbukum/strategykit/version"
)

// app is the wired process: one ledger client, the adapters built from
// configuration and a compiler over them.
type app struct {
	cfg       *Config
	log       *logger.Logger
	rpc       *ledger.RPC
	compiler  *compiler.Compiler
	submitter *ledger.Submitter
	metrics   *observability.Metrics

	exposition http.Handler
	meter      *observability.MeterSetup
	tracer     *sdktrace.TracerProvider
}

// newApp wires cfg. Telemetry exporters are installed only when telemetry
// is set; one-shot commands leave it off.
func newApp(ctx context.Context, cfg *Config, telemetry bool) (*app, error) {
	logger.Init(cfg.Logging, cfg.Name)
	a := &app{cfg: cfg, log: logger.GetGlobalLogger()}

	if telemetry {
		id := observability.Identity{
			ServiceName:    cfg.Name,
			ServiceVersion: version.GetShortVersion(),
			Environment:    cfg.Environment,
		}
		meter, err := observability.InitMeter(ctx, id, cfg.Observability)
		if err != nil {
			return nil, err
		}
		a.meter, a.exposition = meter, meter.Handler
		if cfg.Observability.TracingEnabled {
			if a.tracer, err = observability.InitTracer(ctx, id, cfg.Observability); err != nil {
				return nil, errors.Join(err, a.meter.Shutdown(ctx))
			}
		}
	}

	m := observability.Meter(cfg.Name)
	metrics, err := observability.NewMetrics(m)
	if err != nil {
		return nil, err
	}
	compileMetrics, err := observability.NewCompileMetrics(m)
	if err != nil {
		return nil, err
	}
	a.metrics = metrics

	a.rpc, err = ledger.NewRPC(cfg.Ledger, ledger.WithLogger(a.log), ledger.WithMetrics(metrics))
	if err != nil {
		return nil, err
	}
	a.submitter = ledger.NewSubmitter(a.rpc, cfg.Ledger, a.log)

	reg := adapter.NewRegistry()
	reg.RegisterFactory(flashloan.Family, flashloan.Factory)
	reg.RegisterFactory(exchange.Family, exchange.NewFactory(
		ledger.NewPoolReader(a.rpc, cfg.Pools),
		exchange.WithLogger(a.log),
		exchange.WithMetrics(metrics),
	))
	if err := reg.Configure(cfg.Adapters); err != nil {
		return nil, err
	}

	a.compiler = compiler.New(reg, cfg.Compiler,
		compiler.WithLogger(a.log),
		compiler.WithMetrics(compileMetrics),
		compiler.WithTaskMetrics(metrics),
	)
	a.log.Debug("application wired", logger.Fields("adapters", reg.Tags()))
	return a, nil
}

// Close flushes telemetry.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	errs = append(errs, a.meter.Shutdown(ctx))
	return errors.Join(errs...)
}
