// Package observability wires OpenTelemetry tracing and metrics for
// strategykit.
//
// Tracing exports over OTLP/HTTP. Metrics go either to a Prometheus
// registry served on /metrics or to an OTLP/HTTP receiver:
//
//	tp, err := observability.InitTracer(ctx, id, cfg)
//	defer tp.Shutdown(ctx)
//
//	ms, err := observability.InitMeter(ctx, id, cfg)
//	router.GET("/metrics", gin.WrapH(ms.Handler))
//
// CompileMetrics carries the compiler's instruments; Metrics covers HTTP
// requests and outbound RPCs.
package observability
