package main

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	sdkMetric "go.opentelemetry.io/otel/sdk/metric"
	sdkTrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/covine/heimdall/bridge"
)

// setupTelemetry installs stdout trace and metric pipelines when enabled.
// Otherwise the global no-op providers stay in place.
func setupTelemetry(config bridge.Telemetry) (func(context.Context) error, error) {
	if !config.Enable {
		return func(context.Context) error { return nil }, nil
	}

	traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return nil, err
	}
	tp := sdkTrace.NewTracerProvider(sdkTrace.WithBatcher(traceExporter))

	metricExporter, err := stdoutmetric.New()
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, err
	}
	mp := sdkMetric.NewMeterProvider(sdkMetric.WithReader(
		sdkMetric.NewPeriodicReader(metricExporter,
			sdkMetric.WithInterval(time.Duration(config.Interval)*time.Second)),
	))

	otel.SetTracerProvider(tp)
	otel.SetMeterProvider(mp)
	otel.SetTextMapPropagator(propagation.Baggage{})

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
