package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Mindburn-Labs/replayspine/pkg/compare"
)

// otelProvider owns the meter provider backing compare.OtelMetrics for
// the lifetime of a single CLI invocation.
type otelProvider struct {
	meterProvider *sdkmetric.MeterProvider
}

// newOtelMetrics dials endpoint and returns a compare.MetricsProvider
// plus a shutdown func, or (nil, noop, nil) when endpoint is empty.
func newOtelMetrics(ctx context.Context, endpoint string) (compare.MetricsProvider, func(context.Context) error, error) {
	if endpoint == "" {
		return nil, func(context.Context) error { return nil }, nil
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceName("replayspine")),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("otel: build resource: %w", err)
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("otel: dial %q: %w", endpoint, err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(15*time.Second))),
	)

	meter := mp.Meter("replayspine.compare", metric.WithInstrumentationVersion("0.1"))
	return compare.NewOtelMetrics(meter), mp.Shutdown, nil
}
