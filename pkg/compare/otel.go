package compare

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// OtelMetrics is a MetricsProvider backed by an OpenTelemetry Meter.
// Compare uses it only when a caller passes it as Options.Metrics;
// Options.EmitOtel alone does not install it.
type OtelMetrics struct {
	meter      metric.Meter
	counters   map[string]metric.Int64Counter
	histograms map[string]metric.Float64Histogram
}

// NewOtelMetrics builds a MetricsProvider over the given meter.
func NewOtelMetrics(meter metric.Meter) *OtelMetrics {
	return &OtelMetrics{
		meter:      meter,
		counters:   make(map[string]metric.Int64Counter),
		histograms: make(map[string]metric.Float64Histogram),
	}
}

func (o *OtelMetrics) Counter(name string, value int64, labels map[string]string) {
	c, ok := o.counters[name]
	if !ok {
		var err error
		c, err = o.meter.Int64Counter(name)
		if err != nil {
			return
		}
		o.counters[name] = c
	}
	c.Add(context.Background(), value, metric.WithAttributes(toAttributes(labels)...))
}

func (o *OtelMetrics) Histogram(name string, value float64, labels map[string]string) {
	h, ok := o.histograms[name]
	if !ok {
		var err error
		h, err = o.meter.Float64Histogram(name)
		if err != nil {
			return
		}
		o.histograms[name] = h
	}
	h.Record(context.Background(), value, metric.WithAttributes(toAttributes(labels)...))
}

func toAttributes(labels map[string]string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}
	return attrs
}
