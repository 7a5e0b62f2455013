package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records dashboard operations through an OpenTelemetry meter
// exported on the default Prometheus registry.
type Observability struct {
	meterProvider *metric.MeterProvider
	opCounter     otelmetric.Int64Counter
	opDuration    otelmetric.Float64Histogram
}

// New returns a ready recorder. When the exporter cannot be registered it
// returns the error together with an inert recorder the caller may keep.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return &Observability{}, err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter(serviceName)

	opCounter, _ := meter.Int64Counter(
		"dashboard.operations",
		otelmetric.WithDescription("Number of dashboard operations"),
	)
	opDuration, _ := meter.Float64Histogram(
		"dashboard.operation.duration",
		otelmetric.WithDescription("Dashboard operation duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		opCounter:     opCounter,
		opDuration:    opDuration,
	}, nil
}

// NewNoop returns a recorder that drops everything.
func NewNoop() *Observability {
	return &Observability{}
}

// RecordOperation counts one run of operation and its duration. A nil
// receiver is allowed.
func (o *Observability) RecordOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	if o.opCounter != nil {
		o.opCounter.Add(ctx, 1, attrs)
	}
	if o.opDuration != nil {
		o.opDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
