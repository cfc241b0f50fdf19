// internal/common/observability/metrics.go
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds the OpenTelemetry instruments for the estimation pipeline.
type Metrics struct {
	provider *sdkmetric.MeterProvider

	estimateCounter  metric.Int64Counter
	estimateDuration metric.Float64Histogram
}

// NewMetrics sets up the OTel meter provider with a Prometheus exporter and
// registers the pipeline instruments.
func NewMetrics() (*Metrics, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("tender-estimator")

	estimateCounter, err := meter.Int64Counter(
		"estimates.processed",
		metric.WithDescription("Number of estimates processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimate counter: %w", err)
	}

	estimateDuration, err := meter.Float64Histogram(
		"estimates.duration",
		metric.WithDescription("Estimate processing duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create estimate duration histogram: %w", err)
	}

	return &Metrics{
		provider:         provider,
		estimateCounter:  estimateCounter,
		estimateDuration: estimateDuration,
	}, nil
}

// RecordEstimate records one completed run with its outcome and duration.
func (m *Metrics) RecordEstimate(ctx context.Context, outcome string, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.estimateCounter.Add(ctx, 1, attrs)
	m.estimateDuration.Record(ctx, duration.Seconds(), attrs)
}

// Shutdown flushes and stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.provider == nil {
		return nil
	}
	return m.provider.Shutdown(ctx)
}
