package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric names recorded by the router.
const (
	MetricRequests = "aidesk.router.requests"
	MetricDuration = "aidesk.router.duration"
)

// Metrics records router outcomes.
type Metrics struct {
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// NewMetrics creates the router instruments on meter. A nil meter uses the
// global meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(InstrumentationName)
	}

	requests, err := meter.Int64Counter(MetricRequests,
		metric.WithDescription("Number of routed requests by tool and outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(MetricDuration,
		metric.WithDescription("Duration of routed requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{requests: requests, duration: duration}, nil
}

// Record counts one request. tool is empty when the envelope never named a
// valid tool; code is "ok" on success or the error kind otherwise.
func (m *Metrics) Record(ctx context.Context, tool, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if tool == "" {
		tool = "unknown"
	}
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("code", code),
	)
	m.requests.Add(ctx, 1, attrs)
	m.duration.Record(ctx, elapsed.Seconds(), attrs)
}
