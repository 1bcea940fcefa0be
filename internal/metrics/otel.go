// Package metrics instruments the scheduling core. Counters are kept
// in-memory for tests and mirrored to OpenTelemetry instruments exported
// through Prometheus when telemetry is enabled.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TelemetryConfig controls how metrics are exported.
type TelemetryConfig struct {
	Enabled     bool
	ServiceName string
}

// Setup configures OpenTelemetry metrics with a Prometheus exporter. It
// returns a Recorder, the Prometheus HTTP handler, and a shutdown function.
func Setup(ctx context.Context, cfg TelemetryConfig) (*Recorder, http.Handler, func(context.Context) error, error) {
	if !cfg.Enabled {
		return NewRecorder(), nil, func(context.Context) error { return nil }, nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "courtboard"
	}

	registry := prometheus.NewRegistry()
	exporter, err := promexporter.New(promexporter.WithRegisterer(registry))
	if err != nil {
		return nil, nil, nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return nil, nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	instruments, err := newOtelInstruments(provider)
	if err != nil {
		return nil, nil, nil, err
	}

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	shutdown := func(c context.Context) error { return provider.Shutdown(c) }
	return newRecorder(instruments), handler, shutdown, nil
}

type otelInstruments struct {
	ctx              context.Context
	assignments      metric.Int64Counter
	clears           metric.Int64Counter
	takeoverUndos    metric.Int64Counter
	waitlistJoins    metric.Int64Counter
	waitlistServed   metric.Int64Counter
	estimates        metric.Int64Counter
	versionConflicts metric.Int64Counter
	requests         metric.Int64Counter
	requestLatencyMs metric.Float64Histogram
}

func newOtelInstruments(provider metric.MeterProvider) (*otelInstruments, error) {
	meter := provider.Meter("courtboard")

	assignments, err := meter.Int64Counter("court_assignments_total")
	if err != nil {
		return nil, err
	}
	clears, err := meter.Int64Counter("court_clears_total")
	if err != nil {
		return nil, err
	}
	takeoverUndos, err := meter.Int64Counter("takeover_undos_total")
	if err != nil {
		return nil, err
	}
	waitlistJoins, err := meter.Int64Counter("waitlist_joins_total")
	if err != nil {
		return nil, err
	}
	waitlistServed, err := meter.Int64Counter("waitlist_served_total")
	if err != nil {
		return nil, err
	}
	estimates, err := meter.Int64Counter("wait_estimates_total")
	if err != nil {
		return nil, err
	}
	versionConflicts, err := meter.Int64Counter("apply_conflicts_total")
	if err != nil {
		return nil, err
	}
	requests, err := meter.Int64Counter("http_requests_total")
	if err != nil {
		return nil, err
	}
	requestLatency, err := meter.Float64Histogram("http_request_duration_ms")
	if err != nil {
		return nil, err
	}

	return &otelInstruments{
		ctx:              context.Background(),
		assignments:      assignments,
		clears:           clears,
		takeoverUndos:    takeoverUndos,
		waitlistJoins:    waitlistJoins,
		waitlistServed:   waitlistServed,
		estimates:        estimates,
		versionConflicts: versionConflicts,
		requests:         requests,
		requestLatencyMs: requestLatency,
	}, nil
}

func (o *otelInstruments) recordAssignment(displaced bool) {
	if o == nil {
		return
	}
	o.assignments.Add(o.ctx, 1, metric.WithAttributes(attribute.Bool("displaced", displaced)))
}

func (o *otelInstruments) recordClear(reason string) {
	if o == nil {
		return
	}
	o.clears.Add(o.ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func (o *otelInstruments) recordTakeoverUndo(fellBack bool) {
	if o == nil {
		return
	}
	o.takeoverUndos.Add(o.ctx, 1, metric.WithAttributes(attribute.Bool("fallback", fellBack)))
}

func (o *otelInstruments) recordWaitlistJoin() {
	if o == nil {
		return
	}
	o.waitlistJoins.Add(o.ctx, 1)
}

func (o *otelInstruments) recordWaitlistServed(passThrough bool) {
	if o == nil {
		return
	}
	o.waitlistServed.Add(o.ctx, 1, metric.WithAttributes(attribute.Bool("pass_through", passThrough)))
}

func (o *otelInstruments) recordEstimate() {
	if o == nil {
		return
	}
	o.estimates.Add(o.ctx, 1)
}

func (o *otelInstruments) recordVersionConflict(op string) {
	if o == nil {
		return
	}
	o.versionConflicts.Add(o.ctx, 1, metric.WithAttributes(attribute.String("operation", op)))
}

func (o *otelInstruments) recordHTTPRequest(method, path string, status int, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	o.requests.Add(o.ctx, 1, attrs)
	o.requestLatencyMs.Record(o.ctx, float64(duration.Milliseconds()), attrs)
}
