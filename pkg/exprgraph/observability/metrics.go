package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records exprgraph metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordEvaluation records one Evaluate call: duration, how many
	// operations were recomputed versus served from cache, and whether
	// the evaluation failed.
	RecordEvaluation(ctx context.Context, duration time.Duration, recomputes, cacheHits int, err error)

	// RecordRebind records a variable rebinding and the number of cached
	// results it invalidated.
	RecordRebind(ctx context.Context, variable string, dropped int)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	evaluations metric.Int64Counter
	evalLatency metric.Float64Histogram
	evalErrors  metric.Int64Counter
	recomputes  metric.Int64Counter
	cacheHits   metric.Int64Counter
	rebinds     metric.Int64Counter
	invalidated metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance.
// Lazily initializes the metrics on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

// newOtelMetrics creates a new OTel metrics instance.
func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("exprgraph")

	evaluations, err := meter.Int64Counter("exprgraph.eval.count",
		metric.WithDescription("Number of expression evaluations"),
	)
	if err != nil {
		return nil, err
	}

	evalLatency, err := meter.Float64Histogram("exprgraph.eval.latency_ms",
		metric.WithDescription("Expression evaluation latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	evalErrors, err := meter.Int64Counter("exprgraph.eval.errors",
		metric.WithDescription("Number of failed evaluations"),
	)
	if err != nil {
		return nil, err
	}

	recomputes, err := meter.Int64Counter("exprgraph.cache.recomputes",
		metric.WithDescription("Number of operation results computed"),
	)
	if err != nil {
		return nil, err
	}

	cacheHits, err := meter.Int64Counter("exprgraph.cache.hits",
		metric.WithDescription("Number of operation results served from cache"),
	)
	if err != nil {
		return nil, err
	}

	rebinds, err := meter.Int64Counter("exprgraph.rebind.count",
		metric.WithDescription("Number of variable rebindings"),
	)
	if err != nil {
		return nil, err
	}

	invalidated, err := meter.Int64Counter("exprgraph.rebind.invalidated",
		metric.WithDescription("Number of cached results dropped by rebindings"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		evaluations: evaluations,
		evalLatency: evalLatency,
		evalErrors:  evalErrors,
		recomputes:  recomputes,
		cacheHits:   cacheHits,
		rebinds:     rebinds,
		invalidated: invalidated,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

// RecordEvaluation records one Evaluate call.
func (m *otelMetrics) RecordEvaluation(ctx context.Context, duration time.Duration, recomputes, cacheHits int, err error) {
	attrs := []attribute.KeyValue{
		attribute.Bool("success", err == nil),
	}

	m.evaluations.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.evalLatency.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(attrs...))
	m.recomputes.Add(ctx, int64(recomputes))
	m.cacheHits.Add(ctx, int64(cacheHits))

	if err != nil {
		m.evalErrors.Add(ctx, 1)
	}
}

// RecordRebind records a variable rebinding.
func (m *otelMetrics) RecordRebind(ctx context.Context, variable string, dropped int) {
	attrs := []attribute.KeyValue{
		attribute.String("variable", variable),
	}
	m.rebinds.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.invalidated.Add(ctx, int64(dropped), metric.WithAttributes(attrs...))
}
