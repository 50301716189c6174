package exprgraph

import (
	"log/slog"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph/observability"
)

// options controls per-context evaluation behavior. Configure via the
// With... functions passed to Expression.Context.
type options struct {
	cache    bool
	maxDepth int
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
}

func defaultOptions() options {
	return options{
		cache:   true,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Context.
type Option func(*options)

// WithCache enables or disables result caching. Caching is on by default;
// with caching off every evaluation recomputes the full graph.
func WithCache(enabled bool) Option {
	return func(o *options) {
		o.cache = enabled
	}
}

// WithMaxDepth sets a recursion guard for evaluation. Zero (the default)
// means no explicit limit; depth is then bounded by the operation count,
// since every operand strictly precedes its consumer.
func WithMaxDepth(limit int) Option {
	return func(o *options) {
		o.maxDepth = limit
	}
}

// WithLogger sets a structured logger for evaluation events.
// A nil logger (the default) disables logging.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets the metrics recorder for evaluations and rebindings.
// Defaults to observability.NoopMetrics.
func WithMetrics(recorder observability.MetricsRecorder) Option {
	return func(o *options) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracing sets the span manager wrapping each Eval call in a trace
// span. Defaults to observability.NoopSpanManager.
func WithTracing(spans observability.SpanManager) Option {
	return func(o *options) {
		if spans != nil {
			o.spans = spans
		}
	}
}
