// Package observability provides opt-in observability for exprgraph:
// structured logging, metrics, and distributed tracing.
//
// Features:
//   - Structured logging via slog (Go stdlib)
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything here is recorded per Evaluate call from context counters,
// never on the per-operation hot path, and has a no-op implementation
// when disabled.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger adds evaluation context to a logger.
// Returns a new logger with context_id and expr_ops fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, ctx.ID(), expr.Len())
//	enriched.Info("binding inputs") // includes context_id, expr_ops
func EnrichLogger(logger *slog.Logger, contextID string, exprOps int) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("context_id", contextID),
		slog.Int("expr_ops", exprOps),
	)
}

// LogEvalStart logs the start of an evaluation.
func LogEvalStart(logger *slog.Logger, contextID string) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation starting",
		slog.String("context_id", contextID),
	)
}

// LogEvalComplete logs successful evaluation completion.
func LogEvalComplete(logger *slog.Logger, contextID string, durationMs float64, recomputes, cacheHits int) {
	if logger == nil {
		return
	}
	logger.Debug("evaluation completed",
		slog.String("context_id", contextID),
		slog.Float64("duration_ms", durationMs),
		slog.Int("recomputes", recomputes),
		slog.Int("cache_hits", cacheHits),
	)
}

// LogEvalError logs evaluation failure.
func LogEvalError(logger *slog.Logger, contextID string, err error, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Error("evaluation failed",
		slog.String("context_id", contextID),
		slog.String("error", err.Error()),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogRebind logs a variable rebinding and how much of the cache it dropped.
func LogRebind(logger *slog.Logger, contextID, variable string, dropped int) {
	if logger == nil {
		return
	}
	logger.Debug("variable rebound",
		slog.String("context_id", contextID),
		slog.String("variable", variable),
		slog.Int("results_dropped", dropped),
	)
}

// TimedOperation measures the duration of an operation.
// Returns a function that, when called, returns the elapsed time in milliseconds.
//
// Example:
//
//	done := TimedOperation()
//	// ... do work ...
//	durationMs := done()
func TimedOperation() func() float64 {
	start := time.Now()
	return func() float64 {
		return float64(time.Since(start).Milliseconds())
	}
}
