package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

// TestNoopMetrics does nothing, safely.
func TestNoopMetrics(t *testing.T) {
	m := NoopMetrics{}
	assert.NotPanics(t, func() {
		m.RecordEvaluation(context.Background(), time.Second, 1, 1, nil)
		m.RecordEvaluation(context.Background(), time.Second, 0, 0, assert.AnError)
		m.RecordRebind(context.Background(), "a", 3)
	})
}

// TestNoopSpanManager returns usable spans that do nothing.
func TestNoopSpanManager(t *testing.T) {
	m := NoopSpanManager{}

	ctx, span := m.StartEvalSpan(context.Background(), "ctx-123")
	assert.Equal(t, context.Background(), ctx)
	assert.NotNil(t, span)

	assert.NotPanics(t, func() {
		m.AddSpanEvent(ctx, "event", attribute.String("k", "v"))
		m.EndSpanWithError(span, nil)
		m.EndSpanWithError(span, assert.AnError)
		m.EndSpanWithError(nil, nil)
	})
}
