package exprgraph

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph/observability"
)

// Substitution is the binding state of one variable slot.
type Substitution[V Value[V]] struct {
	// Name is the variable name declared at build time.
	Name string
	// Value is the bound value; meaningful only when Bound is true.
	Value V
	// Bound reports whether the slot currently holds a value.
	Bound bool
}

// Stats are cumulative evaluation statistics for one Context.
type Stats struct {
	// Evaluations counts Eval calls.
	Evaluations int
	// Recomputes counts operations actually computed.
	Recomputes int
	// CacheHits counts operations served from the cache.
	CacheHits int
	// Rebinds counts variable bindings and rebindings.
	Rebinds int
	// Invalidated counts cached results dropped by rebindings.
	Invalidated int
}

// Context is the per-session evaluation state of one Expression: variable
// bindings, the result cache, and counters. It holds a non-owning
// reference to its Expression; many Contexts can evaluate one Expression
// concurrently, but a single Context must not be used from more than one
// goroutine at a time.
type Context[V Value[V]] struct {
	expr  *Expression[V]
	subs  []Substitution[V]
	cache *results[V]

	id       string
	logger   *slog.Logger
	metrics  observability.MetricsRecorder
	spans    observability.SpanManager
	maxDepth int

	stats Stats
}

func newContext[V Value[V]](expr *Expression[V], opts ...Option) *Context[V] {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context[V]{
		expr:     expr,
		subs:     make([]Substitution[V], len(expr.varNames)),
		id:       uuid.New().String(),
		metrics:  o.metrics,
		spans:    o.spans,
		maxDepth: o.maxDepth,
	}
	for slot, name := range expr.varNames {
		c.subs[slot].Name = name
	}
	if o.cache {
		c.cache = newResults[V](expr.nodes, len(expr.varNames))
	}
	if o.logger != nil {
		c.logger = observability.EnrichLogger(o.logger, c.id, len(expr.nodes))
	}
	return c
}

// ID returns the context's session id, a UUID generated at construction.
// It tags every log event emitted for this context.
func (c *Context[V]) ID() string {
	return c.id
}

// Expression returns the expression this context evaluates.
func (c *Context[V]) Expression() *Expression[V] {
	return c.expr
}

// Stats returns a snapshot of the cumulative evaluation statistics.
func (c *Context[V]) Stats() Stats {
	return c.stats
}

// Variables returns a copy of the binding state of every slot, in slot
// order.
func (c *Context[V]) Variables() []Substitution[V] {
	return append([]Substitution[V](nil), c.subs...)
}

// Lookup resolves a variable name to its slot.
func (c *Context[V]) Lookup(name string) (int, bool) {
	return c.expr.SlotOf(name)
}

// Bind sets the value of a variable by name. Rebinding drops exactly the
// cached results that depend on the variable; everything else stays
// served from cache.
func (c *Context[V]) Bind(name string, value V) error {
	slot, ok := c.expr.SlotOf(name)
	if !ok {
		return &EvalError{NodeID: -1, Node: name, Operand: -1, Err: ErrUnknownVariable}
	}
	return c.BindSlot(slot, value)
}

// BindSlot sets the value of a variable by slot.
func (c *Context[V]) BindSlot(slot int, value V) error {
	if slot < 0 || slot >= len(c.subs) {
		return &EvalError{NodeID: -1, Node: "binding", Operand: OpID(slot), Err: ErrBadSlot}
	}

	c.subs[slot].Value = value
	c.subs[slot].Bound = true
	c.stats.Rebinds++

	dropped := 0
	if c.cache != nil {
		before := c.cache.validCount()
		c.cache.invalidate(slot)
		dropped = before - c.cache.validCount()
		c.stats.Invalidated += dropped
	}

	c.metrics.RecordRebind(context.Background(), c.subs[slot].Name, dropped)
	observability.LogRebind(c.logger, c.id, c.subs[slot].Name, dropped)
	return nil
}

// BindAll binds every entry of the map by name, failing on the first
// unknown variable.
func (c *Context[V]) BindAll(values map[string]V) error {
	for name, value := range values {
		if err := c.Bind(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Ready reports whether the cache holds a current result for id. Always
// false with caching disabled.
func (c *Context[V]) Ready(id OpID) bool {
	return c.cache != nil && int(id) < c.expr.Len() && c.cache.ready(id)
}

// ResultOf reads the cached result of one operation without evaluating
// anything. Reading a slot that has not been computed, or was dropped by
// an invalidation, returns ErrNotReady.
func (c *Context[V]) ResultOf(id OpID) (V, error) {
	var zero V
	if id < 0 || int(id) >= c.expr.Len() {
		return zero, &EvalError{NodeID: id, Node: "result", Operand: -1, Err: ErrUnknownOperand}
	}
	if c.cache == nil {
		return zero, &EvalError{NodeID: id, Node: c.expr.nodes[id].String(), Operand: -1, Err: ErrNotReady}
	}
	out, ok := c.cache.load(id)
	if !ok {
		return zero, &EvalError{NodeID: id, Node: c.expr.nodes[id].String(), Operand: -1, Err: ErrNotReady}
	}
	return out.value, out.err
}

// Eval resolves the root operation, recomputing only what the cache does
// not already hold. The returned error chain names the path from the root
// to the failing operation.
func (c *Context[V]) Eval(ctx context.Context) (V, error) {
	start := time.Now()
	statsBefore := c.stats
	c.stats.Evaluations++

	observability.LogEvalStart(c.logger, c.id)
	ctx, span := c.spans.StartEvalSpan(ctx, c.id)

	value, err := c.expr.eval(ctx, c, c.expr.Root(), 0)

	duration := time.Since(start)
	durationMs := float64(duration.Milliseconds())
	recomputes := c.stats.Recomputes - statsBefore.Recomputes
	hits := c.stats.CacheHits - statsBefore.CacheHits
	c.metrics.RecordEvaluation(ctx, duration, recomputes, hits, err)
	c.spans.EndSpanWithError(span, err)

	if err != nil {
		observability.LogEvalError(c.logger, c.id, err, durationMs)
	} else {
		observability.LogEvalComplete(c.logger, c.id, durationMs, recomputes, hits)
	}
	return value, err
}
