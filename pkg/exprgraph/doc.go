/*
Package exprgraph provides an embeddable typed expression engine.

# Overview

exprgraph builds expressions as validated directed acyclic graphs and
evaluates them with dependency-aware result caching. Structurally
identical subexpressions are shared, the evaluation order invariant
(every operand strictly precedes its consumer) makes validation and
invalidation linear, and rebinding a variable drops exactly the cached
results that depend on it.

The library is generic over the operand type:
  - Bring your own value type via the Value contract, or use the
    nullable Variant from pkg/exprgraph/value
  - Compile-time validation of graph structure at Finalize
  - Per-context result caching with precise invalidation
  - OpenTelemetry integration for observability

# Basic Usage

Build a graph bottom-up, finalize it, then evaluate through a context:

	b := exprgraph.NewBuilder[value.Variant](nil)
	a, _ := b.Var("a")
	bb, _ := b.Var("b")
	sum, _ := b.Op(exprgraph.OpAdd, a, bb)
	c := b.Constant(value.Int(42))
	b.Op(exprgraph.OpSub, sum, c) // root: (a + b) - 42

	expr, err := b.Finalize()
	if err != nil {
	    log.Fatal(err)
	}

	ctx := expr.Context()
	ctx.Bind("a", value.Int(88))
	ctx.Bind("b", value.Int(0))
	result, err := ctx.Eval(context.Background())
	if err != nil {
	    log.Fatal(err)
	}
	fmt.Println(result) // int{46}

# Caching and Rebinding

A Context caches every operation's result. Rebinding one variable keeps
the results that do not depend on it:

	ctx.Bind("b", value.Int(7)) // (a + b) and the root recompute; nothing else does
	result, _ = ctx.Eval(context.Background())

The Expression itself is immutable and safe to share: derive one Context
per evaluation session.

# Conditionals and Extension Functions

Branches evaluate only the condition and the taken branch, so the
untaken side may be unresolvable. Extension functions receive their
arguments as an on-demand accessor and can short-circuit the same way;
see pkg/exprgraph/funcs for builtins.
*/
package exprgraph
