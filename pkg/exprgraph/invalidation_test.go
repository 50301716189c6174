package exprgraph_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/value"
)

// buildInvalidation constructs (-42 + -a) - b and returns the expression
// along with the ids of every operation in insertion order:
// #0 const 42, #1 a, #2 -a, #3 -42, #4 +, #5 b, #6 -.
func buildInvalidation(t *testing.T) (*exprgraph.Expression[value.Variant], []exprgraph.OpID) {
	t.Helper()

	b := exprgraph.NewBuilder[value.Variant](nil)
	c42 := b.Constant(value.Int(42))
	a, err := b.Var("a")
	require.NoError(t, err)
	negA, err := b.Op(exprgraph.OpNeg, a)
	require.NoError(t, err)
	neg42, err := b.Op(exprgraph.OpNeg, c42)
	require.NoError(t, err)
	sum, err := b.Op(exprgraph.OpAdd, neg42, negA)
	require.NoError(t, err)
	bb, err := b.Var("b")
	require.NoError(t, err)
	root, err := b.Op(exprgraph.OpSub, sum, bb)
	require.NoError(t, err)

	ids := []exprgraph.OpID{c42, a, negA, neg42, sum, bb, root}
	assert.Equal(t, []exprgraph.OpID{0, 1, 2, 3, 4, 5, 6}, ids)

	expr, err := b.Finalize()
	require.NoError(t, err)
	return expr, ids
}

// readiness snapshots which of the given operations hold a valid cached
// result.
func readiness(c *exprgraph.Context[value.Variant], ids []exprgraph.OpID) []bool {
	out := make([]bool, len(ids))
	for i, id := range ids {
		out[i] = c.Ready(id)
	}
	return out
}

// TestInvalidation_PerVariableMaps verifies that rebinding drops exactly
// the operations depending on the rebound variable.
func TestInvalidation_PerVariableMaps(t *testing.T) {
	expr, ids := buildInvalidation(t)
	ctx := expr.Context()

	require.NoError(t, ctx.Bind("a", value.Int(1)))
	require.NoError(t, ctx.Bind("b", value.Int(2)))

	res, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, value.Int(-45), res)

	// Everything is cached after a full evaluation.
	assert.Equal(t, []bool{true, true, true, true, true, true, true}, readiness(ctx, ids))

	// Rebinding a drops a, -a, + and the root; constants and b survive.
	require.NoError(t, ctx.Bind("a", value.Int(10)))
	assert.Equal(t, []bool{true, false, false, true, false, true, false}, readiness(ctx, ids))

	res, err = ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, value.Int(-54), res)

	// Rebinding b drops only b and the root.
	require.NoError(t, ctx.Bind("b", value.Int(3)))
	assert.Equal(t, []bool{true, true, true, true, true, false, false}, readiness(ctx, ids))
}

// TestInvalidation_RecomputeCounts verifies via the statistics block that
// a partial rebinding recomputes only the dependent operations.
func TestInvalidation_RecomputeCounts(t *testing.T) {
	expr, _ := buildInvalidation(t)
	ctx := expr.Context()

	require.NoError(t, ctx.Bind("a", value.Int(1)))
	require.NoError(t, ctx.Bind("b", value.Int(2)))

	_, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, ctx.Stats().Recomputes)

	// Cached root: nothing recomputes.
	_, err = ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, ctx.Stats().Recomputes)
	assert.Equal(t, 1, ctx.Stats().CacheHits)

	// Rebinding b invalidates two operations: b and the root.
	require.NoError(t, ctx.Bind("b", value.Int(5)))
	assert.Equal(t, 2, ctx.Stats().Invalidated)

	_, err = ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 9, ctx.Stats().Recomputes)
}

// TestInvalidation_ErrorOutcomesDrop verifies that cached failures are
// invalidated like values when their variable is finally bound.
func TestInvalidation_ErrorOutcomesDrop(t *testing.T) {
	expr, _ := buildInvalidation(t)
	ctx := expr.Context()

	require.NoError(t, ctx.Bind("b", value.Int(2)))

	_, err := ctx.Eval(context.Background())
	require.ErrorIs(t, err, exprgraph.ErrUnbound)

	// The failure is cached and repeats without recomputation.
	recomputes := ctx.Stats().Recomputes
	_, err = ctx.Eval(context.Background())
	require.ErrorIs(t, err, exprgraph.ErrUnbound)
	assert.Equal(t, recomputes, ctx.Stats().Recomputes)

	// Binding a drops the failed outcomes and evaluation recovers.
	require.NoError(t, ctx.Bind("a", value.Int(1)))
	res, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, value.Int(-45), res)
}

// TestResultOf_NotReady tests explicit cache reads.
func TestResultOf_NotReady(t *testing.T) {
	expr, ids := buildInvalidation(t)
	ctx := expr.Context()

	_, err := ctx.ResultOf(ids[4])
	assert.ErrorIs(t, err, exprgraph.ErrNotReady)

	require.NoError(t, ctx.Bind("a", value.Int(1)))
	require.NoError(t, ctx.Bind("b", value.Int(2)))
	_, err = ctx.Eval(context.Background())
	require.NoError(t, err)

	sum, err := ctx.ResultOf(ids[4])
	require.NoError(t, err)
	assert.Equal(t, value.Int(-43), sum)

	// Rebinding a makes the sum unavailable again.
	require.NoError(t, ctx.Bind("a", value.Int(2)))
	_, err = ctx.ResultOf(ids[4])
	assert.ErrorIs(t, err, exprgraph.ErrNotReady)
}

// TestCacheDisabled_AlwaysRecomputes tests WithCache(false).
func TestCacheDisabled_AlwaysRecomputes(t *testing.T) {
	expr, ids := buildInvalidation(t)
	ctx := expr.Context(exprgraph.WithCache(false))

	require.NoError(t, ctx.Bind("a", value.Int(1)))
	require.NoError(t, ctx.Bind("b", value.Int(2)))

	_, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	_, err = ctx.Eval(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 14, ctx.Stats().Recomputes)
	assert.Equal(t, 0, ctx.Stats().CacheHits)
	assert.False(t, ctx.Ready(ids[4]))

	_, err = ctx.ResultOf(ids[4])
	assert.ErrorIs(t, err, exprgraph.ErrNotReady)
}
