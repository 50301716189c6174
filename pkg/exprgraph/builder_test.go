package exprgraph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/funcs"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/value"
)

// TestBuilder_Dedup_StableIDs verifies that structurally identical
// operations collapse to one id.
func TestBuilder_Dedup_StableIDs(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	a, err := b.Var("a")
	require.NoError(t, err)
	bb, err := b.Var("b")
	require.NoError(t, err)

	sum1, err := b.Op(exprgraph.OpAdd, a, bb)
	require.NoError(t, err)
	sum2, err := b.Op(exprgraph.OpAdd, a, bb)
	require.NoError(t, err)
	assert.Equal(t, sum1, sum2)

	// Operand order matters: (b + a) is a different operation.
	flipped, err := b.Op(exprgraph.OpAdd, bb, a)
	require.NoError(t, err)
	assert.NotEqual(t, sum1, flipped)
}

// TestBuilder_Constants_NotDeduplicated verifies that equal constants
// keep separate pool entries.
func TestBuilder_Constants_NotDeduplicated(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	c1 := b.Constant(value.Int(42))
	c2 := b.Constant(value.Int(42))
	assert.NotEqual(t, c1, c2)
	assert.Equal(t, 2, b.Len())
}

// TestBuilder_Var_DuplicateName tests that redeclaring a variable fails.
func TestBuilder_Var_DuplicateName(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	_, err := b.Var("a")
	require.NoError(t, err)

	_, err = b.Var("a")
	assert.ErrorIs(t, err, exprgraph.ErrDuplicateVariable)
}

// TestBuilder_Op_UnknownOperand tests the insertion-time range check.
func TestBuilder_Op_UnknownOperand(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)
	a, err := b.Var("a")
	require.NoError(t, err)

	_, err = b.Op(exprgraph.OpAdd, a, exprgraph.OpID(99))
	assert.ErrorIs(t, err, exprgraph.ErrUnknownOperand)

	var buildErr *exprgraph.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, 99, buildErr.Ref)
}

// TestBuilder_Op_WrongArity tests operand count validation.
func TestBuilder_Op_WrongArity(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)
	a, err := b.Var("a")
	require.NoError(t, err)

	_, err = b.Op(exprgraph.OpAdd, a)
	assert.ErrorIs(t, err, exprgraph.ErrBadArity)

	_, err = b.Op(exprgraph.OpNeg, a, a)
	assert.ErrorIs(t, err, exprgraph.ErrBadArity)
}

// TestBuilder_Fun_UnknownName tests registry resolution at insertion.
func TestBuilder_Fun_UnknownName(t *testing.T) {
	b := exprgraph.NewBuilder(funcs.Registry[value.Variant]())
	a, err := b.Var("a")
	require.NoError(t, err)

	_, err = b.Fun("nope", a)
	assert.ErrorIs(t, err, exprgraph.ErrUnknownFunction)
}

// TestBuilder_Fun_NilRegistry tests that any name fails without a registry.
func TestBuilder_Fun_NilRegistry(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)
	a, err := b.Var("a")
	require.NoError(t, err)

	_, err = b.Fun("avail", a)
	assert.ErrorIs(t, err, exprgraph.ErrUnknownFunction)
}

// TestBuilder_Finalize_Empty tests finalizing with no operations.
func TestBuilder_Finalize_Empty(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	_, err := b.Finalize()
	assert.ErrorIs(t, err, exprgraph.ErrEmpty)
}

// TestBuilder_Finalize_Dangling tests that an operation unreachable from
// the root fails validation.
func TestBuilder_Finalize_Dangling(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	a, err := b.Var("a")
	require.NoError(t, err)
	orphan := b.Constant(value.Int(1))

	// Root is neg(a); the constant hangs loose.
	_, err = b.Op(exprgraph.OpNeg, a)
	require.NoError(t, err)

	_, err = b.Finalize()
	assert.ErrorIs(t, err, exprgraph.ErrDangling)

	var buildErr *exprgraph.BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, orphan, buildErr.NodeID)
}

// TestBuilder_Finalize_Success tests the happy path and root placement.
func TestBuilder_Finalize_Success(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)

	a, err := b.Var("a")
	require.NoError(t, err)
	c := b.Constant(value.Int(42))
	root, err := b.Op(exprgraph.OpMul, a, c)
	require.NoError(t, err)

	expr, err := b.Finalize()
	require.NoError(t, err)
	assert.Equal(t, root, expr.Root())
	assert.Equal(t, 3, expr.Len())
	assert.Equal(t, []string{"a"}, expr.Variables())
}

// TestRebuild_RoundTrip verifies that a finalized expression's nodes and
// constants reconstruct an equivalent expression.
func TestRebuild_RoundTrip(t *testing.T) {
	b := exprgraph.NewBuilder[value.Variant](nil)
	a, err := b.Var("a")
	require.NoError(t, err)
	c := b.Constant(value.Int(2))
	_, err = b.Op(exprgraph.OpMul, a, c)
	require.NoError(t, err)

	expr, err := b.Finalize()
	require.NoError(t, err)

	rb, err := exprgraph.Rebuild(expr.Nodes(), expr.Constants(), nil)
	require.NoError(t, err)

	rebuilt, err := rb.Finalize()
	require.NoError(t, err)
	assert.Equal(t, expr.Len(), rebuilt.Len())
	assert.Equal(t, expr.Variables(), rebuilt.Variables())
}

// TestRebuild_FailsBeforeEvaluation verifies that malformed external
// node lists are rejected by Rebuild itself.
func TestRebuild_FailsBeforeEvaluation(t *testing.T) {
	testCases := []struct {
		name   string
		nodes  []exprgraph.Node
		consts []value.Variant
		want   error
	}{
		{
			name: "forward reference",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 0, Name: "a"},
				{Kind: exprgraph.KindUnary, Op: exprgraph.OpNeg, Args: []exprgraph.OpID{2}},
				{Kind: exprgraph.KindUnary, Op: exprgraph.OpNeg, Args: []exprgraph.OpID{0}},
			},
			want: exprgraph.ErrForwardReference,
		},
		{
			name: "self reference",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 0, Name: "a"},
				{Kind: exprgraph.KindBinary, Op: exprgraph.OpAdd, Args: []exprgraph.OpID{0, 1}},
			},
			want: exprgraph.ErrForwardReference,
		},
		{
			name: "operand out of range",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 0, Name: "a"},
				{Kind: exprgraph.KindUnary, Op: exprgraph.OpNeg, Args: []exprgraph.OpID{7}},
			},
			want: exprgraph.ErrUnknownOperand,
		},
		{
			name: "constant out of range",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindConst, Const: 0},
			},
			consts: nil,
			want:   exprgraph.ErrBadConstant,
		},
		{
			name: "sparse variable slots",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 1, Name: "a"},
			},
			want: exprgraph.ErrBadSlot,
		},
		{
			name: "duplicate variable name",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 0, Name: "a"},
				{Kind: exprgraph.KindVar, Slot: 1, Name: "a"},
			},
			want: exprgraph.ErrDuplicateVariable,
		},
		{
			name: "function id out of range",
			nodes: []exprgraph.Node{
				{Kind: exprgraph.KindVar, Slot: 0, Name: "a"},
				{Kind: exprgraph.KindCall, Name: "avail", Fun: 5, Args: []exprgraph.OpID{0}},
			},
			want: exprgraph.ErrBadFunctionID,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := exprgraph.Rebuild(tc.nodes, tc.consts, funcs.Registry[value.Variant]())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}
