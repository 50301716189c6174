package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/funcs"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/serial"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/value"
)

// evalParsed parses text and evaluates it under the given bindings.
func evalParsed(t *testing.T, text string, bindings map[string]value.Variant) (value.Variant, error) {
	t.Helper()

	expr, err := Parse(text, serial.VariantCodec{}, funcs.Registry[value.Variant]())
	require.NoError(t, err)

	ctx := expr.Context()
	require.NoError(t, ctx.BindAll(bindings))
	return ctx.Eval(context.Background())
}

// TestParse_Expressions covers the grammar end to end.
func TestParse_Expressions(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		bindings map[string]value.Variant
		want     value.Variant
	}{
		{
			name: "constant",
			text: "int{42}",
			want: value.Int(42),
		},
		{
			name: "null keyword",
			text: "null",
			want: value.Null(),
		},
		{
			name:     "variable",
			text:     "${a}",
			bindings: map[string]value.Variant{"a": value.String("hi")},
			want:     value.String("hi"),
		},
		{
			name: "unary",
			text: "(- int{5})",
			want: value.Int(-5),
		},
		{
			name: "unary no space",
			text: "(-int{5})",
			want: value.Int(-5),
		},
		{
			name:     "binary",
			text:     "(${a} + int{1})",
			bindings: map[string]value.Variant{"a": value.Int(2)},
			want:     value.Int(3),
		},
		{
			name:     "nested",
			text:     "((${a} + ${b}) * (${a} - ${b}))",
			bindings: map[string]value.Variant{"a": value.Int(5), "b": value.Int(3)},
			want:     value.Int(16),
		},
		{
			name:     "branch",
			text:     "if((${a} > int{0}), string{pos}, string{neg})",
			bindings: map[string]value.Variant{"a": value.Int(7)},
			want:     value.String("pos"),
		},
		{
			name:     "call",
			text:     "@avail(null, ${a}, int{9})",
			bindings: map[string]value.Variant{"a": value.Int(4)},
			want:     value.Int(4),
		},
		{
			name:     "two char signs",
			text:     "(${a} >= int{3})",
			bindings: map[string]value.Variant{"a": value.Int(3)},
			want:     value.Bool(true),
		},
		{
			name: "whitespace tolerated",
			text: "  ( int{1}\t+\n int{2} )  ",
			want: value.Int(3),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := evalParsed(t, tc.text, tc.bindings)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

// TestParse_Showcase parses the full branch example and checks the
// shared subexpression collapses.
func TestParse_Showcase(t *testing.T) {
	text := "if(((${a} + ${b}) > int{0}), ((${a} + ${b}) - int{42}), ((${a} + ${b}) + null))"

	expr, err := Parse(text, serial.VariantCodec{}, nil)
	require.NoError(t, err)

	// a, b, a+b, 0, >, 42, -, null, +, if
	assert.Equal(t, 10, expr.Len())
	assert.Equal(t, []string{"a", "b"}, expr.Variables())

	ctx := expr.Context()
	require.NoError(t, ctx.BindAll(map[string]value.Variant{
		"a": value.Int(88), "b": value.Int(0),
	}))
	res, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, value.Int(46), res)
}

// TestParse_RepeatedVariable verifies one slot per name.
func TestParse_RepeatedVariable(t *testing.T) {
	expr, err := Parse("(${x} * ${x})", serial.VariantCodec{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, expr.Variables())

	ctx := expr.Context()
	require.NoError(t, ctx.Bind("x", value.Int(6)))
	res, err := ctx.Eval(context.Background())
	require.NoError(t, err)
	assert.Equal(t, value.Int(36), res)
}

// TestParse_Errors covers syntax rejection with positions.
func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"lone sign", "+"},
		{"unclosed paren", "(int{1} + int{2}"},
		{"missing rhs", "(int{1} +)"},
		{"bad unary", "(* int{1})"},
		{"unclosed brace", "int{1"},
		{"empty variable", "${}"},
		{"if without parens", "if int{1}"},
		{"call missing name", "@(int{1})"},
		{"trailing input", "int{1} int{2}"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.text, serial.VariantCodec{}, nil)
			assert.ErrorIs(t, err, ErrSyntax)

			var parseErr *Error
			require.ErrorAs(t, err, &parseErr)
			assert.GreaterOrEqual(t, parseErr.Pos, 0)
		})
	}
}

// TestParse_BadLiteral surfaces codec errors with their position.
func TestParse_BadLiteral(t *testing.T) {
	_, err := Parse("(int{nope} + int{1})", serial.VariantCodec{}, nil)
	assert.ErrorIs(t, err, value.ErrBadLiteral)

	var parseErr *Error
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 1, parseErr.Pos)
}

// TestParse_UnknownFunction validates against the registry.
func TestParse_UnknownFunction(t *testing.T) {
	_, err := Parse("@missing(${x})", serial.VariantCodec{}, nil)
	assert.ErrorIs(t, err, exprgraph.ErrUnknownFunction)
}
