// Package serial renders built expressions to a compact text form and
// loads them back.
//
// The token forms are:
//
//	_int{42}            constant (underscore + typed value literal)
//	${name}             variable
//	(lhs + rhs)         binary operation
//	(- operand)         unary operation
//	if(cond,then,else)  branch
//	@name(args...)      extension call
//
// Store renders the tree reachable from the root; shared subgraphs
// appear once per reference. Load replays the text through a Builder, so
// structural deduplication restores the sharing and the Builder's own
// validation applies. Constants are deduplicated by their literal text
// on load, since equal literals are indistinguishable in the text form.
//
// Value literals delimit their body by balanced braces. A string value
// whose content holds an unbalanced closing brace therefore has no
// representation in this form: Store renders it, but Load stops at the
// early brace and reports the remainder as malformed instead of loading
// a different expression.
package serial

import (
	"fmt"
	"strings"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/value"
)

// Codec converts operand values to and from their literal text form.
type Codec[V exprgraph.Value[V]] interface {
	// Encode renders a value as a literal.
	Encode(v V) string
	// Decode parses a literal produced by Encode.
	Decode(text string) (V, error)
}

// VariantCodec is the Codec for the default value.Variant operand type.
type VariantCodec struct{}

// Encode renders the variant's typed literal form.
func (VariantCodec) Encode(v value.Variant) string {
	return v.String()
}

// Decode parses a typed literal.
func (VariantCodec) Decode(text string) (value.Variant, error) {
	return value.Parse(text)
}

// Store renders the expression as text, recursively from the root.
func Store[V exprgraph.Value[V]](expr *exprgraph.Expression[V], codec Codec[V]) string {
	nodes := expr.Nodes()
	consts := expr.Constants()

	var render func(b *strings.Builder, id exprgraph.OpID)
	render = func(b *strings.Builder, id exprgraph.OpID) {
		n := &nodes[id]
		switch n.Kind {
		case exprgraph.KindConst:
			b.WriteString("_")
			b.WriteString(codec.Encode(consts[n.Const]))
		case exprgraph.KindVar:
			fmt.Fprintf(b, "${%s}", n.Name)
		case exprgraph.KindUnary:
			fmt.Fprintf(b, "(%s ", n.Op.Sign())
			render(b, n.Args[0])
			b.WriteString(")")
		case exprgraph.KindBinary:
			b.WriteString("(")
			render(b, n.Args[0])
			fmt.Fprintf(b, " %s ", n.Op.Sign())
			render(b, n.Args[1])
			b.WriteString(")")
		case exprgraph.KindBranch:
			b.WriteString("if(")
			render(b, n.Args[0])
			b.WriteString(",")
			render(b, n.Args[1])
			b.WriteString(",")
			render(b, n.Args[2])
			b.WriteString(")")
		case exprgraph.KindCall:
			fmt.Fprintf(b, "@%s(", n.Name)
			for i, arg := range n.Args {
				if i > 0 {
					b.WriteString(",")
				}
				render(b, arg)
			}
			b.WriteString(")")
		}
	}

	var b strings.Builder
	render(&b, expr.Root())
	return b.String()
}
