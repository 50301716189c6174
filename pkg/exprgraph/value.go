package exprgraph

// Value is the contract the engine requires of operand values. The engine
// is generic over the concrete type: constants, variable bindings and
// results all share it. See pkg/exprgraph/value for the default
// implementation.
//
// Whether an operator can be applied to a given operand combination is
// probed at evaluation time through the ok results below; the engine keeps
// no static whitelist. A false ok surfaces as an incompatible-types error
// carrying the operand TypeNames.
type Value[V any] interface {
	// IsNull reports whether the value is absent. Implementations decide
	// the null algebra of their operators; the engine only uses IsNull for
	// diagnostics and extension functions such as avail.
	IsNull() bool

	// TypeName returns the name of the contained type for diagnostics
	// ("int", "bool", "null", ...).
	TypeName() string

	// AsBool converts the value for use as a branch condition.
	// ok is false when the value is not boolean-like.
	AsBool() (value bool, ok bool)

	// Unary applies a one-operand operator. ok is false when the operator
	// cannot be applied to the contained type.
	Unary(op Opcode) (result V, ok bool)

	// Binary applies a two-operand operator with the receiver as the left
	// operand. ok is false when the operator cannot be applied to the
	// contained type combination.
	Binary(op Opcode, rhs V) (result V, ok bool)
}
