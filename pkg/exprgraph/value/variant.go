// Package value provides Variant, the default operand type for
// exprgraph expressions: a nullable scalar holding an int, float, bool
// or string.
//
// Null is absorbing for arithmetic, bitwise and logical operators: if
// either operand is null the result is null, whatever the other operand
// holds. Comparisons treat null as a value
// that equals only null and orders below every concrete value. Mixed
// int/float arithmetic promotes to float.
package value

import (
	"fmt"
	"strconv"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
)

type kind uint8

const (
	kindNull kind = iota
	kindInt
	kindFloat
	kindBool
	kindString
)

// Variant is a nullable scalar value. The zero Variant is null.
type Variant struct {
	kind kind
	i    int64
	f    float64
	b    bool
	s    string
}

// Compile-time contract check.
var _ exprgraph.Value[Variant] = Variant{}

// Null returns the null value.
func Null() Variant {
	return Variant{}
}

// Int returns an integer value.
func Int(v int64) Variant {
	return Variant{kind: kindInt, i: v}
}

// Float returns a floating-point value.
func Float(v float64) Variant {
	return Variant{kind: kindFloat, f: v}
}

// Bool returns a boolean value.
func Bool(v bool) Variant {
	return Variant{kind: kindBool, b: v}
}

// String returns a string value.
func String(v string) Variant {
	return Variant{kind: kindString, s: v}
}

// IsNull reports whether the value is null.
func (v Variant) IsNull() bool {
	return v.kind == kindNull
}

// TypeName returns the contained type name for diagnostics.
func (v Variant) TypeName() string {
	switch v.kind {
	case kindInt:
		return "int"
	case kindFloat:
		return "float"
	case kindBool:
		return "bool"
	case kindString:
		return "string"
	default:
		return "null"
	}
}

// Int returns the contained integer. ok is false for any other kind.
func (v Variant) Int() (int64, bool) {
	return v.i, v.kind == kindInt
}

// Float returns the contained float. ok is false for any other kind.
func (v Variant) Float() (float64, bool) {
	return v.f, v.kind == kindFloat
}

// Bool returns the contained boolean. ok is false for any other kind.
func (v Variant) Bool() (bool, bool) {
	return v.b, v.kind == kindBool
}

// Str returns the contained string. ok is false for any other kind.
func (v Variant) Str() (string, bool) {
	return v.s, v.kind == kindString
}

// AsBool converts the value for use as a branch condition. Only boolean
// values qualify; a null condition is an error, not a false.
func (v Variant) AsBool() (bool, bool) {
	return v.b, v.kind == kindBool
}

// asFloat widens int to float for mixed arithmetic.
func (v Variant) asFloat() float64 {
	if v.kind == kindInt {
		return float64(v.i)
	}
	return v.f
}

func (v Variant) isNumeric() bool {
	return v.kind == kindInt || v.kind == kindFloat
}

// Unary applies a one-operand operator. Null absorbs every operator a
// concrete operand of any type would accept.
func (v Variant) Unary(op exprgraph.Opcode) (Variant, bool) {
	if v.kind == kindNull {
		switch op {
		case exprgraph.OpNeg, exprgraph.OpNot, exprgraph.OpBitNot:
			return Null(), true
		}
		return Variant{}, false
	}

	switch op {
	case exprgraph.OpNeg:
		switch v.kind {
		case kindInt:
			return Int(-v.i), true
		case kindFloat:
			return Float(-v.f), true
		}
	case exprgraph.OpNot:
		if v.kind == kindBool {
			return Bool(!v.b), true
		}
	case exprgraph.OpBitNot:
		if v.kind == kindInt {
			return Int(^v.i), true
		}
	}
	return Variant{}, false
}

// Binary applies a two-operand operator with the receiver on the left.
func (v Variant) Binary(op exprgraph.Opcode, rhs Variant) (Variant, bool) {
	switch op {
	case exprgraph.OpEq, exprgraph.OpNe, exprgraph.OpGt, exprgraph.OpLt,
		exprgraph.OpGe, exprgraph.OpLe:
		return v.compare(op, rhs)
	case exprgraph.OpAdd, exprgraph.OpSub, exprgraph.OpMul, exprgraph.OpDiv,
		exprgraph.OpMod:
		return v.arithmetic(op, rhs)
	case exprgraph.OpBitAnd, exprgraph.OpBitOr, exprgraph.OpBitXor:
		return v.bitwise(op, rhs)
	case exprgraph.OpAnd, exprgraph.OpOr:
		return v.logical(op, rhs)
	}
	return Variant{}, false
}

// compare orders two values. Null equals only null and orders below
// every concrete value; concrete values compare within their own
// category (numeric, bool, string), with int and float compared
// numerically.
func (v Variant) compare(op exprgraph.Opcode, rhs Variant) (Variant, bool) {
	var cmp int
	switch {
	case v.kind == kindNull && rhs.kind == kindNull:
		cmp = 0
	case v.kind == kindNull:
		cmp = -1
	case rhs.kind == kindNull:
		cmp = 1
	case v.isNumeric() && rhs.isNumeric():
		if v.kind == kindInt && rhs.kind == kindInt {
			cmp = compareOrdered(v.i, rhs.i)
		} else {
			cmp = compareOrdered(v.asFloat(), rhs.asFloat())
		}
	case v.kind == kindString && rhs.kind == kindString:
		cmp = compareOrdered(v.s, rhs.s)
	case v.kind == kindBool && rhs.kind == kindBool:
		cmp = compareOrdered(boolInt(v.b), boolInt(rhs.b))
	default:
		return Variant{}, false
	}

	switch op {
	case exprgraph.OpEq:
		return Bool(cmp == 0), true
	case exprgraph.OpNe:
		return Bool(cmp != 0), true
	case exprgraph.OpGt:
		return Bool(cmp > 0), true
	case exprgraph.OpLt:
		return Bool(cmp < 0), true
	case exprgraph.OpGe:
		return Bool(cmp >= 0), true
	case exprgraph.OpLe:
		return Bool(cmp <= 0), true
	}
	return Variant{}, false
}

// arithmetic applies +, -, *, / and %. A null operand absorbs the
// operation no matter what the other operand holds.
func (v Variant) arithmetic(op exprgraph.Opcode, rhs Variant) (Variant, bool) {
	if v.kind == kindNull || rhs.kind == kindNull {
		return Null(), true
	}
	if !v.isNumeric() || !rhs.isNumeric() {
		return Variant{}, false
	}

	if v.kind == kindInt && rhs.kind == kindInt {
		switch op {
		case exprgraph.OpAdd:
			return Int(v.i + rhs.i), true
		case exprgraph.OpSub:
			return Int(v.i - rhs.i), true
		case exprgraph.OpMul:
			return Int(v.i * rhs.i), true
		case exprgraph.OpDiv:
			if rhs.i == 0 {
				return Variant{}, false
			}
			return Int(v.i / rhs.i), true
		case exprgraph.OpMod:
			if rhs.i == 0 {
				return Variant{}, false
			}
			return Int(v.i % rhs.i), true
		}
		return Variant{}, false
	}

	// Mixed or float operands promote to float. Modulo stays integer-only.
	a, b := v.asFloat(), rhs.asFloat()
	switch op {
	case exprgraph.OpAdd:
		return Float(a + b), true
	case exprgraph.OpSub:
		return Float(a - b), true
	case exprgraph.OpMul:
		return Float(a * b), true
	case exprgraph.OpDiv:
		if b == 0 {
			return Variant{}, false
		}
		return Float(a / b), true
	}
	return Variant{}, false
}

// bitwise applies &, | and ^. Null absorbs regardless of the other
// operand's type; concrete operands must both be integers.
func (v Variant) bitwise(op exprgraph.Opcode, rhs Variant) (Variant, bool) {
	if v.kind == kindNull || rhs.kind == kindNull {
		return Null(), true
	}
	if v.kind != kindInt || rhs.kind != kindInt {
		return Variant{}, false
	}
	switch op {
	case exprgraph.OpBitAnd:
		return Int(v.i & rhs.i), true
	case exprgraph.OpBitOr:
		return Int(v.i | rhs.i), true
	case exprgraph.OpBitXor:
		return Int(v.i ^ rhs.i), true
	}
	return Variant{}, false
}

// logical applies && and ||. Null absorbs regardless of the other
// operand's type; concrete operands must both be booleans.
func (v Variant) logical(op exprgraph.Opcode, rhs Variant) (Variant, bool) {
	if v.kind == kindNull || rhs.kind == kindNull {
		return Null(), true
	}
	if v.kind != kindBool || rhs.kind != kindBool {
		return Variant{}, false
	}
	switch op {
	case exprgraph.OpAnd:
		return Bool(v.b && rhs.b), true
	case exprgraph.OpOr:
		return Bool(v.b || rhs.b), true
	}
	return Variant{}, false
}

// String renders the value in its typed literal form, e.g. "int{42}" or
// "null". Parse is the inverse.
func (v Variant) String() string {
	switch v.kind {
	case kindInt:
		return fmt.Sprintf("int{%d}", v.i)
	case kindFloat:
		return fmt.Sprintf("float{%s}", strconv.FormatFloat(v.f, 'g', -1, 64))
	case kindBool:
		return fmt.Sprintf("bool{%t}", v.b)
	case kindString:
		return fmt.Sprintf("string{%s}", v.s)
	default:
		return "null"
	}
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
