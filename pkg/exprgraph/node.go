package exprgraph

import (
	"fmt"
	"strings"
)

// OpID identifies an operation within one expression graph.
// It is a dense index into the graph's node list and carries no meaning
// across graphs.
type OpID int

// Kind discriminates the node variants of the expression IR.
type Kind uint8

const (
	// KindConst references a value in the constant pool.
	KindConst Kind = iota + 1
	// KindVar references a variable slot to be bound at evaluation time.
	KindVar
	// KindUnary applies a one-operand operator.
	KindUnary
	// KindBinary applies a two-operand operator.
	KindBinary
	// KindBranch selects between two operands based on a condition.
	KindBranch
	// KindCall invokes an extension function with any number of arguments.
	KindCall
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConst:
		return "const"
	case KindVar:
		return "var"
	case KindUnary:
		return "unary"
	case KindBinary:
		return "binary"
	case KindBranch:
		return "branch"
	case KindCall:
		return "call"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Opcode tags unary and binary operators.
type Opcode uint8

const (
	OpAdd Opcode = iota + 1
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNeg
	OpEq
	OpNe
	OpGt
	OpLt
	OpGe
	OpLe
	OpAnd
	OpOr
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpBitNot
)

// opcodeInfo describes one operator: its name, written sign, and arity.
type opcodeInfo struct {
	name  string
	sign  string
	arity int
}

var opcodes = map[Opcode]opcodeInfo{
	OpAdd:    {"add", "+", 2},
	OpSub:    {"sub", "-", 2},
	OpMul:    {"mul", "*", 2},
	OpDiv:    {"div", "/", 2},
	OpMod:    {"mod", "%", 2},
	OpNeg:    {"neg", "-", 1},
	OpEq:     {"eq", "==", 2},
	OpNe:     {"ne", "!=", 2},
	OpGt:     {"gt", ">", 2},
	OpLt:     {"lt", "<", 2},
	OpGe:     {"ge", ">=", 2},
	OpLe:     {"le", "<=", 2},
	OpAnd:    {"and", "&&", 2},
	OpOr:     {"or", "||", 2},
	OpNot:    {"not", "!", 1},
	OpBitAnd: {"bitand", "&", 2},
	OpBitOr:  {"bitor", "|", 2},
	OpBitXor: {"bitxor", "^", 2},
	OpBitNot: {"bitnot", "~", 1},
}

// String returns the operator name.
func (o Opcode) String() string {
	if info, ok := opcodes[o]; ok {
		return info.name
	}
	return fmt.Sprintf("opcode(%d)", uint8(o))
}

// Sign returns the operator's written sign (e.g. "+" for OpAdd).
func (o Opcode) Sign() string {
	return opcodes[o].sign
}

// Arity returns the number of operands the operator takes, or 0 for an
// unknown opcode.
func (o Opcode) Arity() int {
	return opcodes[o].arity
}

// Valid reports whether o is a known operator tag.
func (o Opcode) Valid() bool {
	_, ok := opcodes[o]
	return ok
}

// OpcodeForSign resolves a written sign to an operator tag.
// Some signs are shared between a unary and a binary operator ("-"),
// so the caller states which position it is parsing.
func OpcodeForSign(sign string, unary bool) (Opcode, bool) {
	arity := 2
	if unary {
		arity = 1
	}
	for op, info := range opcodes {
		if info.sign == sign && info.arity == arity {
			return op, true
		}
	}
	return 0, false
}

// Node is one operation of the expression IR.
//
// Which fields are meaningful depends on Kind:
//   - KindConst: Const (constant pool index)
//   - KindVar: Slot and Name
//   - KindUnary/KindBinary: Op and Args (1 or 2 entries)
//   - KindBranch: Args (condition, then, else)
//   - KindCall: Fun, Name and Args
//
// Nodes are plain data; a Node never owns other nodes, it references them
// by OpID. Every referenced id is strictly smaller than the node's own id
// in a validated graph.
type Node struct {
	Kind  Kind
	Op    Opcode
	Const int
	Slot  int
	Name  string
	Fun   FunID
	Args  []OpID
}

// refers calls fn with every operand id in fixed, kind-specific order.
// Const and Var nodes have no operands; their pool and slot
// cross-references are validated separately.
func (n *Node) refers(fn func(OpID)) {
	for _, id := range n.Args {
		fn(id)
	}
}

// key returns the structural identity used for hash-consing. Two nodes
// with equal keys are interchangeable and collapse to one OpID.
func (n *Node) key() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d|%d|%d|%d|%s|%d", n.Kind, n.Op, n.Const, n.Slot, n.Name, n.Fun)
	for _, id := range n.Args {
		fmt.Fprintf(&b, "|%d", id)
	}
	return b.String()
}

// String renders the node in the diagnostic form used by error payloads
// and graph dumps, e.g. "add(#1, #2)" or "a($0)".
func (n *Node) String() string {
	switch n.Kind {
	case KindConst:
		return fmt.Sprintf("const(_%d)", n.Const)
	case KindVar:
		return fmt.Sprintf("%s($%d)", n.Name, n.Slot)
	case KindUnary:
		return fmt.Sprintf("%s(#%d)", n.Op, n.Args[0])
	case KindBinary:
		return fmt.Sprintf("%s(#%d, #%d)", n.Op, n.Args[0], n.Args[1])
	case KindBranch:
		return fmt.Sprintf("if(#%d ? #%d : #%d)", n.Args[0], n.Args[1], n.Args[2])
	case KindCall:
		var b strings.Builder
		fmt.Fprintf(&b, "@%s(", n.Name)
		for i, id := range n.Args {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "#%d", id)
		}
		b.WriteString(")")
		return b.String()
	default:
		return n.Kind.String()
	}
}

// dumpNodes renders a node list for error payloads, one node per line.
func dumpNodes(nodes []Node) string {
	var b strings.Builder
	for i := range nodes {
		fmt.Fprintf(&b, "\t#%d: %s\n", i, nodes[i].String())
	}
	return b.String()
}
