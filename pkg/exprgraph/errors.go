package exprgraph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for graph construction.
var (
	// ErrEmpty indicates Finalize() was called on a builder with no operations.
	ErrEmpty = errors.New("expression has no operations")

	// ErrUnknownOperand indicates an operand id that does not exist yet.
	ErrUnknownOperand = errors.New("reference to unknown operand")

	// ErrForwardReference indicates an operand id that does not strictly
	// precede its consumer. Forward references and cycles are the same
	// defect under the ordering invariant.
	ErrForwardReference = errors.New("operand does not precede its consumer")

	// ErrDangling indicates an operation not reachable from the root.
	ErrDangling = errors.New("operation not reachable from the root")

	// ErrBadConstant indicates a constant pool index out of range.
	ErrBadConstant = errors.New("constant reference out of range")

	// ErrBadSlot indicates a variable slot out of range.
	ErrBadSlot = errors.New("variable slot out of range")

	// ErrDuplicateVariable indicates Var() was called twice with one name.
	ErrDuplicateVariable = errors.New("duplicate variable name")

	// ErrUnknownFunction indicates a function name absent from the registry.
	ErrUnknownFunction = errors.New("unknown function")

	// ErrBadArity indicates an operator given the wrong number of operands.
	ErrBadArity = errors.New("wrong number of operands")
)

// Sentinel errors for evaluation.
var (
	// ErrIncompatibleTypes indicates an operator applied to operand types
	// it cannot accept.
	ErrIncompatibleTypes = errors.New("incompatible operand types")

	// ErrUnbound indicates a variable evaluated before being bound.
	ErrUnbound = errors.New("variable is unbound")

	// ErrNotReady indicates a cache slot read before it was computed, or
	// after it was invalidated.
	ErrNotReady = errors.New("result not ready")

	// ErrBadFunctionID indicates a function id outside the registry.
	ErrBadFunctionID = errors.New("function id out of range")

	// ErrBadCondition indicates a branch condition that is not boolean.
	ErrBadCondition = errors.New("branch condition is not boolean")

	// ErrUnknownVariable indicates a name lookup that matched no variable.
	ErrUnknownVariable = errors.New("variable not found in context")

	// ErrDepthExceeded indicates the configured recursion guard fired.
	ErrDepthExceeded = errors.New("evaluation depth limit exceeded")
)

// BuildError reports a construction failure. It carries the offending node,
// the operand or cross-reference that caused the failure, and a rendering
// of the node list at the time of failure.
type BuildError struct {
	// NodeID is the offending node, or -1 when no node exists yet
	// (e.g. an operand check before the node is appended).
	NodeID OpID
	// Node is the diagnostic rendering of the offending node.
	Node string
	// Ref is the offending operand id or cross-reference index, -1 when
	// not applicable.
	Ref int
	// Limit is the highest valid index for range failures, -1 otherwise.
	Limit int
	// Ops is the rendering of the node list at the time of failure.
	Ops string
	// Err is the matching sentinel.
	Err error
}

// Error implements the error interface.
func (e *BuildError) Error() string {
	var b strings.Builder
	if e.NodeID >= 0 {
		fmt.Fprintf(&b, "operation #%d", e.NodeID)
	} else {
		b.WriteString("operation")
	}
	if e.Node != "" {
		fmt.Fprintf(&b, " %s", e.Node)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Ref >= 0 {
		fmt.Fprintf(&b, " (ref %d", e.Ref)
		if e.Limit >= 0 {
			fmt.Fprintf(&b, ", max %d", e.Limit)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Unwrap returns the sentinel for errors.Is support.
func (e *BuildError) Unwrap() error {
	return e.Err
}

// EvalError reports an evaluation failure at a specific node. Cause chains
// nest through Err: an operand failure deep in the graph surfaces wrapped
// in one EvalError per consumer on the path to the root.
type EvalError struct {
	// NodeID is the node whose evaluation failed.
	NodeID OpID
	// Node is the diagnostic rendering of the failing node.
	Node string
	// Operand is the operand id whose resolution failed, -1 when the
	// failure is the node's own.
	Operand OpID
	// Err is the cause: a sentinel or a nested evaluation error.
	Err error
}

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Operand >= 0 {
		return fmt.Sprintf("operation #%d %s: argument #%d: %v", e.NodeID, e.Node, e.Operand, e.Err)
	}
	return fmt.Sprintf("operation #%d %s: %v", e.NodeID, e.Node, e.Err)
}

// Unwrap returns the cause for errors.Is/As support.
func (e *EvalError) Unwrap() error {
	return e.Err
}

// TypeError reports an operator applied to operand types it cannot accept.
type TypeError struct {
	// NodeID is the node whose operator was refused.
	NodeID OpID
	// Op is the refused operator.
	Op Opcode
	// Types are the operand type names, in operand order.
	Types []string
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("operation #%d: operator %s cannot be applied to (%s)",
		e.NodeID, e.Op, strings.Join(e.Types, ", "))
}

// Unwrap returns ErrIncompatibleTypes for errors.Is support.
func (e *TypeError) Unwrap() error {
	return ErrIncompatibleTypes
}
