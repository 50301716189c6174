package exprgraph

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Expression is a validated, immutable expression graph. It owns the node
// list, the constant pool and a reference to the extension registry, and
// is safe to share between any number of goroutines and Contexts: all
// mutable evaluation state lives in the Context.
type Expression[V Value[V]] struct {
	nodes    []Node
	consts   []V
	registry *Registry[V]
	varNames []string
	slots    map[string]int
}

// Len returns the number of operations in the graph.
func (e *Expression[V]) Len() int {
	return len(e.nodes)
}

// Root returns the id of the root operation, always the last one.
func (e *Expression[V]) Root() OpID {
	return OpID(len(e.nodes) - 1)
}

// Variables returns the declared variable names in slot order.
func (e *Expression[V]) Variables() []string {
	return append([]string(nil), e.varNames...)
}

// SlotOf resolves a variable name to its slot.
func (e *Expression[V]) SlotOf(name string) (int, bool) {
	slot, ok := e.slots[name]
	return slot, ok
}

// Nodes returns a copy of the node list, e.g. for serialization.
func (e *Expression[V]) Nodes() []Node {
	return append([]Node(nil), e.nodes...)
}

// Constants returns a copy of the constant pool.
func (e *Expression[V]) Constants() []V {
	return append([]V(nil), e.consts...)
}

// Registry returns the extension registry the expression was built with.
func (e *Expression[V]) Registry() *Registry[V] {
	return e.registry
}

// Context derives a fresh evaluation context with no variables bound and
// an empty cache.
func (e *Expression[V]) Context(opts ...Option) *Context[V] {
	return newContext(e, opts...)
}

// String renders the graph one operation per line.
func (e *Expression[V]) String() string {
	var b strings.Builder
	b.WriteString("Operations:\n")
	b.WriteString(dumpNodes(e.nodes))
	b.WriteString("Constants:\n")
	for i := range e.consts {
		fmt.Fprintf(&b, "\t_%d: %v\n", i, e.consts[i])
	}
	return b.String()
}

// eval resolves one operation within a context: cache consultation first,
// then post-order descent. Operand failures are wrapped per consumer on
// the way up, so the returned error names the full path from the root to
// the failing operation.
func (e *Expression[V]) eval(ctx context.Context, c *Context[V], id OpID, depth int) (V, error) {
	var zero V

	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if c.maxDepth > 0 && depth > c.maxDepth {
		return zero, &EvalError{NodeID: id, Node: e.nodes[id].String(), Operand: -1, Err: ErrDepthExceeded}
	}

	if c.cache != nil {
		if out, ok := c.cache.load(id); ok {
			c.stats.CacheHits++
			return out.value, out.err
		}
	}

	value, err := e.compute(ctx, c, id, depth)
	c.stats.Recomputes++

	if c.cache != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		if err != nil {
			c.cache.fail(id, err)
		} else {
			c.cache.store(id, value)
		}
	}
	return value, err
}

// compute produces the value of one operation, assuming the cache held
// nothing for it.
func (e *Expression[V]) compute(ctx context.Context, c *Context[V], id OpID, depth int) (V, error) {
	var zero V
	n := &e.nodes[id]

	operand := func(ref OpID) (V, error) {
		v, err := e.eval(ctx, c, ref, depth+1)
		if err != nil {
			return zero, &EvalError{NodeID: id, Node: n.String(), Operand: ref, Err: err}
		}
		return v, nil
	}

	switch n.Kind {
	case KindConst:
		return e.consts[n.Const], nil

	case KindVar:
		sub := &c.subs[n.Slot]
		if !sub.Bound {
			return zero, &EvalError{NodeID: id, Node: n.String(), Operand: -1, Err: ErrUnbound}
		}
		return sub.Value, nil

	case KindUnary:
		v, err := operand(n.Args[0])
		if err != nil {
			return zero, err
		}
		res, ok := v.Unary(n.Op)
		if !ok {
			return zero, &TypeError{NodeID: id, Op: n.Op, Types: []string{v.TypeName()}}
		}
		return res, nil

	case KindBinary:
		lhs, err := operand(n.Args[0])
		if err != nil {
			return zero, err
		}
		rhs, err := operand(n.Args[1])
		if err != nil {
			return zero, err
		}
		res, ok := lhs.Binary(n.Op, rhs)
		if !ok {
			return zero, &TypeError{NodeID: id, Op: n.Op, Types: []string{lhs.TypeName(), rhs.TypeName()}}
		}
		return res, nil

	case KindBranch:
		cond, err := operand(n.Args[0])
		if err != nil {
			return zero, err
		}
		take, ok := cond.AsBool()
		if !ok {
			return zero, &EvalError{
				NodeID: id, Node: n.String(), Operand: n.Args[0],
				Err: fmt.Errorf("%w (got %s)", ErrBadCondition, cond.TypeName()),
			}
		}
		// Only the taken branch is resolved; the other one is neither
		// computed nor required to be computable.
		if take {
			return operand(n.Args[1])
		}
		return operand(n.Args[2])

	case KindCall:
		arg := func(ref OpID) (V, error) {
			declared := false
			for _, a := range n.Args {
				if a == ref {
					declared = true
					break
				}
			}
			if !declared {
				return zero, &EvalError{NodeID: id, Node: n.String(), Operand: ref, Err: ErrUnknownOperand}
			}
			return operand(ref)
		}
		res, err := e.registry.Invoke(n.Fun, arg, n.Args)
		if err != nil {
			var nested *EvalError
			if errors.As(err, &nested) && nested.NodeID == id {
				// Argument failures are already wrapped by the accessor.
				return zero, err
			}
			return zero, &EvalError{NodeID: id, Node: n.String(), Operand: -1, Err: err}
		}
		return res, nil

	default:
		return zero, &EvalError{NodeID: id, Node: n.String(), Operand: -1,
			Err: fmt.Errorf("unsupported node kind %s", n.Kind)}
	}
}
