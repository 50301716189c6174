package exprgraph

import (
	"fmt"
	"strings"
)

// Builder accumulates operations and validates them into an Expression.
//
// Builder is single-use and not safe for concurrent use: construct the
// graph from one goroutine, call Finalize once, and share the resulting
// Expression instead.
//
// Structurally identical operations collapse to one OpID (hash-consing).
// This is load-bearing, not an optimization: the result cache assumes one
// physical node per cache slot.
type Builder[V Value[V]] struct {
	nodes    []Node
	consts   []V
	registry *Registry[V]

	// added maps structural node keys to existing ids.
	added map[string]OpID

	// slots maps variable names to their dense slot index.
	slots    map[string]int
	varNames []string
}

// NewBuilder creates an empty builder. The registry may be nil when the
// expression uses no extension functions.
func NewBuilder[V Value[V]](registry *Registry[V]) *Builder[V] {
	return &Builder[V]{
		registry: registry,
		added:    make(map[string]OpID),
		slots:    make(map[string]int),
	}
}

// Rebuild reconstructs a builder from an externally supplied node list and
// constant pool, e.g. after deserialization. The material is treated as
// untrusted: a linear pass checks forward references and cross-reference
// ranges immediately, so malformed input fails here, before any evaluation
// is attempted. Reachability (dangling detection) still runs in Finalize,
// like for any other builder.
func Rebuild[V Value[V]](nodes []Node, consts []V, registry *Registry[V]) (*Builder[V], error) {
	b := &Builder[V]{
		nodes:    nodes,
		consts:   consts,
		registry: registry,
		added:    make(map[string]OpID, len(nodes)),
		slots:    make(map[string]int),
	}

	for i := range nodes {
		n := &nodes[i]
		id := OpID(i)

		switch n.Kind {
		case KindConst:
			if n.Const < 0 || n.Const >= len(consts) {
				return nil, &BuildError{
					NodeID: id, Node: n.String(),
					Ref: n.Const, Limit: len(consts) - 1,
					Ops: dumpNodes(nodes), Err: ErrBadConstant,
				}
			}
		case KindVar:
			if n.Slot != len(b.varNames) {
				return nil, &BuildError{
					NodeID: id, Node: n.String(),
					Ref: n.Slot, Limit: len(b.varNames),
					Ops: dumpNodes(nodes), Err: ErrBadSlot,
				}
			}
			if _, exists := b.slots[n.Name]; exists {
				return nil, &BuildError{
					NodeID: id, Node: n.String(),
					Ref: -1, Limit: -1,
					Ops: dumpNodes(nodes), Err: ErrDuplicateVariable,
				}
			}
			b.slots[n.Name] = n.Slot
			b.varNames = append(b.varNames, n.Name)
		case KindCall:
			if registry.Name(n.Fun) == "" {
				return nil, &BuildError{
					NodeID: id, Node: n.String(),
					Ref: int(n.Fun), Limit: registry.Len() - 1,
					Ops: dumpNodes(nodes), Err: ErrBadFunctionID,
				}
			}
		}

		var bad error
		n.refers(func(ref OpID) {
			if bad != nil {
				return
			}
			if ref < 0 || int(ref) >= len(nodes) {
				bad = &BuildError{
					NodeID: id, Node: n.String(),
					Ref: int(ref), Limit: len(nodes) - 1,
					Ops: dumpNodes(nodes), Err: ErrUnknownOperand,
				}
			} else if ref >= id {
				bad = &BuildError{
					NodeID: id, Node: n.String(),
					Ref: int(ref), Limit: -1,
					Ops: dumpNodes(nodes), Err: ErrForwardReference,
				}
			}
		})
		if bad != nil {
			return nil, bad
		}

		b.added[n.key()] = id
	}

	return b, nil
}

// append deduplicates the node against everything added so far and returns
// either the existing id or a fresh one. Amortized O(1).
func (b *Builder[V]) append(n Node) (OpID, bool) {
	key := n.key()
	if id, ok := b.added[key]; ok {
		return id, false
	}
	id := OpID(len(b.nodes))
	b.nodes = append(b.nodes, n)
	b.added[key] = id
	return id, true
}

// checkRefs validates that every operand id points at an already-added node.
func (b *Builder[V]) checkRefs(what string, ids []OpID) error {
	for _, id := range ids {
		if id < 0 || int(id) >= len(b.nodes) {
			return &BuildError{
				NodeID: -1, Node: what,
				Ref: int(id), Limit: len(b.nodes) - 1,
				Ops: dumpNodes(b.nodes), Err: ErrUnknownOperand,
			}
		}
	}
	return nil
}

// Constant appends a value to the constant pool and adds a node
// referencing it. Constants are not deduplicated by value; two equal
// constants occupy two pool entries, exactly as supplied.
func (b *Builder[V]) Constant(value V) OpID {
	id, fresh := b.append(Node{Kind: KindConst, Const: len(b.consts)})
	if fresh {
		b.consts = append(b.consts, value)
	}
	return id
}

// Var allocates the next variable slot under the given name and adds a
// node referencing it. Each name may be declared once; a second
// declaration returns ErrDuplicateVariable.
func (b *Builder[V]) Var(name string) (OpID, error) {
	if _, exists := b.slots[name]; exists {
		return 0, &BuildError{
			NodeID: -1, Node: fmt.Sprintf("%s($%d)", name, b.slots[name]),
			Ref: -1, Limit: -1,
			Ops: dumpNodes(b.nodes), Err: ErrDuplicateVariable,
		}
	}

	slot := len(b.varNames)
	id, _ := b.append(Node{Kind: KindVar, Slot: slot, Name: name})
	b.slots[name] = slot
	b.varNames = append(b.varNames, name)
	return id, nil
}

// Op adds a unary or binary operator node over the given operands.
func (b *Builder[V]) Op(op Opcode, ids ...OpID) (OpID, error) {
	if !op.Valid() {
		return 0, &BuildError{
			NodeID: -1, Node: op.String(),
			Ref: -1, Limit: -1,
			Ops: dumpNodes(b.nodes), Err: ErrBadArity,
		}
	}
	if len(ids) != op.Arity() {
		return 0, &BuildError{
			NodeID: -1, Node: op.String(),
			Ref: len(ids), Limit: op.Arity(),
			Ops: dumpNodes(b.nodes), Err: ErrBadArity,
		}
	}
	if err := b.checkRefs(op.String(), ids); err != nil {
		return 0, err
	}

	kind := KindBinary
	if op.Arity() == 1 {
		kind = KindUnary
	}
	id, _ := b.append(Node{Kind: kind, Op: op, Args: append([]OpID(nil), ids...)})
	return id, nil
}

// Branch adds a conditional node. Only the condition and the taken branch
// are resolved during evaluation.
func (b *Builder[V]) Branch(cond, then, els OpID) (OpID, error) {
	if err := b.checkRefs("if", []OpID{cond, then, els}); err != nil {
		return 0, err
	}
	id, _ := b.append(Node{Kind: KindBranch, Args: []OpID{cond, then, els}})
	return id, nil
}

// Fun adds an extension function call. The name is resolved against the
// registry now; evaluation dispatches by the resolved id.
func (b *Builder[V]) Fun(name string, ids ...OpID) (OpID, error) {
	if err := b.checkRefs(name, ids); err != nil {
		return 0, err
	}
	fun, ok := b.registry.Lookup(name)
	if !ok {
		return 0, &BuildError{
			NodeID: -1, Node: "@" + name,
			Ref: -1, Limit: -1,
			Ops: dumpNodes(b.nodes), Err: ErrUnknownFunction,
		}
	}
	id, _ := b.append(Node{Kind: KindCall, Name: name, Fun: fun, Args: append([]OpID(nil), ids...)})
	return id, nil
}

// Len returns the number of operations added so far.
func (b *Builder[V]) Len() int {
	return len(b.nodes)
}

// visit walks the graph depth-first from id, marking reachable nodes and
// validating operand ordering and cross-references against the final pool
// size and variable count.
func (b *Builder[V]) visit(id OpID, visited []bool) error {
	if int(id) >= len(b.nodes) {
		return &BuildError{
			NodeID: id, Node: fmt.Sprintf("operation #%d", id),
			Ref: int(id), Limit: len(b.nodes) - 1,
			Ops: dumpNodes(b.nodes), Err: ErrUnknownOperand,
		}
	}
	if visited[id] {
		return nil
	}
	visited[id] = true

	n := &b.nodes[id]
	switch n.Kind {
	case KindConst:
		if n.Const < 0 || n.Const >= len(b.consts) {
			return &BuildError{
				NodeID: id, Node: n.String(),
				Ref: n.Const, Limit: len(b.consts) - 1,
				Ops: dumpNodes(b.nodes), Err: ErrBadConstant,
			}
		}
	case KindVar:
		if n.Slot < 0 || n.Slot >= len(b.varNames) {
			return &BuildError{
				NodeID: id, Node: n.String(),
				Ref: n.Slot, Limit: len(b.varNames) - 1,
				Ops: dumpNodes(b.nodes), Err: ErrBadSlot,
			}
		}
	default:
		var bad error
		n.refers(func(ref OpID) {
			if bad != nil {
				return
			}
			if ref >= id {
				bad = &BuildError{
					NodeID: id, Node: n.String(),
					Ref: int(ref), Limit: -1,
					Ops: dumpNodes(b.nodes), Err: ErrForwardReference,
				}
				return
			}
			bad = b.visit(ref, visited)
		})
		if bad != nil {
			return bad
		}
	}

	return nil
}

// Finalize validates the graph and moves its contents into an immutable
// Expression. The last added operation is the root. Finalize consumes the
// builder: on success or failure the internal buffers are discarded and
// the builder must not be reused.
//
// Validation runs one depth-first traversal from the root: it fails on the
// first forward reference (which subsumes cycles under the ordering
// invariant), validates constant and variable cross-references against the
// final pool size and variable count, and reports any unvisited node as
// dangling.
func (b *Builder[V]) Finalize() (*Expression[V], error) {
	defer func() {
		b.nodes = nil
		b.consts = nil
		b.added = nil
		b.slots = nil
		b.varNames = nil
	}()

	if len(b.nodes) == 0 {
		return nil, ErrEmpty
	}

	visited := make([]bool, len(b.nodes))
	root := OpID(len(b.nodes) - 1)
	if err := b.visit(root, visited); err != nil {
		return nil, err
	}

	for id, seen := range visited {
		if !seen {
			return nil, &BuildError{
				NodeID: OpID(id), Node: b.nodes[id].String(),
				Ref: -1, Limit: -1,
				Ops: dumpNodes(b.nodes), Err: ErrDangling,
			}
		}
	}

	return &Expression[V]{
		nodes:    b.nodes,
		consts:   b.consts,
		registry: b.registry,
		varNames: b.varNames,
		slots:    b.slots,
	}, nil
}

// String renders the builder contents: operations, constants and the
// available extension functions.
func (b *Builder[V]) String() string {
	var sb strings.Builder
	sb.WriteString("Operations:\n")
	sb.WriteString(dumpNodes(b.nodes))
	sb.WriteString("Constants:\n")
	for i := range b.consts {
		fmt.Fprintf(&sb, "\t_%d: %v\n", i, b.consts[i])
	}
	sb.WriteString("Extension functions:\n")
	for _, name := range b.registry.Names() {
		id, _ := b.registry.Lookup(name)
		fmt.Fprintf(&sb, "\t@%d: %s\n", id, name)
	}
	return sb.String()
}
