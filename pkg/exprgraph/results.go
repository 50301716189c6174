package exprgraph

import (
	"github.com/randalmurphal/exprgraph/pkg/exprgraph/bitmap"
)

// outcome is one cached evaluation result: a value or the error that
// produced it. Errors cache like values; reading a failed slot again
// repeats the error without recomputing.
type outcome[V Value[V]] struct {
	value V
	err   error
}

// results is the per-context evaluation cache: one outcome slot per
// operation, a validity bitmap over the slots, and one retention map per
// variable slot.
//
// The retention map of a variable marks the operations whose cached
// results survive rebinding that variable, i.e. the complement of the
// operations that depend on it. Rebinding intersects the validity bitmap
// with the map, dropping exactly the dependent results.
type results[V Value[V]] struct {
	slots []outcome[V]
	valid bitmap.Bitmap
	keep  []bitmap.Bitmap
}

// newResults allocates the cache for a node list and computes the
// retention maps. Dependency on a variable propagates bottom-up in one
// linear pass per variable: operand ids strictly precede consumers, so by
// the time an operation is examined all of its operands already are.
func newResults[V Value[V]](nodes []Node, varCount int) *results[V] {
	r := &results[V]{
		slots: make([]outcome[V], len(nodes)),
		valid: bitmap.New(len(nodes), false),
		keep:  make([]bitmap.Bitmap, varCount),
	}

	affected := make([]bool, len(nodes))
	for slot := 0; slot < varCount; slot++ {
		deps := bitmap.New(len(nodes), false)
		for i := range nodes {
			n := &nodes[i]
			hit := n.Kind == KindVar && n.Slot == slot
			if !hit {
				n.refers(func(ref OpID) {
					hit = hit || affected[ref]
				})
			}
			affected[i] = hit
			if hit {
				deps.Set(i)
			}
		}
		r.keep[slot] = deps.Not()
	}

	return r
}

// ready reports whether the slot holds a current outcome.
func (r *results[V]) ready(id OpID) bool {
	return r.valid.Test(int(id))
}

// load returns the cached outcome for id. ok is false when the slot is
// invalid (never computed, or dropped by an invalidation).
func (r *results[V]) load(id OpID) (outcome[V], bool) {
	if !r.valid.Test(int(id)) {
		return outcome[V]{}, false
	}
	return r.slots[id], true
}

// store caches a successful result for id and marks the slot valid.
func (r *results[V]) store(id OpID, value V) {
	r.slots[id] = outcome[V]{value: value}
	r.valid.Set(int(id))
}

// fail caches an evaluation failure for id and marks the slot valid.
func (r *results[V]) fail(id OpID, err error) {
	r.slots[id] = outcome[V]{err: err}
	r.valid.Set(int(id))
}

// invalidate drops every cached result that depends on the given variable
// slot. Results of independent operations stay valid.
func (r *results[V]) invalidate(slot int) {
	r.valid.And(r.keep[slot])
}

// validCount returns the number of currently valid slots.
func (r *results[V]) validCount() int {
	return r.valid.Count()
}
