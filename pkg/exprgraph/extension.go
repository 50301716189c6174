package exprgraph

import (
	"fmt"
	"sort"
)

// FunID identifies an extension function within one Registry.
type FunID int

// ArgAccessor resolves one function argument by operation id, evaluating
// it on demand. A function that returns before pulling an argument never
// forces that argument to be resolvable, which is what allows
// short-circuiting functions such as avail.
type ArgAccessor[V Value[V]] func(OpID) (V, error)

// Func is a named extension function invokable from an expression.
// Implementations must be stateless or safe for concurrent use, since one
// Registry is shared by every Expression and Context built from it.
type Func[V Value[V]] interface {
	// Name returns the unique function name used by Builder.Fun.
	Name() string

	// Eval computes the function result. args lists the operation ids of
	// the declared arguments in order; arg resolves any of them on demand.
	Eval(arg ArgAccessor[V], args []OpID) (V, error)
}

// Registry is a fixed set of extension functions, resolved by name at
// construction time and dispatched by numeric id at evaluation time.
// A Registry is immutable after NewRegistry and safe to share.
//
// A nil *Registry behaves as an empty registry.
type Registry[V Value[V]] struct {
	funcs  []Func[V]
	byName map[string]FunID
}

// NewRegistry creates a registry from the given functions.
//
// Panics if a function is nil, has an empty name, or duplicates the name
// of an earlier function: registry composition is a programming error, not
// an input error.
func NewRegistry[V Value[V]](funcs ...Func[V]) *Registry[V] {
	r := &Registry[V]{
		funcs:  make([]Func[V], 0, len(funcs)),
		byName: make(map[string]FunID, len(funcs)),
	}
	for _, fn := range funcs {
		if fn == nil {
			panic("exprgraph: extension function cannot be nil")
		}
		name := fn.Name()
		if name == "" {
			panic("exprgraph: extension function name cannot be empty")
		}
		if _, exists := r.byName[name]; exists {
			panic(fmt.Sprintf("exprgraph: duplicate extension function name: %s", name))
		}
		r.byName[name] = FunID(len(r.funcs))
		r.funcs = append(r.funcs, fn)
	}
	return r
}

// Lookup resolves a function name to its id.
func (r *Registry[V]) Lookup(name string) (FunID, bool) {
	if r == nil {
		return 0, false
	}
	id, ok := r.byName[name]
	return id, ok
}

// Name returns the name registered for id, or "" if id is out of range.
func (r *Registry[V]) Name(id FunID) string {
	if r == nil || id < 0 || int(id) >= len(r.funcs) {
		return ""
	}
	return r.funcs[id].Name()
}

// Names returns all registered function names in sorted order.
func (r *Registry[V]) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered functions.
func (r *Registry[V]) Len() int {
	if r == nil {
		return 0
	}
	return len(r.funcs)
}

// Invoke dispatches to the function registered under id.
func (r *Registry[V]) Invoke(id FunID, arg ArgAccessor[V], args []OpID) (V, error) {
	if r == nil || id < 0 || int(id) >= len(r.funcs) {
		var zero V
		return zero, fmt.Errorf("function @%d: %w (have %d)", id, ErrBadFunctionID, r.Len())
	}
	return r.funcs[id].Eval(arg, args)
}
