// Package funcs provides builtin extension functions for exprgraph.
package funcs

import (
	"errors"

	"github.com/randalmurphal/exprgraph/pkg/exprgraph"
)

// ErrNoArguments indicates a function invoked with an empty argument list.
var ErrNoArguments = errors.New("function requires at least one argument")

// avail picks the first non-null argument.
type avail[V exprgraph.Value[V]] struct{}

// Avail returns the coalescing function "avail": it resolves its
// arguments left to right and returns the first non-null one. Arguments
// after the match are never resolved, so they may be unbound or
// otherwise unevaluable. If every argument is null, the result is null.
func Avail[V exprgraph.Value[V]]() exprgraph.Func[V] {
	return avail[V]{}
}

// Name returns "avail".
func (avail[V]) Name() string {
	return "avail"
}

// Eval resolves arguments until one is non-null.
func (avail[V]) Eval(arg exprgraph.ArgAccessor[V], args []exprgraph.OpID) (V, error) {
	var last V
	if len(args) == 0 {
		return last, ErrNoArguments
	}
	for _, id := range args {
		v, err := arg(id)
		if err != nil {
			return last, err
		}
		if !v.IsNull() {
			return v, nil
		}
		last = v
	}
	return last, nil
}

// Registry returns a registry holding every builtin function.
func Registry[V exprgraph.Value[V]]() *exprgraph.Registry[V] {
	return exprgraph.NewRegistry[V](Avail[V]())
}
