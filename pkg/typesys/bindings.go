package typesys

import (
	"fmt"

	"github.com/rhino1998/strata/pkg/types"
)

type bindingKey struct {
	owner string
	name  string
}

// Binding is one type parameter and the type it resolved to. Type is nil
// while the parameter is unbound.
type Binding struct {
	Param *types.TypeVariable
	Type  types.Type
}

// Bindings maps type parameters, keyed by declaring context and name, to
// the types inferred for them during one resolution call. Entries keep
// declaration order.
type Bindings struct {
	index   map[bindingKey]int
	entries []Binding
}

func NewBindings(params ...*types.TypeVariable) *Bindings {
	b := &Bindings{index: make(map[bindingKey]int)}
	b.Declare(params...)
	return b
}

func keyOf(v *types.TypeVariable) bindingKey {
	return bindingKey{owner: v.Owner, name: v.Name}
}

// Declare adds unbound entries for params not already present.
func (b *Bindings) Declare(params ...*types.TypeVariable) {
	for _, p := range params {
		if _, ok := b.index[keyOf(p)]; ok {
			continue
		}

		b.index[keyOf(p)] = len(b.entries)
		b.entries = append(b.entries, Binding{Param: p})
	}
}

// Declares reports whether v is a parameter of this binding context.
func (b *Bindings) Declares(v *types.TypeVariable) bool {
	if b == nil {
		return false
	}

	_, ok := b.index[keyOf(v)]
	return ok
}

// Lookup returns the type bound to v, if any.
func (b *Bindings) Lookup(v *types.TypeVariable) (types.Type, bool) {
	if b == nil {
		return nil, false
	}

	i, ok := b.index[keyOf(v)]
	if !ok || b.entries[i].Type == nil {
		return nil, false
	}

	return b.entries[i].Type, true
}

// Bind records t for v. A parameter already bound to a concrete type keeps
// it when t is a type variable; binding it to a different concrete type is
// a conflict.
func (b *Bindings) Bind(v *types.TypeVariable, t types.Type) error {
	i, ok := b.index[keyOf(v)]
	if !ok {
		return fmt.Errorf("%w: %s is not a parameter of this context", types.ErrIllegalArgument, v.Name)
	}

	cur := b.entries[i].Type
	switch {
	case cur == nil:
		b.entries[i].Type = t
	case types.IsTypeVariable(t):
	case types.IsTypeVariable(cur):
		b.entries[i].Type = t
	case !types.Same(cur, t):
		return fmt.Errorf("%s bound to %s: %w", v.Name, cur, IncompatibleTypesError{Left: cur, Right: t})
	}

	return nil
}

// rebind replaces the binding for v unconditionally. Callers use it to
// widen a concrete binding to a common supertype.
func (b *Bindings) rebind(v *types.TypeVariable, t types.Type) {
	if i, ok := b.index[keyOf(v)]; ok {
		b.entries[i].Type = t
	}
}

// Apply substitutes every bound parameter in t. Unbound parameters are left
// in place.
func (b *Bindings) Apply(t types.Type) types.Type {
	if b == nil {
		return t
	}

	return substitute(t, func(v *types.TypeVariable) types.Type {
		bound, ok := b.Lookup(v)
		if !ok {
			return nil
		}

		return bound
	})
}

func (b *Bindings) Entries() []Binding {
	if b == nil {
		return nil
	}

	return b.entries
}

func (b *Bindings) Len() int {
	if b == nil {
		return 0
	}

	return len(b.entries)
}

func (b *Bindings) String() string {
	s := "{"
	for i, e := range b.Entries() {
		if i > 0 {
			s += ", "
		}

		if e.Type == nil {
			s += e.Param.Name + "=?"
		} else {
			s += e.Param.Name + "=" + e.Type.String()
		}
	}

	return s + "}"
}

// substitute rebuilds t with each type variable replaced by fn's result.
// fn returns nil to keep a variable.
func substitute(t types.Type, fn func(*types.TypeVariable) types.Type) types.Type {
	switch u := t.(type) {
	case nil:
		return nil
	case *types.TypeVariable:
		if r := fn(u); r != nil {
			return r
		}

		return u
	case *types.Parameterized:
		args := make([]types.Type, len(u.Args))
		changed := false
		for i, arg := range u.Args {
			args[i] = substitute(arg, fn)
			changed = changed || args[i] != arg
		}

		if !changed {
			return u
		}

		return types.NewParameterized(u.Base, args...)
	case *types.Array:
		elem := substitute(u.Elem, fn)
		if elem == u.Elem {
			return u
		}

		return types.NewArray(elem)
	case *types.Wildcard:
		if u.Bound == nil {
			return u
		}

		bound := substitute(u.Bound, fn)
		if bound == u.Bound {
			return u
		}

		return &types.Wildcard{Bound: bound, Lower: u.Lower}
	default:
		return t
	}
}
