package typesys

import (
	"log/slog"

	"github.com/hashicorp/go-set/v3"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
)

type Semantics int

const (
	// Assignment allows char and int to convert both ways but forbids
	// narrowing.
	Assignment Semantics = iota
	// Argument is method invocation conversion: integral widening only, no
	// char to int, and no integral parameter accepts a floating argument.
	Argument
)

func (s Semantics) String() string {
	if s == Argument {
		return "argument"
	}

	return "assignment"
}

type AssignOptions struct {
	Semantics Semantics

	// Bindings, when set, holds the type parameters being inferred. An
	// unbound parameter in the target is bound to the source.
	Bindings *Bindings

	// AllowUnbound treats a type variable with no binding as compatible
	// with anything.
	AllowUnbound bool
}

// IsAssignableFrom reports whether a value of type source can be assigned
// to target. A nil target is unspecified and accepts anything.
func (s *System) IsAssignableFrom(target, source types.Type, opts AssignOptions) bool {
	if target == nil {
		return true
	}

	if source == nil {
		return false
	}

	target = types.Dereference(target)
	source = types.Dereference(source)

	if types.Same(target, source) {
		return true
	}

	if types.IsNull(source) {
		return !types.IsPrimitive(target) && !types.IsVoid(target)
	}

	if types.IsVoid(target) || types.IsVoid(source) {
		return false
	}

	switch t := target.(type) {
	case *types.TypeVariable:
		return s.assignableToVariable(t, source, opts)
	case *types.Wildcard:
		return s.assignableToWildcard(t, source, opts)
	}

	switch src := source.(type) {
	case *types.TypeVariable:
		if bound, ok := opts.Bindings.Lookup(src); ok {
			return s.IsAssignableFrom(target, bound, opts)
		}

		if opts.AllowUnbound {
			return true
		}

		return s.IsAssignableFrom(target, s.upperBound(src), opts)
	case *types.Wildcard:
		if src.Bound == nil || src.Lower {
			return s.IsAssignableFrom(target, s.Object(), opts)
		}

		return s.IsAssignableFrom(target, src.Bound, opts)
	}

	tk, sk := types.NumericKind(target), types.NumericKind(source)
	if tk != kinds.Unknown && sk != kinds.Unknown {
		if !types.IsPrimitive(target) && !types.IsPrimitive(source) {
			return tk == sk
		}

		// boxing conversion is never followed by widening
		if !types.IsPrimitive(target) && tk != sk {
			return false
		}

		return numberTypesAssignableFrom(tk, sk, opts.Semantics)
	}

	if types.IsPrimitive(target) {
		return false
	}

	if types.IsPrimitive(source) {
		return s.IsAssignableFrom(target, s.box(source), opts)
	}

	return s.referenceAssignable(target, source, opts)
}

// numberTypesAssignableFrom applies the conversion rules between two
// primitive kinds, boxed or not.
func numberTypesAssignableFrom(target, source kinds.Kind, sem Semantics) bool {
	if target == source {
		return true
	}

	if target == kinds.Boolean || source == kinds.Boolean {
		return false
	}

	switch sem {
	case Argument:
		switch target {
		case kinds.Char, kinds.Byte:
			return false
		case kinds.Short, kinds.Int, kinds.Long:
			return source.IsIntegral() && source != kinds.Char && source.Rank() <= target.Rank()
		case kinds.Float:
			return source.IsIntegral() && source != kinds.Char
		case kinds.Double:
			return source != kinds.Char
		}
	default:
		if target == kinds.Char {
			return source == kinds.Int
		}

		if source == kinds.Char {
			return target.Rank() >= kinds.Int.Rank()
		}

		return source.Rank() <= target.Rank()
	}

	return false
}

func (s *System) assignableToVariable(v *types.TypeVariable, source types.Type, opts AssignOptions) bool {
	if bound, ok := opts.Bindings.Lookup(v); ok {
		return s.IsAssignableFrom(bound, source, opts)
	}

	if opts.Bindings.Declares(v) {
		if !s.IsAssignableFrom(s.upperBound(v), source, AssignOptions{Semantics: opts.Semantics, AllowUnbound: true}) {
			return false
		}

		if types.IsPrimitive(source) {
			source = s.box(source)
		}

		return opts.Bindings.Bind(v, source) == nil
	}

	if src, ok := source.(*types.TypeVariable); ok {
		if src.Owner == v.Owner && src.Name == v.Name {
			return true
		}
	}

	if opts.AllowUnbound {
		return true
	}

	return s.IsAssignableFrom(s.upperBound(v), source, opts)
}

func (s *System) assignableToWildcard(w *types.Wildcard, source types.Type, opts AssignOptions) bool {
	if types.IsPrimitive(source) {
		source = s.box(source)
	}

	switch {
	case w.Bound == nil:
		return true
	case w.Lower:
		return s.IsAssignableFrom(source, w.Bound, opts)
	default:
		return s.IsAssignableFrom(w.Bound, source, opts)
	}
}

func (s *System) referenceAssignable(target, source types.Type, opts AssignOptions) bool {
	if tarr, ok := target.(*types.Array); ok {
		sarr, ok := source.(*types.Array)
		if !ok {
			return false
		}

		if types.IsPrimitive(tarr.Elem) || types.IsPrimitive(sarr.Elem) {
			return types.Same(tarr.Elem, sarr.Elem)
		}

		return s.IsAssignableFrom(tarr.Elem, sarr.Elem, opts)
	}

	if _, ok := source.(*types.Array); ok {
		switch types.ErasedName(target) {
		case types.ObjectName, "java.lang.Cloneable", "java.io.Serializable":
			return true
		default:
			return false
		}
	}

	if types.IsObject(target) && types.IsDeclared(source) {
		return true
	}

	base, ok := types.Base(target).(types.Declared)
	if !ok {
		return false
	}

	args, found := s.TypeArgumentsFor(source, base)
	if !found {
		return s.sameAfterRefresh(target, source)
	}

	tp, ok := target.(*types.Parameterized)
	if !ok || args == nil || isRaw(source) {
		// raw on either side
		return true
	}

	if len(args) != len(tp.Args) {
		return true
	}

	for i, want := range tp.Args {
		if !s.typeArgContains(want, args[i], opts) {
			return false
		}
	}

	return true
}

// isRaw reports whether t names a generic type without type arguments.
func isRaw(t types.Type) bool {
	d, ok := types.Dereference(t).(types.Declared)
	return ok && len(d.TypeParams()) > 0
}

// typeArgContains reports whether the type argument want admits have.
func (s *System) typeArgContains(want, have types.Type, opts AssignOptions) bool {
	want = types.Dereference(want)
	switch w := want.(type) {
	case *types.Wildcard:
		return s.assignableToWildcard(w, have, opts)
	case *types.TypeVariable:
		return s.assignableToVariable(w, have, opts)
	}

	if hv, ok := types.Dereference(have).(*types.TypeVariable); ok {
		if bound, ok := opts.Bindings.Lookup(hv); ok {
			return types.Same(want, bound)
		}

		return opts.AllowUnbound
	}

	if types.Same(want, have) {
		return true
	}

	wp, wok := want.(*types.Parameterized)
	hp, hok := types.Dereference(have).(*types.Parameterized)
	if wok && hok && types.Same(wp.Base, hp.Base) && len(wp.Args) == len(hp.Args) {
		for i := range wp.Args {
			if !s.typeArgContains(wp.Args[i], hp.Args[i], opts) {
				return false
			}
		}

		return true
	}

	return false
}

// sameAfterRefresh is the last resort for two compiled handles whose
// hierarchy walk failed: handles left over from a deactivated loader are
// refreshed through the current one and compared again, then by name.
func (s *System) sameAfterRefresh(target, source types.Type) bool {
	tc, tok := types.Base(target).(*types.Class)
	sc, sok := types.Base(source).(*types.Class)
	if !tok || !sok || tc.Loader() == sc.Loader() {
		return false
	}

	rt, rs := s.Refresh(tc), s.Refresh(sc)
	if rt != types.Type(tc) || rs != types.Type(sc) {
		s.logger.Debug("retrying assignability with refreshed handles",
			slog.String("target", tc.QualifiedName()),
			slog.String("source", sc.QualifiedName()),
		)

		if s.IsSubtype(rs, rt) {
			return true
		}
	}

	return tc.QualifiedName() == sc.QualifiedName()
}

// IsSubtype reports whether sub is base or inherits from it.
func (s *System) IsSubtype(sub, base types.Type) bool {
	if sub == nil || base == nil {
		return false
	}

	if types.SameErased(sub, base) || types.IsObject(base) {
		return true
	}

	name := types.ErasedName(base)
	for _, anc := range s.Ancestors(sub) {
		if types.ErasedName(anc) == name {
			return true
		}
	}

	return false
}

// Supertypes returns the direct supertypes of t: the superclass first,
// then each implemented interface. Type arguments of a parameterized t are
// substituted into them. Classes other than Object without a superclass
// extend Object.
func (s *System) Supertypes(t types.Type) []types.Type {
	t = types.Dereference(t)

	var args []types.Type
	if p, ok := t.(*types.Parameterized); ok {
		args = p.Args
	}

	d, ok := types.Base(t).(types.Declared)
	if !ok {
		if tv, ok := t.(*types.TypeVariable); ok {
			return tv.Bounds
		}

		return nil
	}

	if dd, ok := d.(*types.Decl); ok && dd.Cyclic() {
		s.diags.Report(UnresolvedError{What: "modify target", Name: dd.QualifiedName(), Context: ErrCircularModify.Error()})
		return nil
	}

	var supers []types.Type
	if super := d.Superclass(); super != nil {
		supers = append(supers, super)
	} else if d.QualifiedName() != types.ObjectName && !types.IsInterface(d) {
		supers = append(supers, s.Object())
	}

	supers = append(supers, d.Interfaces()...)

	params := d.TypeParams()
	if len(args) == 0 || len(params) != len(args) {
		return supers
	}

	for i, super := range supers {
		supers[i] = substitute(super, func(v *types.TypeVariable) types.Type {
			for j, p := range params {
				if p.Name == v.Name && p.Owner == v.Owner {
					return args[j]
				}
			}

			return nil
		})
	}

	return supers
}

// Ancestors returns every supertype of t, transitively, depth first with
// the superclass before interfaces. Each type appears once.
func (s *System) Ancestors(t types.Type) []types.Type {
	visited := set.New[string](8)
	visited.Insert(types.ErasedName(t))

	var out []types.Type
	var walk func(types.Type)
	walk = func(t types.Type) {
		for _, super := range s.Supertypes(t) {
			if !visited.Insert(types.ErasedName(super)) {
				continue
			}

			out = append(out, super)
			walk(super)
		}
	}

	walk(t)
	return out
}

func (s *System) box(t types.Type) types.Type {
	p, ok := types.Dereference(t).(types.Primitive)
	if !ok {
		return t
	}

	boxed, ok := s.ResolveType(p.Boxed())
	if !ok {
		return t
	}

	return boxed
}

// Box returns the wrapper class of a primitive, or t itself.
func (s *System) Box(t types.Type) types.Type { return s.box(t) }

func (s *System) upperBound(v *types.TypeVariable) types.Type {
	if b := v.UpperBound(); b != nil {
		return b
	}

	return s.Object()
}
