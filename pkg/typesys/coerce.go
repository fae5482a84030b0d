package typesys

import (
	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
)

// CoerceTypes returns the type of an expression that may produce either
// t1 or t2, as for the two arms of a conditional.
func (s *System) CoerceTypes(t1, t2 types.Type) (types.Type, error) {
	switch {
	case t1 == nil:
		return t2, nil
	case t2 == nil:
		return t1, nil
	}

	t1 = types.Dereference(t1)
	t2 = types.Dereference(t2)

	if types.IsVoid(t1) || types.IsVoid(t2) {
		if types.IsVoid(t1) && types.IsVoid(t2) {
			return types.Void, nil
		}

		return nil, IncompatibleTypesError{Left: t1, Right: t2}
	}

	if types.Same(t1, t2) {
		return t1, nil
	}

	switch {
	case types.IsNull(t1):
		return s.box(t2), nil
	case types.IsNull(t2):
		return s.box(t1), nil
	}

	k1, k2 := types.NumericKind(t1), types.NumericKind(t2)
	if k1 == kinds.Boolean || k2 == kinds.Boolean {
		if k1 == k2 {
			return types.Boolean, nil
		}

		if (k1 == kinds.Unknown && !types.IsPrimitive(t1)) || (k2 == kinds.Unknown && !types.IsPrimitive(t2)) {
			return s.FindCommonSuperClass(s.box(t1), s.box(t2)), nil
		}

		return nil, IncompatibleTypesError{Left: t1, Right: t2}
	}

	if types.IsNumeric(t1) && types.IsNumeric(t2) {
		if k1 == kinds.Unknown || k2 == kinds.Unknown {
			// one side is Number
			return s.MustResolve(types.NumberName), nil
		}

		return promote(k1, k2), nil
	}

	if types.IsPrimitive(t1) || types.IsPrimitive(t2) {
		return s.CoerceTypes(s.box(t1), s.box(t2))
	}

	p1, ok1 := t1.(*types.Parameterized)
	p2, ok2 := t2.(*types.Parameterized)
	if ok1 && ok2 && types.Same(p1.Base, p2.Base) && len(p1.Args) == len(p2.Args) {
		args := make([]types.Type, len(p1.Args))
		for i := range p1.Args {
			if types.Same(p1.Args[i], p2.Args[i]) {
				args[i] = p1.Args[i]
				continue
			}

			// type arguments are never primitive, so no numeric promotion
			args[i] = &types.Wildcard{Bound: s.FindCommonSuperClass(p1.Args[i], p2.Args[i])}
		}

		return types.NewParameterized(p1.Base, args...), nil
	}

	return s.FindCommonSuperClass(t1, t2), nil
}

// promote applies binary numeric promotion: operands narrower than int
// become int, otherwise the wider kind wins.
func promote(k1, k2 kinds.Kind) types.Type {
	k := k1
	if k2.Rank() > k.Rank() {
		k = k2
	}

	if k.Rank() < kinds.Int.Rank() || k == kinds.Char {
		k = kinds.Int
	}

	return types.Primitive(k)
}

// FindCommonSuperClass returns the most specific type both t1 and t2
// extend: the first class on t1's superclass chain that t2 also extends,
// or when that is Object, the first interface of t1 that t2 implements.
func (s *System) FindCommonSuperClass(t1, t2 types.Type) types.Type {
	switch {
	case t1 == nil:
		return t2
	case t2 == nil:
		return t1
	}

	if a1, ok := types.Dereference(t1).(*types.Array); ok {
		if a2, ok := types.Dereference(t2).(*types.Array); ok {
			if types.IsPrimitive(a1.Elem) || types.IsPrimitive(a2.Elem) {
				if types.Same(a1.Elem, a2.Elem) {
					return a1
				}

				return s.Object()
			}

			return types.NewArray(s.FindCommonSuperClass(a1.Elem, a2.Elem))
		}

		return s.Object()
	}

	if s.IsSubtype(t2, t1) {
		return t1
	}

	if s.IsSubtype(t1, t2) {
		return t2
	}

	for cur := s.superclass(t1); cur != nil; cur = s.superclass(cur) {
		if types.IsObject(cur) {
			break
		}

		if s.IsSubtype(t2, cur) {
			return cur
		}
	}

	for _, anc := range s.Ancestors(t1) {
		if types.IsInterface(anc) && s.IsSubtype(t2, anc) {
			return anc
		}
	}

	return s.Object()
}

// superclass returns the first supertype of t when it is a class.
func (s *System) superclass(t types.Type) types.Type {
	supers := s.Supertypes(t)
	if len(supers) == 0 || types.IsInterface(supers[0]) {
		return nil
	}

	return supers[0]
}
