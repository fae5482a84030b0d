package typesys

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/rhino1998/strata/pkg/types"
)

// TypeArgumentsFor finds base among the supertypes of sub and returns the
// type arguments it is instantiated with along the way, substituted
// through every intermediate type. found is false when no extends or
// implements path leads from sub to base; args is nil when base is reached
// raw.
func (s *System) TypeArgumentsFor(sub, base types.Type) (args []types.Type, found bool) {
	name := types.ErasedName(base)
	visited := set.New[string](8)

	var walk func(t types.Type) ([]types.Type, bool)
	walk = func(t types.Type) ([]types.Type, bool) {
		if types.ErasedName(t) == name {
			if p, ok := types.Dereference(t).(*types.Parameterized); ok {
				return p.Args, true
			}

			return nil, true
		}

		if !visited.Insert(types.ErasedName(t)) {
			return nil, false
		}

		for _, super := range s.Supertypes(t) {
			if args, ok := walk(super); ok {
				return args, true
			}
		}

		return nil, false
	}

	return walk(sub)
}

// TypeDeclOf returns the declaration behind a type handle: the base of a
// parameterized type, the bound of a variable or wildcard, and the visible
// source override of a compiled class when one exists. Primitives and
// arrays have none.
func (s *System) TypeDeclOf(t types.Type) types.Declared {
	switch u := types.Dereference(t).(type) {
	case nil:
		return nil
	case *types.Parameterized:
		return s.TypeDeclOf(u.Base)
	case *types.TypeVariable:
		return s.TypeDeclOf(s.upperBound(u))
	case *types.Wildcard:
		if u.Bound == nil || u.Lower {
			return s.TypeDeclOf(s.Object())
		}

		return s.TypeDeclOf(u.Bound)
	case *types.Reference:
		s.diags.Report(UnresolvedError{What: "type", Name: u.QualifiedName()})
		return nil
	case *types.Decl:
		return u
	case types.Declared:
		if d := s.SourceOverride(u.QualifiedName()); d != nil {
			return d
		}

		return u
	default:
		return nil
	}
}

// ResolveTypeParameter resolves param, a type parameter of base, as seen
// from sub. The walk follows extends and implements links from sub up to
// base. When the argument is still a variable at the end of the walk the
// parameter's declared bound is returned. A missing path is reported and
// yields nil.
func (s *System) ResolveTypeParameter(base, sub types.Type, param *types.TypeVariable) types.Type {
	decl := s.TypeDeclOf(base)
	if decl == nil {
		return nil
	}

	idx := slices.IndexFunc(decl.TypeParams(), func(p *types.TypeVariable) bool {
		return p.Name == param.Name
	})
	if idx < 0 {
		s.diags.Report(UnresolvedError{What: "type parameter", Name: param.Name, Context: decl.QualifiedName()})
		return nil
	}

	args, found := s.TypeArgumentsFor(sub, decl)
	if !found {
		s.diags.Report(fmt.Errorf("%w from %s to %s", ErrNoExtendsPath, typeName(sub), decl.QualifiedName()))
		return nil
	}

	if idx >= len(args) {
		return s.upperBound(decl.TypeParams()[idx])
	}

	if v, ok := types.Dereference(args[idx]).(*types.TypeVariable); ok {
		if v.UpperBound() != nil {
			return v.UpperBound()
		}

		return s.upperBound(decl.TypeParams()[idx])
	}

	return args[idx]
}

// ResolveBaseTypeParameter resolves param against the type that declares
// it.
func (s *System) ResolveBaseTypeParameter(sub types.Type, param *types.TypeVariable) types.Type {
	base, ok := s.ResolveType(param.Owner)
	if !ok {
		s.diags.Report(UnresolvedError{What: "type", Name: param.Owner, Context: "type parameter " + param.Name})
		return nil
	}

	return s.ResolveTypeParameter(base, sub, param)
}

// MemberType substitutes the type arguments owner supplies for the class
// type parameters in t, the declared type of one of its members.
func (s *System) MemberType(owner, t types.Type) types.Type {
	argsOf := make(map[string][]types.Type)

	return substitute(t, func(v *types.TypeVariable) types.Type {
		args, ok := argsOf[v.Owner]
		if !ok {
			decl, found := s.ResolveType(v.Owner)
			if found {
				args, _ = s.TypeArgumentsFor(owner, decl)
			}

			argsOf[v.Owner] = args
		}

		if args == nil {
			return nil
		}

		decl := s.TypeDeclOf(s.Ref(v.Owner))
		if decl == nil {
			return nil
		}

		idx := slices.IndexFunc(decl.TypeParams(), func(p *types.TypeVariable) bool {
			return p.Name == v.Name
		})
		if idx < 0 || idx >= len(args) {
			return nil
		}

		if av, ok := args[idx].(*types.TypeVariable); ok && av.Name == v.Name && av.Owner == v.Owner {
			return nil
		}

		return args[idx]
	})
}
