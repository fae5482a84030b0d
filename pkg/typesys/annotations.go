package typesys

import (
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/rhino1998/strata/pkg/types"
)

// annotationSource returns the declaration whose annotations describe t. A
// compiled class with a visible source declaration of the same name uses
// the source one, which may layer extra metadata on top.
func (s *System) annotationSource(t types.Type) types.Declared {
	return s.TypeDeclOf(t)
}

// annotationsOf lists the annotations on d and on every type it modifies,
// most specific first.
func annotationsOf(d types.Declared) []*types.Annotation {
	decl, ok := d.(*types.Decl)
	if !ok {
		return d.Annotations()
	}

	var out []*types.Annotation
	for _, cd := range decl.Chain() {
		out = append(out, cd.Annotations()...)
	}

	return out
}

// GetAnnotation returns the annotation name declared on t itself.
func (s *System) GetAnnotation(t types.Type, name string) *types.Annotation {
	d := s.annotationSource(t)
	if d == nil {
		return nil
	}

	return types.FindAnnotation(annotationsOf(d), name)
}

// GetInheritedAnnotation returns the first annotation name found on t or
// its ancestors, searching the superclass before each interface, depth
// first.
func (s *System) GetInheritedAnnotation(t types.Type, name string) *types.Annotation {
	var found *types.Annotation
	s.walkAnnotated(t, func(d types.Declared) bool {
		found = types.FindAnnotation(annotationsOf(d), name)
		return found == nil
	})

	return found
}

// GetAllInheritedAnnotations returns every annotation name on t and its
// ancestors in search order.
func (s *System) GetAllInheritedAnnotations(t types.Type, name string) []*types.Annotation {
	var all []*types.Annotation
	s.walkAnnotated(t, func(d types.Declared) bool {
		for _, a := range annotationsOf(d) {
			if a.Matches(name) {
				all = append(all, a)
			}
		}

		return true
	})

	return all
}

// walkAnnotated visits t and its ancestors depth first until visit returns
// false. Each type is visited once.
func (s *System) walkAnnotated(t types.Type, visit func(types.Declared) bool) {
	visited := set.New[string](8)

	var walk func(t types.Type) bool
	walk = func(t types.Type) bool {
		if !visited.Insert(types.ErasedName(t)) {
			return true
		}

		d := s.annotationSource(t)
		if d == nil {
			return true
		}

		if !visit(d) {
			return false
		}

		for _, super := range s.Supertypes(t) {
			if !walk(super) {
				return false
			}
		}

		return true
	}

	walk(t)
}

// MergeAnnotations merges override into a copy of main. Marker overrides
// add nothing. A single value replaces main's only when replace is set or
// main has none. For annotations with several values, names missing from
// main are appended and shared names are replaced only when replace is set.
// Neither argument is modified.
func MergeAnnotations(main, override *types.Annotation, replace bool) *types.Annotation {
	switch {
	case main == nil && override == nil:
		return nil
	case main == nil:
		return override.Clone()
	case override == nil:
		return main.Clone()
	}

	merged := main.Clone()
	switch override.Form() {
	case types.MarkerForm:
	case types.SingleForm:
		if _, ok := merged.Get("value"); replace || !ok {
			merged.Set("value", override.Values[0].Value)
		}
	default:
		for _, v := range override.Values {
			if _, ok := merged.Get(v.Name); !ok || replace {
				merged.Set(v.Name, v.Value)
			}
		}
	}

	return merged
}

// GetInheritedMemberAnnotation returns annotation name from member or from
// the member it overrides in an ancestor of t. Methods match by signature,
// fields and properties by name.
func (s *System) GetInheritedMemberAnnotation(t types.Type, member types.Member, name string) *types.Annotation {
	if a := types.FindAnnotation(member.Annotations(), name); a != nil {
		return a
	}

	for _, d := range s.hierarchy(t, false) {
		for _, m := range s.overriddenIn(d, member) {
			if m == member {
				continue
			}

			if a := types.FindAnnotation(m.Annotations(), name); a != nil {
				return a
			}
		}
	}

	return nil
}

func (s *System) overriddenIn(d types.Declared, member types.Member) []types.Member {
	var out []types.Member
	switch member := member.(type) {
	case *types.Method:
		for _, m := range declaredMethods(d) {
			if m.SameSignature(member) {
				out = append(out, m)
			}
		}
	default:
		if m := declaredMember(d, types.PropertyName(member), AnyMember); m != nil {
			out = append(out, m)
		}
	}

	return out
}

// IsBindable reports whether property member of t fires change events:
// the member or the property it overrides is @Bindable, t or an ancestor
// is @Bindable as a whole, or the property was registered to be made
// bindable.
func (s *System) IsBindable(t types.Type, member types.Member) bool {
	bindable := types.BindableAnnotation.QualifiedName()
	if s.GetInheritedMemberAnnotation(t, member, bindable) != nil {
		return true
	}

	if s.GetInheritedAnnotation(t, bindable) != nil {
		return true
	}

	name := types.PropertyName(member)
	for _, d := range s.hierarchy(t, false) {
		decl, ok := d.(*types.Decl)
		if !ok {
			continue
		}

		for _, cd := range decl.Chain() {
			if md, ok := cd.(*types.Decl); ok && slices.Contains(md.MakeBindable, name) {
				return true
			}
		}
	}

	return false
}

// BindSettings returns the @BindSettings of m, inherited through the
// methods it overrides.
func (s *System) BindSettings(t types.Type, m *types.Method) (types.BindSettings, bool) {
	a := s.GetInheritedMemberAnnotation(t, m, types.BindSettingsAnnotation.QualifiedName())
	if a == nil {
		return types.BindSettings{}, false
	}

	return types.BindSettingsOf([]*types.Annotation{a})
}

// ReverseMethod returns the method named by m's @BindSettings reverseMethod
// attribute, searched on t. A named method that cannot be found is
// reported and yields nil.
func (s *System) ReverseMethod(t types.Type, m *types.Method) *types.Method {
	settings, ok := s.BindSettings(t, m)
	if !ok || settings.ReverseMethod == "" {
		return nil
	}

	candidates := s.GetMethods(t, settings.ReverseMethod, LookupOptions{})
	if len(candidates) == 0 {
		s.diags.Report(UnresolvedError{What: "reverse method", Name: settings.ReverseMethod, Context: m.String()})
		return nil
	}

	for _, c := range candidates {
		if c.IsStatic() == m.IsStatic() {
			return c
		}
	}

	return candidates[0]
}
