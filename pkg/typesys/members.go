package typesys

import (
	"github.com/rhino1998/strata/pkg/types"
)

type MemberKind int

const (
	FieldMember MemberKind = 1 << iota
	GetMember
	SetMember
	AssignmentMember

	PropertyMember = FieldMember | GetMember | SetMember
	AnyMember      = PropertyMember | AssignmentMember
)

// DefinesMember finds the property name on t or its ancestors. kinds
// selects which member shapes count. The most derived declaration wins;
// within one declaration a field is preferred over an assignment, then a
// getter, then a setter.
func (s *System) DefinesMember(t types.Type, name string, kinds MemberKind) types.Member {
	for _, d := range s.hierarchy(t, false) {
		if m := declaredMember(d, name, kinds); m != nil {
			return m
		}
	}

	return nil
}

func declaredMember(d types.Declared, name string, kinds MemberKind) types.Member {
	chain := []types.Declared{d}
	if decl, ok := d.(*types.Decl); ok {
		chain = decl.Chain()
	}

	for _, cd := range chain {
		if kinds&FieldMember != 0 {
			for _, f := range cd.Fields() {
				if f.Name == name {
					return f
				}
			}
		}

		if decl, ok := cd.(*types.Decl); ok && kinds&AssignmentMember != 0 {
			for _, a := range decl.Assignments() {
				if a.Name == name {
					return a
				}
			}
		}

		for _, m := range cd.Methods() {
			switch {
			case kinds&GetMember != 0 && types.IsGetMethod(m) && types.PropertyName(m) == name:
				return m
			case kinds&SetMember != 0 && types.IsSetMethod(m) && types.PropertyName(m) == name:
				return m
			}
		}
	}

	return nil
}

// AssignedMember returns the inherited property a property assignment
// overrides. A missing property is reported and yields nil.
func (s *System) AssignedMember(a *types.PropertyAssignment) types.Member {
	owner := a.Owner()
	if owner == nil {
		return nil
	}

	for _, super := range s.Supertypes(owner) {
		if m := s.DefinesMember(super, a.Name, PropertyMember); m != nil {
			return m
		}
	}

	// a modify declaration may reassign a property of the type it modifies
	if d, ok := owner.(*types.Decl); ok && d.Modifies() != nil {
		if m := s.DefinesMember(d.Modifies(), a.Name, PropertyMember); m != nil {
			return m
		}
	}

	s.diags.Report(UnresolvedError{What: "property", Name: a.Name, Context: owner.QualifiedName()})
	return nil
}

// PropertyType is the type of the property a member exposes. Assignments
// take the type of the member they override; a missing one gives Object.
func (s *System) PropertyType(m types.Member) types.Type {
	a, ok := m.(*types.PropertyAssignment)
	if !ok {
		return types.PropertyType(m)
	}

	assigned := s.AssignedMember(a)
	if assigned == nil || types.IsPropertyAssignment(assigned) {
		return s.Object()
	}

	return types.PropertyType(assigned)
}
