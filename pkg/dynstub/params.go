// Package dynstub computes the shape of the compiled bridge class generated
// for a dynamic type: which properties, methods and constructors compiled
// code can reach through it, and at which positions.
package dynstub

import (
	"fmt"

	"github.com/rhino1998/strata/pkg/types"
)

// MinPropIndex is the first property position. Position 0 means no
// property and is never assigned.
const MinPropIndex = 1

// Prop is one property exposed through the bridge.
type Prop struct {
	Name  string
	Type  types.Type
	Index int

	// Member is the declaration that introduced the property in the most
	// derived type: a field, an accessor or a property assignment.
	Member types.Member

	// Owner is the type whose table declared the entry.
	Owner types.Type

	Static   bool
	Bindable bool

	// Inherited is set for entries taken unchanged from the superclass
	// table; Overridden for superclass entries this type redeclared.
	Inherited  bool
	Overridden bool

	getter *types.Method
	setter *types.Method
}

func (p *Prop) String() string {
	s := fmt.Sprintf("%s@%d", p.Name, p.Index)
	switch {
	case p.Overridden:
		s += " (overridden)"
	case p.Inherited:
		s += " (inherited)"
	}

	return s
}

// Method is one method, constructor or factory exposed through the bridge.
type Method struct {
	Name   string
	Method *types.Method
	Owner  types.Type
	Index  int

	// Static is set for static methods and for constructors, which are
	// reached through a static factory.
	Static      bool
	Constructor bool

	// Synthetic marks the default constructor added for types that
	// declare none.
	Synthetic bool

	// DynInvoke marks inherited methods exposed on behalf of a subclass.
	DynInvoke bool

	Inherited  bool
	Overridden bool

	// NeedsSuper is set when the bridge must call the ancestor
	// implementation this method overrides.
	NeedsSuper bool

	// Reverse links a bidirectional binding method to its reverse, and
	// Forward the other way.
	Reverse *Method
	Forward *Method
}

// Signature is the name and erased parameter types.
func (m *Method) Signature() string {
	if m.Method == nil {
		return m.Name + "()"
	}

	return m.Method.Signature()
}

func (m *Method) String() string {
	s := fmt.Sprintf("%s@%d", m.Signature(), m.Index)
	switch {
	case m.Overridden:
		s += " (overridden)"
	case m.Inherited:
		s += " (inherited)"
	}

	return s
}

type Constructor struct {
	Method *types.Method
	Params []types.Type

	// Propagated is set when the type declares no constructor and forwards
	// to an ancestor constructor named by its compiler settings.
	Propagated bool
	Synthetic  bool
}

// InnerConstructor constructs a non-static inner dynamic type; Outer is the
// enclosing instance passed as the first argument.
type InnerConstructor struct {
	Constructor

	Inner types.Type
	Outer types.Type
}

// Params is the bridge shape of one type.
type Params struct {
	Type types.Type

	// Super is the shape of the superclass, nil at the top.
	Super *Params

	// Props and Methods are the visible tables: the superclass table with
	// redeclared entries replaced in place and new entries appended.
	Props   []*Prop
	Methods []*Method

	Constructors      []*Constructor
	InnerConstructors []*InnerConstructor
}

func (p *Params) Name() string { return p.Type.QualifiedName() }

func (p *Params) Prop(name string) *Prop {
	for _, prop := range p.Props {
		if prop.Name == name {
			return prop
		}
	}

	return nil
}

// Method finds an entry by signature, e.g. m(int,java.lang.String).
func (p *Params) Method(signature string) *Method {
	for _, m := range p.Methods {
		if m.Signature() == signature {
			return m
		}
	}

	return nil
}

func (p *Params) StaticMethods() []*Method {
	var out []*Method
	for _, m := range p.Methods {
		if m.Static {
			out = append(out, m)
		}
	}

	return out
}

func (p *Params) InstanceMethods() []*Method {
	var out []*Method
	for _, m := range p.Methods {
		if !m.Static {
			out = append(out, m)
		}
	}

	return out
}

// DeclaredProps returns the entries this type introduced or redeclared.
func (p *Params) DeclaredProps() []*Prop {
	var out []*Prop
	for _, prop := range p.Props {
		if !prop.Inherited {
			out = append(out, prop)
		}
	}

	return out
}

func (p *Params) DeclaredMethods() []*Method {
	var out []*Method
	for _, m := range p.Methods {
		if !m.Inherited {
			out = append(out, m)
		}
	}

	return out
}

// NextPropIndex is the position the next new property would take.
func (p *Params) NextPropIndex() int {
	if p == nil {
		return MinPropIndex
	}

	next := MinPropIndex
	for _, prop := range p.Props {
		next = max(next, prop.Index+1)
	}

	return max(next, p.Super.NextPropIndex())
}

// NextMethodIndex is the position the next new method would take.
// Positions of superclass constructors stay reserved.
func (p *Params) NextMethodIndex() int {
	if p == nil {
		return 0
	}

	next := 0
	for _, m := range p.Methods {
		next = max(next, m.Index+1)
	}

	return max(next, p.Super.NextMethodIndex())
}
