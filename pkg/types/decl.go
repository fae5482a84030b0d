package types

import (
	"github.com/rhino1998/strata/pkg/kinds"
)

// Decl is a live source-level type declaration. A Decl with Modifies set is
// a modify declaration: it layers new members and annotations onto the type
// it modifies instead of declaring a new type.
type Decl struct {
	name  string
	pkg   string
	kind  kinds.Kind
	mods  Modifiers
	outer *Decl

	extends    Type
	implements []Type
	params     []*TypeVariable
	members    []Member
	inner      []*Decl
	annots     []*Annotation

	modifies Type
	layer    string

	// Dynamic marks types whose instances are interpreted.
	Dynamic bool

	// LayerType marks declarations generated for the build tool's own layer
	// objects.
	LayerType bool

	// DynInvoke names inherited methods that must be invokable through the
	// dynamic stub on behalf of a subclass.
	DynInvoke []string

	// MakeBindable names properties registered to be made bindable.
	MakeBindable []string
}

func NewDecl(pkg, name string, kind kinds.Kind, mods Modifiers) *Decl {
	return &Decl{pkg: pkg, name: name, kind: kind, mods: mods}
}

// NewModify declares a modify declaration of target in the given layer.
func NewModify(target Type, layer string) *Decl {
	d := &Decl{modifies: target, layer: layer}
	if target != nil {
		if dt, ok := Dereference(target).(Declared); ok {
			d.pkg = dt.Package()
			d.name = dt.SimpleName()
		} else {
			d.name = target.QualifiedName()
		}
	}

	return d
}

func (d *Decl) Kind() kinds.Kind {
	for _, dt := range d.Chain() {
		md, ok := dt.(*Decl)
		if !ok {
			return dt.Kind()
		}

		if md.kind != kinds.Unknown {
			return md.kind
		}
	}

	return kinds.Class
}

// Chain returns d followed by the declarations it modifies, transitively.
// The walk stops at the first repeated declaration, so a circular modify
// chain yields a finite result; see Cyclic.
func (d *Decl) Chain() []Declared {
	chain, _ := d.chain()
	return chain
}

// Cyclic reports whether the modify chain starting at d loops.
func (d *Decl) Cyclic() bool {
	_, cyclic := d.chain()
	return cyclic
}

func (d *Decl) chain() ([]Declared, bool) {
	seen := make(map[Declared]struct{})
	var chain []Declared

	var cur Declared = d
	for {
		if _, ok := seen[cur]; ok {
			return chain, true
		}

		seen[cur] = struct{}{}
		chain = append(chain, cur)

		md, ok := cur.(*Decl)
		if !ok || md.modifies == nil {
			return chain, false
		}

		next, ok := Dereference(md.modifies).(Declared)
		if !ok {
			return chain, false
		}

		cur = next
	}
}

func (d *Decl) String() string     { return d.QualifiedName() }
func (d *Decl) SimpleName() string { return d.name }
func (d *Decl) Modifies() Type     { return d.modifies }
func (d *Decl) Layer() string      { return d.layer }
func (d *Decl) Outer() *Decl       { return d.outer }
func (d *Decl) Extends() Type      { return d.extends }
func (d *Decl) Members() []Member  { return d.members }
func (d *Decl) Inner() []*Decl     { return d.inner }
func (*Decl) isType()              {}

func (d *Decl) Package() string {
	if d.outer != nil {
		return d.outer.Package()
	}

	return d.pkg
}

func (d *Decl) QualifiedName() string {
	if d.outer != nil {
		return d.outer.QualifiedName() + "." + d.name
	}

	if d.pkg == "" {
		return d.name
	}

	return d.pkg + "." + d.name
}

func (d *Decl) Modifiers() Modifiers {
	var mods Modifiers
	for _, dt := range d.Chain() {
		if md, ok := dt.(*Decl); ok {
			mods |= md.mods
		} else {
			mods |= dt.Modifiers()
		}
	}

	return mods
}

// Superclass is the declared extends type, falling back to the modified
// type's superclass for modify declarations that don't redeclare it.
func (d *Decl) Superclass() Type {
	for _, dt := range d.Chain() {
		md, ok := dt.(*Decl)
		if !ok {
			return dt.Superclass()
		}

		if md.extends != nil {
			return md.extends
		}
	}

	return nil
}

func (d *Decl) Interfaces() []Type {
	var ifaces []Type
	for _, dt := range d.Chain() {
		var own []Type
		if md, ok := dt.(*Decl); ok {
			own = md.implements
		} else {
			own = dt.Interfaces()
		}

		for _, iface := range own {
			if !containsSame(ifaces, iface) {
				ifaces = append(ifaces, iface)
			}
		}
	}

	return ifaces
}

func (d *Decl) TypeParams() []*TypeVariable {
	for _, dt := range d.Chain() {
		md, ok := dt.(*Decl)
		if !ok {
			return dt.TypeParams()
		}

		if len(md.params) > 0 {
			return md.params
		}
	}

	return nil
}

func (d *Decl) Enclosing() Type {
	if d.outer == nil {
		return nil
	}

	return d.outer
}

func (d *Decl) Annotations() []*Annotation { return d.annots }

func (d *Decl) Fields() []*Field {
	var fields []*Field
	for _, m := range d.members {
		if f, ok := m.(*Field); ok {
			fields = append(fields, f)
		}
	}

	return fields
}

func (d *Decl) Methods() []*Method {
	var methods []*Method
	for _, m := range d.members {
		if m, ok := m.(*Method); ok && !m.Constructor {
			methods = append(methods, m)
		}
	}

	return methods
}

func (d *Decl) Constructors() []*Method {
	var ctors []*Method
	for _, m := range d.members {
		if m, ok := m.(*Method); ok && m.Constructor {
			ctors = append(ctors, m)
		}
	}

	return ctors
}

func (d *Decl) Assignments() []*PropertyAssignment {
	var assigns []*PropertyAssignment
	for _, m := range d.members {
		if a, ok := m.(*PropertyAssignment); ok {
			assigns = append(assigns, a)
		}
	}

	return assigns
}

func (d *Decl) SetExtends(t Type) *Decl {
	d.extends = t
	return d
}

func (d *Decl) Implement(ifaces ...Type) *Decl {
	d.implements = append(d.implements, ifaces...)
	return d
}

func (d *Decl) SetLayer(layer string) *Decl {
	d.layer = layer
	return d
}

func (d *Decl) WithTypeParams(names ...string) *Decl {
	for _, name := range names {
		d.params = append(d.params, NewTypeVariable(d.QualifiedName(), name))
	}

	return d
}

func (d *Decl) TypeParam(name string) *TypeVariable {
	return findParam(d.TypeParams(), name)
}

// Add appends a member to the body in declaration order.
func (d *Decl) Add(members ...Member) *Decl {
	for _, m := range members {
		switch m := m.(type) {
		case *Field:
			m.owner = d
		case *Method:
			m.owner = d
		case *PropertyAssignment:
			m.owner = d
		default:
			panic(unsupported(m))
		}

		d.members = append(d.members, m)
	}

	return d
}

func (d *Decl) AddInner(inner *Decl) *Decl {
	inner.outer = d
	if inner.layer == "" {
		inner.layer = d.layer
	}

	d.inner = append(d.inner, inner)
	return d
}

func (d *Decl) AddAnnotation(a *Annotation) *Decl {
	d.annots = append(d.annots, a)
	return d
}

// Member finds a declared member by name, preferring fields over methods.
func (d *Decl) Member(name string) Member {
	var found Member
	for _, m := range d.members {
		if m.MemberName() != name {
			continue
		}

		if _, ok := m.(*Field); ok {
			return m
		}

		if found == nil {
			found = m
		}
	}

	return found
}

// IsInner reports whether the declaration is a non-static member type.
func (d *Decl) IsInner() bool {
	return d.outer != nil && !d.Modifiers().Has(Static) && d.Kind() == kinds.Class
}

func containsSame(ts []Type, t Type) bool {
	for _, e := range ts {
		if Same(e, t) {
			return true
		}
	}

	return false
}
