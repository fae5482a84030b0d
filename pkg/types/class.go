package types

import (
	"fmt"

	"github.com/rhino1998/strata/pkg/kinds"
)

// Declared is implemented by the three representations of a named type:
// compiled classes, class-file descriptors and source declarations.
type Declared interface {
	Type

	Package() string
	SimpleName() string
	Modifiers() Modifiers
	Superclass() Type
	Interfaces() []Type
	TypeParams() []*TypeVariable
	Fields() []*Field
	Methods() []*Method
	Constructors() []*Method
	Annotations() []*Annotation
	Enclosing() Type
}

var (
	_ Declared = (*Class)(nil)
	_ Declared = (*ClassFile)(nil)
	_ Declared = (*Decl)(nil)
)

// Loader identifies the loading context a compiled class came from.
// Reloading a type produces a new loader generation; handles from an
// inactive loader are stale.
type Loader struct {
	generation int
	active     bool
}

func NewLoader(generation int) *Loader {
	return &Loader{generation: generation, active: true}
}

func (l *Loader) Generation() int { return l.generation }
func (l *Loader) Active() bool    { return l != nil && l.active }
func (l *Loader) Deactivate()     { l.active = false }

func (l *Loader) String() string {
	return fmt.Sprintf("loader#%d", l.generation)
}

type body struct {
	kind   kinds.Kind
	mods   Modifiers
	params []*TypeVariable
	fields []*Field
	ms     []*Method
	ctors  []*Method
	annots []*Annotation
}

func (b *body) Modifiers() Modifiers        { return b.mods }
func (b *body) TypeParams() []*TypeVariable { return b.params }
func (b *body) Fields() []*Field            { return b.fields }
func (b *body) Methods() []*Method          { return b.ms }
func (b *body) Constructors() []*Method     { return b.ctors }
func (b *body) Annotations() []*Annotation  { return b.annots }

// Class is a compiled class as seen through runtime reflection.
type Class struct {
	body

	name      string
	pkg       string
	super     Type
	ifaces    []Type
	enclosing Type
	loader    *Loader
}

func NewClass(loader *Loader, pkg, name string, kind kinds.Kind, mods Modifiers) *Class {
	return &Class{
		body:   body{kind: kind, mods: mods},
		name:   name,
		pkg:    pkg,
		loader: loader,
	}
}

func (c *Class) Kind() kinds.Kind   { return c.kind }
func (c *Class) String() string     { return c.QualifiedName() }
func (c *Class) Package() string    { return c.pkg }
func (c *Class) SimpleName() string { return c.name }
func (c *Class) Superclass() Type   { return c.super }
func (c *Class) Interfaces() []Type { return c.ifaces }
func (c *Class) Enclosing() Type    { return c.enclosing }
func (c *Class) Loader() *Loader    { return c.loader }
func (*Class) isType()              {}

func (c *Class) QualifiedName() string {
	return qualify(c.pkg, c.enclosing, c.name)
}

func (c *Class) SetSuper(t Type) *Class {
	c.super = t
	return c
}

func (c *Class) SetEnclosing(t Type) *Class {
	c.enclosing = t
	return c
}

func (c *Class) Implement(ifaces ...Type) *Class {
	c.ifaces = append(c.ifaces, ifaces...)
	return c
}

func (c *Class) WithTypeParams(names ...string) *Class {
	for _, name := range names {
		c.params = append(c.params, NewTypeVariable(c.QualifiedName(), name))
	}

	return c
}

func (c *Class) TypeParam(name string) *TypeVariable {
	return findParam(c.params, name)
}

func (c *Class) AddField(f *Field) *Class {
	f.owner = c
	c.fields = append(c.fields, f)
	return c
}

func (c *Class) AddMethod(m *Method) *Class {
	m.owner = c
	if m.Constructor {
		c.ctors = append(c.ctors, m)
	} else {
		c.ms = append(c.ms, m)
	}

	return c
}

func (c *Class) AddAnnotation(a *Annotation) *Class {
	c.annots = append(c.annots, a)
	return c
}

func qualify(pkg string, enclosing Type, name string) string {
	if enclosing != nil {
		return enclosing.QualifiedName() + "." + name
	}

	if pkg == "" {
		return name
	}

	return pkg + "." + name
}

func findParam(params []*TypeVariable, name string) *TypeVariable {
	for _, p := range params {
		if p.Name == name {
			return p
		}
	}

	return nil
}
