package types

import (
	"fmt"
	"strings"

	"github.com/rhino1998/strata/pkg/kinds"
)

// ClassFile is a type read from class-file metadata. Its supertypes and
// member signatures are held as internal names and descriptors and are
// resolved by name through the scope it was loaded into.
type ClassFile struct {
	body

	s         TypeScope
	internal  string
	superName string
	ifaceName []string
	outerName string
	version   int
}

func NewClassFile(s TypeScope, internalName string, kind kinds.Kind, mods Modifiers) *ClassFile {
	return &ClassFile{
		body:     body{kind: kind, mods: mods},
		s:        s,
		internal: internalName,
	}
}

func (c *ClassFile) Kind() kinds.Kind      { return c.kind }
func (c *ClassFile) String() string        { return c.QualifiedName() }
func (c *ClassFile) QualifiedName() string { return binaryToQualified(c.internal) }
func (c *ClassFile) InternalName() string  { return c.internal }
func (c *ClassFile) Version() int          { return c.version }
func (*ClassFile) isType()                 {}

func (c *ClassFile) Package() string {
	i := strings.LastIndexByte(c.internal, '/')
	if i < 0 {
		return ""
	}

	return strings.ReplaceAll(c.internal[:i], "/", ".")
}

func (c *ClassFile) SimpleName() string {
	name := c.internal[strings.LastIndexByte(c.internal, '/')+1:]
	if i := strings.LastIndexByte(name, '$'); i >= 0 {
		return name[i+1:]
	}

	return name
}

func (c *ClassFile) SetVersion(v int) *ClassFile {
	c.version = v
	return c
}

func (c *ClassFile) SetSuperName(internal string) *ClassFile {
	c.superName = internal
	return c
}

func (c *ClassFile) AddInterfaceName(internal string) *ClassFile {
	c.ifaceName = append(c.ifaceName, internal)
	return c
}

func (c *ClassFile) SetOuterName(internal string) *ClassFile {
	c.outerName = internal
	return c
}

func (c *ClassFile) Superclass() Type {
	if c.superName == "" {
		return nil
	}

	return NewReference(c.s, binaryToQualified(c.superName))
}

func (c *ClassFile) Interfaces() []Type {
	ifaces := make([]Type, 0, len(c.ifaceName))
	for _, name := range c.ifaceName {
		ifaces = append(ifaces, NewReference(c.s, binaryToQualified(name)))
	}

	return ifaces
}

func (c *ClassFile) Enclosing() Type {
	if c.outerName == "" {
		return nil
	}

	return NewReference(c.s, binaryToQualified(c.outerName))
}

func (c *ClassFile) AddField(name, descriptor string, mods Modifiers) error {
	typ, rest, err := parseFieldDescriptor(c.s, descriptor)
	if err != nil {
		return fmt.Errorf("field %s.%s: %w", c.QualifiedName(), name, err)
	}

	if rest != "" {
		return fmt.Errorf("field %s.%s: trailing descriptor data %q", c.QualifiedName(), name, rest)
	}

	c.fields = append(c.fields, &Field{Name: name, Type: typ, Mods: mods, owner: c})
	return nil
}

// AddMethod adds a method from its JVM descriptor. A method named <init> is
// a constructor.
func (c *ClassFile) AddMethod(name, descriptor string, mods Modifiers) (*Method, error) {
	params, ret, err := ParseMethodDescriptor(c.s, descriptor)
	if err != nil {
		return nil, fmt.Errorf("method %s.%s: %w", c.QualifiedName(), name, err)
	}

	m := &Method{
		Name:       name,
		Return:     ret,
		Mods:       mods &^ Varargs,
		Varargs:    mods.Has(Varargs),
		Descriptor: descriptor,
		owner:      c,
	}

	for i, p := range params {
		m.Params = append(m.Params, Param{Name: fmt.Sprintf("arg%d", i), Type: p})
	}

	if name == "<init>" {
		m.Name = c.SimpleName()
		m.Constructor = true
		m.Return = nil
		c.ctors = append(c.ctors, m)
	} else {
		c.ms = append(c.ms, m)
	}

	return m, nil
}

func (c *ClassFile) AddAnnotation(a *Annotation) *ClassFile {
	c.annots = append(c.annots, a)
	return c
}

func binaryToQualified(internal string) string {
	return strings.NewReplacer("/", ".", "$", ".").Replace(internal)
}

// ParseMethodDescriptor parses a JVM method descriptor such as
// (ILjava/lang/String;[J)V. Object types become references through s.
func ParseMethodDescriptor(s TypeScope, desc string) ([]Type, Type, error) {
	if !strings.HasPrefix(desc, "(") {
		return nil, nil, fmt.Errorf("invalid method descriptor %q", desc)
	}

	rest := desc[1:]
	var params []Type
	for !strings.HasPrefix(rest, ")") {
		if rest == "" {
			return nil, nil, fmt.Errorf("unterminated method descriptor %q", desc)
		}

		var typ Type
		var err error
		typ, rest, err = parseFieldDescriptor(s, rest)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
		}

		params = append(params, typ)
	}

	rest = rest[1:]
	if rest == "V" {
		return params, Void, nil
	}

	ret, rest, err := parseFieldDescriptor(s, rest)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid method descriptor %q: %w", desc, err)
	}

	if rest != "" {
		return nil, nil, fmt.Errorf("invalid method descriptor %q: trailing %q", desc, rest)
	}

	return params, ret, nil
}

func parseFieldDescriptor(s TypeScope, desc string) (Type, string, error) {
	if desc == "" {
		return nil, "", fmt.Errorf("empty descriptor")
	}

	switch desc[0] {
	case '[':
		elem, rest, err := parseFieldDescriptor(s, desc[1:])
		if err != nil {
			return nil, "", err
		}

		return NewArray(elem), rest, nil
	case 'L':
		end := strings.IndexByte(desc, ';')
		if end < 0 {
			return nil, "", fmt.Errorf("unterminated class name in %q", desc)
		}

		return NewReference(s, binaryToQualified(desc[1:end])), desc[end+1:], nil
	}

	for k, d := range primitiveDescriptors {
		if k != kinds.Void && d[0] == desc[0] {
			return Primitive(k), desc[1:], nil
		}
	}

	return nil, "", fmt.Errorf("unknown descriptor character %q", desc[0])
}

// Descriptor renders the JVM descriptor for t.
func Descriptor(t Type) string {
	switch t := Dereference(t).(type) {
	case Primitive:
		return t.Descriptor()
	case *Array:
		return "[" + Descriptor(t.Elem)
	default:
		return "L" + strings.ReplaceAll(ErasedName(t), ".", "/") + ";"
	}
}
