package types

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

type Modifiers uint32

const (
	Public Modifiers = 1 << iota
	Private
	Protected
	Static
	Final
	Synchronized
	Volatile
	Varargs
	Native
	Interface
	Abstract
	Strict
	Synthetic
	AnnotationMod
	EnumMod
	Default
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{Public, "public"},
	{Protected, "protected"},
	{Private, "private"},
	{Abstract, "abstract"},
	{Static, "static"},
	{Final, "final"},
	{Synchronized, "synchronized"},
	{Volatile, "volatile"},
	{Native, "native"},
	{Strict, "strictfp"},
	{Default, "default"},
	{Synthetic, "synthetic"},
	{Varargs, "varargs"},
}

func ParseModifier(s string) (Modifiers, bool) {
	for _, entry := range modifierNames {
		if entry.name == s {
			return entry.mod, true
		}
	}

	return 0, false
}

func (m Modifiers) Has(o Modifiers) bool { return m&o == o }

func (m Modifiers) String() string {
	var parts []string
	for _, entry := range modifierNames {
		if m.Has(entry.mod) && entry.mod != Synthetic && entry.mod != Varargs {
			parts = append(parts, entry.name)
		}
	}

	return strings.Join(parts, " ")
}

type Access int

const (
	AccessPackage Access = iota
	AccessPrivate
	AccessProtected
	AccessPublic
)

func (m Modifiers) Access() Access {
	switch {
	case m.Has(Public):
		return AccessPublic
	case m.Has(Protected):
		return AccessProtected
	case m.Has(Private):
		return AccessPrivate
	default:
		return AccessPackage
	}
}

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "public"
	case AccessProtected:
		return "protected"
	case AccessPrivate:
		return "private"
	default:
		return "package"
	}
}

// Member is a handle to a field, a method or constructor, or a source-level
// property reassignment.
type Member interface {
	MemberName() string
	Owner() Type
	Modifiers() Modifiers
	Annotations() []*Annotation

	isMember()
}

type Field struct {
	Name   string
	Type   Type
	Mods   Modifiers
	Annots []*Annotation
	Init   string

	// DynAccess is set when compiled code outside the owning dynamic type
	// needs to reach the field.
	DynAccess bool

	owner Type
}

func (f *Field) MemberName() string         { return f.Name }
func (f *Field) Owner() Type                { return f.owner }
func (f *Field) Modifiers() Modifiers       { return f.Mods }
func (f *Field) Annotations() []*Annotation { return f.Annots }
func (*Field) isMember()                    {}

func (f *Field) String() string {
	return fmt.Sprintf("%s %s", f.Type, f.Name)
}

type Param struct {
	Name string
	Type Type
}

type Method struct {
	Name        string
	Params      []Param
	Return      Type
	TypeParams  []*TypeVariable
	Varargs     bool
	Constructor bool
	Mods        Modifiers
	Throws      []Type
	Annots      []*Annotation
	Descriptor  string

	DynAccess bool

	owner Type
}

func (m *Method) MemberName() string         { return m.Name }
func (m *Method) Owner() Type                { return m.owner }
func (m *Method) Modifiers() Modifiers       { return m.Mods }
func (m *Method) Annotations() []*Annotation { return m.Annots }
func (*Method) isMember()                    {}

func (m *Method) ParamTypes() []Type {
	types := make([]Type, 0, len(m.Params))
	for _, p := range m.Params {
		types = append(types, p.Type)
	}

	return types
}

func (m *Method) IsStatic() bool   { return m.Mods.Has(Static) }
func (m *Method) IsAbstract() bool { return m.Mods.Has(Abstract) }

func (m *Method) TypeParam(name string) *TypeVariable {
	return findParam(m.TypeParams, name)
}

// Signature is the erased name and parameter list, e.g. m(int,java.lang.String[]).
func (m *Method) Signature() string {
	params := make([]string, 0, len(m.Params))
	for _, p := range m.Params {
		params = append(params, ErasedName(p.Type))
	}

	return fmt.Sprintf("%s(%s)", m.Name, strings.Join(params, ","))
}

// SameSignature reports whether two methods have the same name and erased
// parameter types.
func (m *Method) SameSignature(o *Method) bool {
	if m.Name != o.Name || len(m.Params) != len(o.Params) {
		return false
	}

	return slices.EqualFunc(m.Params, o.Params, func(a, b Param) bool {
		return SameErased(a.Type, b.Type)
	})
}

func (m *Method) String() string {
	params := make([]string, 0, len(m.Params))
	for i, p := range m.Params {
		typ := p.Type.String()
		if m.Varargs && i == len(m.Params)-1 {
			if arr, ok := Dereference(p.Type).(*Array); ok {
				typ = arr.Elem.String() + "..."
			}
		}

		params = append(params, typ)
	}

	var owner string
	if m.owner != nil {
		owner = m.owner.QualifiedName() + "."
	}

	return fmt.Sprintf("%s%s(%s)", owner, m.Name, strings.Join(params, ", "))
}

// PropertyAssignment is a source-level override of an inherited property
// with a new initializer or binding.
type PropertyAssignment struct {
	Name     string
	Operator string
	Init     string
	Annots   []*Annotation

	DynAccess bool

	owner Type
}

func (a *PropertyAssignment) MemberName() string         { return a.Name }
func (a *PropertyAssignment) Owner() Type                { return a.owner }
func (a *PropertyAssignment) Modifiers() Modifiers       { return 0 }
func (a *PropertyAssignment) Annotations() []*Annotation { return a.Annots }
func (*PropertyAssignment) isMember()                    {}

func (a *PropertyAssignment) String() string {
	return fmt.Sprintf("%s %s %s", a.Name, a.Operator, a.Init)
}

// NeedsDynAccess reports the body flag set on members that compiled code
// must reach through a dynamic stub.
func NeedsDynAccess(m Member) bool {
	switch m := m.(type) {
	case *Field:
		return m.DynAccess
	case *Method:
		return m.DynAccess
	case *PropertyAssignment:
		return m.DynAccess
	default:
		panic(unsupported(m))
	}
}

func IsField(m Member) bool {
	_, ok := m.(*Field)
	return ok
}

func IsPropertyAssignment(m Member) bool {
	_, ok := m.(*PropertyAssignment)
	return ok
}

func IsGetMethod(m Member) bool {
	meth, ok := m.(*Method)
	if !ok || meth.Constructor || len(meth.Params) != 0 || meth.Return == nil || meth.Return == Void {
		return false
	}

	if hasPrefixWord(meth.Name, "get") {
		return true
	}

	return hasPrefixWord(meth.Name, "is") && IsBoolean(meth.Return)
}

func IsSetMethod(m Member) bool {
	meth, ok := m.(*Method)
	if !ok || meth.Constructor || len(meth.Params) != 1 {
		return false
	}

	return hasPrefixWord(meth.Name, "set")
}

func hasPrefixWord(name, prefix string) bool {
	if !strings.HasPrefix(name, prefix) || len(name) == len(prefix) {
		return false
	}

	return unicode.IsUpper(rune(name[len(prefix)]))
}

// PropertyName is the property a member exposes: the field or assignment
// name, or the decapitalized suffix of a get/set/is method.
func PropertyName(m Member) string {
	switch m := m.(type) {
	case *Field:
		return m.Name
	case *PropertyAssignment:
		return m.Name
	case *Method:
		for _, prefix := range []string{"get", "set", "is"} {
			if hasPrefixWord(m.Name, prefix) {
				return Decapitalize(m.Name[len(prefix):])
			}
		}

		return m.Name
	default:
		panic(unsupported(m))
	}
}

// PropertyType returns the type of the property a field or accessor
// exposes. Property assignments carry no type of their own and yield nil;
// resolve them against the inherited member first.
func PropertyType(m Member) Type {
	switch m := m.(type) {
	case *Field:
		return m.Type
	case *PropertyAssignment:
		return nil
	case *Method:
		if IsSetMethod(m) {
			return m.Params[0].Type
		}

		return m.Return
	default:
		panic(unsupported(m))
	}
}

// SetMethodPropertyType returns the parameter type of a setter.
func SetMethodPropertyType(m *Method) (Type, error) {
	if len(m.Params) != 1 {
		return nil, fmt.Errorf("%w: %s is not a set method: %d parameters", ErrIllegalArgument, m.Name, len(m.Params))
	}

	return m.Params[0].Type, nil
}

func Capitalize(s string) string {
	if s == "" {
		return s
	}

	return strings.ToUpper(s[:1]) + s[1:]
}

func Decapitalize(s string) string {
	if s == "" {
		return s
	}

	// URL stays URL, per the bean naming rule
	if len(s) > 1 && unicode.IsUpper(rune(s[0])) && unicode.IsUpper(rune(s[1])) {
		return s
	}

	return strings.ToLower(s[:1]) + s[1:]
}
