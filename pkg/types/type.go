package types

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rhino1998/strata/pkg/kinds"
)

// ErrUnsupported is the panic value (wrapped) raised when a dispatch
// function receives a handle shape it has no case for.
var ErrUnsupported = errors.New("unsupported type handle")

var ErrIllegalArgument = errors.New("illegal argument")

type TypeScope interface {
	ResolveType(name string) (Type, bool)
}

// Type is a handle to a type in any of its representations. The set of
// implementations is closed: Primitive, the null type, *Class, *ClassFile,
// *Decl, *Parameterized, *Array, *Wildcard, *TypeVariable and *Reference.
type Type interface {
	Kind() kinds.Kind
	String() string
	QualifiedName() string

	isType()
}

func unsupported(t any) error {
	return fmt.Errorf("%w: %T", ErrUnsupported, t)
}

type Primitive kinds.Kind

var (
	Void    = Primitive(kinds.Void)
	Boolean = Primitive(kinds.Boolean)
	Byte    = Primitive(kinds.Byte)
	Short   = Primitive(kinds.Short)
	Char    = Primitive(kinds.Char)
	Int     = Primitive(kinds.Int)
	Long    = Primitive(kinds.Long)
	Float   = Primitive(kinds.Float)
	Double  = Primitive(kinds.Double)
)

func (p Primitive) Kind() kinds.Kind      { return kinds.Kind(p) }
func (p Primitive) String() string        { return kinds.Kind(p).String() }
func (p Primitive) QualifiedName() string { return kinds.Kind(p).String() }
func (Primitive) isType()                 {}
func (p Primitive) Descriptor() string    { return primitiveDescriptors[kinds.Kind(p)] }
func (p Primitive) Boxed() string         { return boxNames[kinds.Kind(p)] }

var primitiveDescriptors = map[kinds.Kind]string{
	kinds.Void:    "V",
	kinds.Boolean: "Z",
	kinds.Byte:    "B",
	kinds.Short:   "S",
	kinds.Char:    "C",
	kinds.Int:     "I",
	kinds.Long:    "J",
	kinds.Float:   "F",
	kinds.Double:  "D",
}

func PrimitiveByName(name string) (Primitive, bool) {
	k, ok := kinds.Parse(name)
	if !ok || !(k.IsPrimitive() || k == kinds.Void) {
		return 0, false
	}

	return Primitive(k), true
}

type nullType struct{}

// Null is the type of the null literal.
var Null Type = nullType{}

func (nullType) Kind() kinds.Kind      { return kinds.Null }
func (nullType) String() string        { return "null" }
func (nullType) QualifiedName() string { return "null" }
func (nullType) isType()               {}

type Reference struct {
	s    TypeScope
	name string
}

func NewReference(s TypeScope, name string) *Reference {
	return &Reference{s: s, name: name}
}

func (t *Reference) Kind() kinds.Kind {
	ref, ok := t.Dereference()
	if !ok {
		return kinds.Unknown
	}

	return ref.Kind()
}

func (t *Reference) Dereference() (Type, bool) {
	if t.s == nil {
		return nil, false
	}

	return t.s.ResolveType(t.name)
}

func (t *Reference) String() string        { return t.name }
func (t *Reference) QualifiedName() string { return t.name }
func (*Reference) isType()                 {}

type Parameterized struct {
	Base Type
	Args []Type
}

func NewParameterized(base Type, args ...Type) *Parameterized {
	return &Parameterized{Base: base, Args: args}
}

func (t *Parameterized) Kind() kinds.Kind { return t.Base.Kind() }

func (t *Parameterized) String() string {
	args := make([]string, 0, len(t.Args))
	for _, arg := range t.Args {
		args = append(args, arg.String())
	}

	return fmt.Sprintf("%s<%s>", t.Base.QualifiedName(), strings.Join(args, ","))
}

func (t *Parameterized) QualifiedName() string { return t.Base.QualifiedName() }
func (*Parameterized) isType()                 {}

type Array struct {
	Elem Type
}

func NewArray(elem Type) *Array {
	return &Array{Elem: elem}
}

// ArrayOf wraps elem in dims array dimensions.
func ArrayOf(elem Type, dims int) Type {
	for range dims {
		elem = NewArray(elem)
	}

	return elem
}

func (*Array) Kind() kinds.Kind        { return kinds.Array }
func (t *Array) String() string        { return t.Elem.String() + "[]" }
func (t *Array) QualifiedName() string { return t.Elem.QualifiedName() + "[]" }
func (*Array) isType()                 {}

// Wildcard is `?`, `? extends Bound` or, with Lower set, `? super Bound`.
type Wildcard struct {
	Bound Type
	Lower bool
}

func (*Wildcard) Kind() kinds.Kind { return kinds.Wildcard }

func (t *Wildcard) String() string {
	switch {
	case t.Bound == nil:
		return "?"
	case t.Lower:
		return "? super " + t.Bound.String()
	default:
		return "? extends " + t.Bound.String()
	}
}

func (t *Wildcard) QualifiedName() string { return t.String() }
func (*Wildcard) isType()                 {}

type TypeVariable struct {
	Name   string
	Bounds []Type

	// Owner is the qualified name of the declaring class, or of the
	// declaring method for method type parameters.
	Owner string
}

func NewTypeVariable(owner, name string, bounds ...Type) *TypeVariable {
	return &TypeVariable{Owner: owner, Name: name, Bounds: bounds}
}

func (*TypeVariable) Kind() kinds.Kind        { return kinds.TypeVariable }
func (t *TypeVariable) String() string        { return t.Name }
func (t *TypeVariable) QualifiedName() string { return t.Name }
func (*TypeVariable) isType()                 {}

// UpperBound returns the first declared bound, or nil when the variable is
// unbounded.
func (t *TypeVariable) UpperBound() Type {
	if len(t.Bounds) == 0 {
		return nil
	}

	return t.Bounds[0]
}

// Dereference follows references until it reaches a concrete handle. An
// unresolvable reference is returned as is.
func Dereference(t Type) Type {
	for {
		ref, ok := t.(*Reference)
		if !ok {
			return t
		}

		res, ok := ref.Dereference()
		if !ok || res == nil {
			return t
		}

		t = res
	}
}

// Base strips references and type arguments.
func Base(t Type) Type {
	switch t := Dereference(t).(type) {
	case *Parameterized:
		return Base(t.Base)
	default:
		return t
	}
}

// Same reports whether two handles name the same logical type, regardless
// of which representation each one uses.
func Same(t1, t2 Type) bool {
	if t1 == nil || t2 == nil {
		return t1 == t2
	}

	t1 = Dereference(t1)
	t2 = Dereference(t2)
	if t1 == t2 {
		return true
	}

	switch t1 := t1.(type) {
	case Primitive:
		p2, ok := t2.(Primitive)
		return ok && t1 == p2
	case nullType:
		return t2 == Null
	case *Array:
		a2, ok := t2.(*Array)
		return ok && Same(t1.Elem, a2.Elem)
	case *Parameterized:
		p2, ok := t2.(*Parameterized)
		if !ok {
			return false
		}

		return Same(t1.Base, p2.Base) && slices.EqualFunc(t1.Args, p2.Args, Same)
	case *Wildcard:
		w2, ok := t2.(*Wildcard)
		return ok && t1.Lower == w2.Lower && Same(t1.Bound, w2.Bound)
	case *TypeVariable:
		v2, ok := t2.(*TypeVariable)
		return ok && t1.Name == v2.Name && t1.Owner == v2.Owner
	case *Reference:
		r2, ok := t2.(*Reference)
		return ok && t1.name == r2.name
	case Declared:
		d2, ok := t2.(Declared)
		return ok && t1.QualifiedName() == d2.QualifiedName()
	default:
		panic(unsupported(t1))
	}
}

// SameErased compares two handles after erasure.
func SameErased(t1, t2 Type) bool {
	return ErasedName(t1) == ErasedName(t2)
}

// ErasedName is the qualified name of a type after erasing type arguments
// and replacing type variables with their first bound.
func ErasedName(t Type) string {
	if t == nil {
		return "java.lang.Object"
	}

	switch t := Dereference(t).(type) {
	case Primitive, nullType, *Reference:
		return t.QualifiedName()
	case *Parameterized:
		return ErasedName(t.Base)
	case *Array:
		return ErasedName(t.Elem) + "[]"
	case *Wildcard:
		if t.Bound == nil || t.Lower {
			return "java.lang.Object"
		}

		return ErasedName(t.Bound)
	case *TypeVariable:
		return ErasedName(t.UpperBound())
	case Declared:
		return t.QualifiedName()
	default:
		panic(unsupported(t))
	}
}

// Walk calls fn for t and every type nested in it: type arguments, array
// elements and wildcard bounds. Type variable bounds are not followed.
func Walk(t Type, fn func(Type)) {
	if t == nil {
		return
	}

	fn(t)
	switch t := t.(type) {
	case *Parameterized:
		Walk(t.Base, fn)
		for _, arg := range t.Args {
			Walk(arg, fn)
		}
	case *Array:
		Walk(t.Elem, fn)
	case *Wildcard:
		Walk(t.Bound, fn)
	}
}
