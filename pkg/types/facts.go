package types

import (
	"github.com/rhino1998/strata/pkg/kinds"
)

var boxNames = map[kinds.Kind]string{
	kinds.Void:    "java.lang.Void",
	kinds.Boolean: "java.lang.Boolean",
	kinds.Byte:    "java.lang.Byte",
	kinds.Short:   "java.lang.Short",
	kinds.Char:    "java.lang.Character",
	kinds.Int:     "java.lang.Integer",
	kinds.Long:    "java.lang.Long",
	kinds.Float:   "java.lang.Float",
	kinds.Double:  "java.lang.Double",
}

const (
	ObjectName = "java.lang.Object"
	StringName = "java.lang.String"
	NumberName = "java.lang.Number"
)

// BoxName returns the wrapper class name for a primitive.
func BoxName(p Primitive) string {
	return boxNames[p.Kind()]
}

// Unbox returns the primitive for a wrapper class name.
func Unbox(name string) (Primitive, bool) {
	for k, n := range boxNames {
		if n == name && k != kinds.Void {
			return Primitive(k), true
		}
	}

	return 0, false
}

// unwrap strips references, type arguments and wildcard bounds so the
// predicates below can test the underlying shape.
func unwrap(t Type) Type {
	for {
		switch u := Dereference(t).(type) {
		case *Parameterized:
			t = u.Base
		case *Wildcard:
			if u.Bound == nil || u.Lower {
				return nil
			}

			t = u.Bound
		default:
			return u
		}
	}
}

// NumericKind returns the primitive kind for a primitive or its boxed
// wrapper, and kinds.Unknown for everything else.
func NumericKind(t Type) kinds.Kind {
	switch t := unwrap(t).(type) {
	case nil:
		return kinds.Unknown
	case Primitive:
		if t.Kind() == kinds.Void {
			return kinds.Unknown
		}

		return t.Kind()
	case nullType, *Array, *TypeVariable, *Reference:
		return kinds.Unknown
	case Declared:
		p, ok := Unbox(t.QualifiedName())
		if !ok {
			return kinds.Unknown
		}

		return p.Kind()
	default:
		panic(unsupported(t))
	}
}

func IsPrimitive(t Type) bool {
	p, ok := Dereference(t).(Primitive)
	return ok && p != Void
}

func IsVoid(t Type) bool {
	p, ok := Dereference(t).(Primitive)
	return ok && p == Void
}

func IsNull(t Type) bool {
	return t != nil && Dereference(t) == Null
}

func IsBoxed(t Type) bool {
	return !IsPrimitive(t) && NumericKind(t) != kinds.Unknown
}

// IsNumeric holds for numeric primitives, their wrappers and Number.
func IsNumeric(t Type) bool {
	if NumericKind(t).IsNumeric() {
		return true
	}

	d, ok := unwrap(t).(Declared)
	return ok && d.QualifiedName() == NumberName
}

func IsInteger(t Type) bool   { return NumericKind(t) == kinds.Int }
func IsLong(t Type) bool      { return NumericKind(t) == kinds.Long }
func IsFloat(t Type) bool     { return NumericKind(t) == kinds.Float }
func IsDouble(t Type) bool    { return NumericKind(t) == kinds.Double }
func IsShort(t Type) bool     { return NumericKind(t) == kinds.Short }
func IsByte(t Type) bool      { return NumericKind(t) == kinds.Byte }
func IsBoolean(t Type) bool   { return NumericKind(t) == kinds.Boolean }
func IsCharacter(t Type) bool { return NumericKind(t) == kinds.Char }

func IsString(t Type) bool {
	d, ok := unwrap(t).(Declared)
	return ok && d.QualifiedName() == StringName
}

func IsObject(t Type) bool {
	d, ok := unwrap(t).(Declared)
	return ok && d.QualifiedName() == ObjectName
}

func IsArray(t Type) bool {
	_, ok := Dereference(t).(*Array)
	return ok
}

func ComponentType(t Type) Type {
	arr, ok := Dereference(t).(*Array)
	if !ok {
		return nil
	}

	return arr.Elem
}

func ArrayDimensions(t Type) int {
	dims := 0
	for {
		arr, ok := Dereference(t).(*Array)
		if !ok {
			return dims
		}

		dims++
		t = arr.Elem
	}
}

func IsTypeVariable(t Type) bool {
	_, ok := Dereference(t).(*TypeVariable)
	return ok
}

func IsParameterized(t Type) bool {
	_, ok := Dereference(t).(*Parameterized)
	return ok
}

func IsWildcard(t Type) bool {
	_, ok := Dereference(t).(*Wildcard)
	return ok
}

func IsDeclared(t Type) bool {
	_, ok := unwrap(t).(Declared)
	return ok
}

func declKind(t Type) kinds.Kind {
	switch t := unwrap(t).(type) {
	case nil, Primitive, nullType, *Array, *TypeVariable:
		return kinds.Unknown
	case *Reference:
		return kinds.Unknown
	case Declared:
		return t.Kind()
	default:
		panic(unsupported(t))
	}
}

func IsInterface(t Type) bool  { return declKind(t) == kinds.Interface || declKind(t) == kinds.Annotation }
func IsEnum(t Type) bool       { return declKind(t) == kinds.Enum }
func IsAnnotation(t Type) bool { return declKind(t) == kinds.Annotation }

func IsAbstract(t Type) bool {
	d, ok := unwrap(t).(Declared)
	if !ok {
		return false
	}

	return IsInterface(d) || d.Modifiers().Has(Abstract)
}

func IsFinal(t Type) bool {
	d, ok := unwrap(t).(Declared)
	return ok && d.Modifiers().Has(Final)
}

// IsDynamic reports whether t is a source declaration, or modifies one,
// whose instances are interpreted.
func IsDynamic(t Type) bool {
	d, ok := unwrap(t).(*Decl)
	if !ok {
		return false
	}

	for _, dt := range d.Chain() {
		if md, ok := dt.(*Decl); ok && md.Dynamic {
			return true
		}
	}

	return false
}

func IsModify(t Type) bool {
	d, ok := unwrap(t).(*Decl)
	return ok && d.Modifies() != nil
}

func IsCompiled(t Type) bool {
	switch unwrap(t).(type) {
	case *Class, *ClassFile:
		return true
	default:
		return false
	}
}

func PackageName(t Type) string {
	switch t := unwrap(t).(type) {
	case Declared:
		return t.Package()
	case *Array:
		return PackageName(t.Elem)
	default:
		return ""
	}
}

// TopLevel returns the outermost enclosing type of t.
func TopLevel(t Type) Type {
	t = unwrap(t)
	for {
		d, ok := t.(Declared)
		if !ok || d.Enclosing() == nil {
			return t
		}

		t = Dereference(d.Enclosing())
	}
}
