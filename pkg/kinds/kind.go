package kinds

type Kind int

const (
	Unknown Kind = iota
	Void
	Null
	Boolean
	Byte
	Short
	Char
	Int
	Long
	Float
	Double
	Class
	Interface
	Enum
	Annotation
	Array
	TypeVariable
	Wildcard
)

func (k Kind) IsPrimitive() bool {
	return k >= Boolean && k <= Double
}

func (k Kind) IsNumeric() bool {
	return k >= Byte && k <= Double
}

// IsIntegral reports whether the kind is one of the integer kinds, char
// included.
func (k Kind) IsIntegral() bool {
	return k >= Byte && k <= Long
}

func (k Kind) IsDeclared() bool {
	return k == Class || k == Interface || k == Enum || k == Annotation
}

func (k Kind) IsReference() bool {
	return k.IsDeclared() || k == Array || k == TypeVariable || k == Wildcard || k == Null
}

// Rank orders the numeric kinds along the binary promotion ladder. Char sits
// beside short since both widen to int.
func (k Kind) Rank() int {
	switch k {
	case Byte:
		return 1
	case Short, Char:
		return 2
	case Int:
		return 3
	case Long:
		return 4
	case Float:
		return 5
	case Double:
		return 6
	default:
		return 0
	}
}

func (k Kind) String() string {
	switch k {
	case Void:
		return "void"
	case Null:
		return "<null>"
	case Boolean:
		return "boolean"
	case Byte:
		return "byte"
	case Short:
		return "short"
	case Char:
		return "char"
	case Int:
		return "int"
	case Long:
		return "long"
	case Float:
		return "float"
	case Double:
		return "double"
	case Class:
		return "class"
	case Interface:
		return "interface"
	case Enum:
		return "enum"
	case Annotation:
		return "@interface"
	case Array:
		return "array"
	case TypeVariable:
		return "<typevar>"
	case Wildcard:
		return "<wildcard>"
	default:
		return "<unknown>"
	}
}

func Parse(s string) (Kind, bool) {
	for k := Void; k <= Wildcard; k++ {
		if k.String() == s {
			return k, true
		}
	}

	switch s {
	case "class":
		return Class, true
	case "annotation":
		return Annotation, true
	}

	return Unknown, false
}
