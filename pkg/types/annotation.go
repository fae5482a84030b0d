package types

import (
	"fmt"
	"slices"
	"strings"
)

type NamedValue struct {
	Name  string
	Value any
}

type Annotation struct {
	Name   string
	Values []NamedValue
}

func NewAnnotation(name string, values ...NamedValue) *Annotation {
	return &Annotation{Name: name, Values: values}
}

type AnnotationForm int

const (
	MarkerForm AnnotationForm = iota
	SingleForm
	ComplexForm
)

// Form classifies the annotation by its values: none, only `value`, or
// several named values.
func (a *Annotation) Form() AnnotationForm {
	switch {
	case len(a.Values) == 0:
		return MarkerForm
	case len(a.Values) == 1 && a.Values[0].Name == "value":
		return SingleForm
	default:
		return ComplexForm
	}
}

func (a *Annotation) Get(name string) (any, bool) {
	i := slices.IndexFunc(a.Values, func(v NamedValue) bool { return v.Name == name })
	if i < 0 {
		return nil, false
	}

	return a.Values[i].Value, true
}

// Set replaces a named value in place or appends it.
func (a *Annotation) Set(name string, value any) {
	i := slices.IndexFunc(a.Values, func(v NamedValue) bool { return v.Name == name })
	if i < 0 {
		a.Values = append(a.Values, NamedValue{Name: name, Value: value})
		return
	}

	a.Values[i].Value = value
}

func (a *Annotation) Clone() *Annotation {
	return &Annotation{Name: a.Name, Values: slices.Clone(a.Values)}
}

// Matches compares the annotation name against a qualified or simple name.
// A qualified name must match exactly.
func (a *Annotation) Matches(name string) bool {
	if a.Name == name {
		return true
	}

	if strings.Contains(name, ".") {
		return false
	}

	return simpleName(a.Name) == name
}

func (a *Annotation) String() string {
	if len(a.Values) == 0 {
		return "@" + a.Name
	}

	parts := make([]string, 0, len(a.Values))
	for _, v := range a.Values {
		parts = append(parts, fmt.Sprintf("%s=%v", v.Name, v.Value))
	}

	return fmt.Sprintf("@%s(%s)", a.Name, strings.Join(parts, ", "))
}

func simpleName(name string) string {
	return name[strings.LastIndexByte(name, '.')+1:]
}

func FindAnnotation(annots []*Annotation, name string) *Annotation {
	for _, a := range annots {
		if a.Matches(name) {
			return a
		}
	}

	return nil
}

type AnnotationKind int

const (
	UnknownAnnotation AnnotationKind = iota
	BindableAnnotation
	BindSettingsAnnotation
	CompilerSettingsAnnotation
	SyncAnnotation
	ConstantAnnotation
	MainSettingsAnnotation
)

type AttrType int

const (
	AttrBool AttrType = iota
	AttrString
	AttrInt
	AttrStrings
)

func (t AttrType) String() string {
	switch t {
	case AttrBool:
		return "bool"
	case AttrString:
		return "string"
	case AttrInt:
		return "int"
	case AttrStrings:
		return "[]string"
	default:
		return "<unknown>"
	}
}

type annotationSpec struct {
	kind  AnnotationKind
	name  string
	attrs map[string]AttrType
}

var knownAnnotations = []annotationSpec{
	{BindableAnnotation, "sc.bind.Bindable", map[string]AttrType{
		"manual":     AttrBool,
		"crossScope": AttrBool,
		"inactive":   AttrBool,
	}},
	{BindSettingsAnnotation, "sc.bind.BindSettings", map[string]AttrType{
		"reverseMethod":   AttrString,
		"reverseSlot":     AttrInt,
		"forwardSlot":     AttrInt,
		"modifyParam":     AttrBool,
		"oneParamReverse": AttrBool,
	}},
	{CompilerSettingsAnnotation, "sc.obj.CompilerSettings", map[string]AttrType{
		"propagateConstructor": AttrString,
		"dynChildManager":      AttrString,
		"liveDynamicTypes":     AttrBool,
		"compiledOnly":         AttrBool,
		"needsCompiledClass":   AttrBool,
		"mixinTemplate":        AttrString,
	}},
	{SyncAnnotation, "sc.obj.Sync", map[string]AttrType{
		"syncMode":     AttrString,
		"destinations": AttrStrings,
		"onDemand":     AttrBool,
	}},
	{ConstantAnnotation, "sc.obj.Constant", nil},
	{MainSettingsAnnotation, "sc.obj.MainSettings", map[string]AttrType{
		"produceScript": AttrBool,
		"execName":      AttrString,
		"disabled":      AttrBool,
	}},
}

// LookupAnnotation resolves a qualified or simple annotation name against
// the table of recognized annotations.
func LookupAnnotation(name string) (AnnotationKind, bool) {
	for _, spec := range knownAnnotations {
		if spec.name == name || simpleName(spec.name) == name {
			return spec.kind, true
		}
	}

	return UnknownAnnotation, false
}

func (k AnnotationKind) QualifiedName() string {
	for _, spec := range knownAnnotations {
		if spec.kind == k {
			return spec.name
		}
	}

	return ""
}

func (k AnnotationKind) Attributes() map[string]AttrType {
	for _, spec := range knownAnnotations {
		if spec.kind == k {
			return spec.attrs
		}
	}

	return nil
}

// Validate checks a recognized annotation's values against the attribute
// table. Unrecognized annotations are accepted as is.
func (a *Annotation) Validate() error {
	kind, ok := LookupAnnotation(a.Name)
	if !ok {
		return nil
	}

	attrs := kind.Attributes()
	for _, v := range a.Values {
		want, ok := attrs[v.Name]
		if !ok {
			return fmt.Errorf("@%s has no attribute %q", a.Name, v.Name)
		}

		if !attrMatches(want, v.Value) {
			return fmt.Errorf("@%s(%s): expected %s, got %T", a.Name, v.Name, want, v.Value)
		}
	}

	return nil
}

func attrMatches(want AttrType, v any) bool {
	switch want {
	case AttrBool:
		_, ok := v.(bool)
		return ok
	case AttrString:
		_, ok := v.(string)
		return ok
	case AttrInt:
		_, ok := v.(int)
		return ok
	case AttrStrings:
		switch v := v.(type) {
		case []string:
			return true
		case []any:
			for _, e := range v {
				if _, ok := e.(string); !ok {
					return false
				}
			}

			return true
		}
	}

	return false
}

type BindSettings struct {
	ReverseMethod   string
	ReverseSlot     int
	ForwardSlot     int
	ModifyParam     bool
	OneParamReverse bool
}

func BindSettingsOf(annots []*Annotation) (BindSettings, bool) {
	a := FindAnnotation(annots, BindSettingsAnnotation.QualifiedName())
	if a == nil {
		return BindSettings{}, false
	}

	return BindSettings{
		ReverseMethod:   stringValue(a, "reverseMethod"),
		ReverseSlot:     intValue(a, "reverseSlot"),
		ForwardSlot:     intValue(a, "forwardSlot"),
		ModifyParam:     boolValue(a, "modifyParam"),
		OneParamReverse: boolValue(a, "oneParamReverse"),
	}, true
}

type CompilerSettings struct {
	PropagateConstructor string
	DynChildManager      string
	LiveDynamicTypes     bool
	CompiledOnly         bool
	NeedsCompiledClass   bool
	MixinTemplate        string
}

func CompilerSettingsOf(annots []*Annotation) (CompilerSettings, bool) {
	a := FindAnnotation(annots, CompilerSettingsAnnotation.QualifiedName())
	if a == nil {
		return CompilerSettings{}, false
	}

	return CompilerSettings{
		PropagateConstructor: stringValue(a, "propagateConstructor"),
		DynChildManager:      stringValue(a, "dynChildManager"),
		LiveDynamicTypes:     boolValue(a, "liveDynamicTypes"),
		CompiledOnly:         boolValue(a, "compiledOnly"),
		NeedsCompiledClass:   boolValue(a, "needsCompiledClass"),
		MixinTemplate:        stringValue(a, "mixinTemplate"),
	}, true
}

func stringValue(a *Annotation, name string) string {
	v, _ := a.Get(name)
	s, _ := v.(string)
	return s
}

func intValue(a *Annotation, name string) int {
	v, _ := a.Get(name)
	i, _ := v.(int)
	return i
}

func boolValue(a *Annotation, name string) bool {
	v, _ := a.Get(name)
	b, _ := v.(bool)
	return b
}
