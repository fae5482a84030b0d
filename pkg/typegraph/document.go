// Package typegraph loads type graphs described in YAML into a type system.
//
// A document lists the build layers and the types to define. Each type is a
// source declaration, a compiled class or a class-file descriptor, and names
// other types by qualified name; names resolve lazily, so a document may
// refer to types it defines later.
package typegraph

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

const (
	ShapeSource    = "source"
	ShapeCompiled  = "compiled"
	ShapeClassFile = "classfile"
)

// Document is the top level of a type graph file.
type Document struct {
	// Layers lists the build layers in order.
	Layers []string `yaml:"layers,omitempty"`

	// ReferenceLayer is the active layer; empty means the last one.
	ReferenceLayer string `yaml:"referenceLayer,omitempty"`

	// Ambiguity is "error" or "first".
	Ambiguity string `yaml:"ambiguity,omitempty"`

	MethodCacheSize int `yaml:"methodCacheSize,omitempty"`

	Types []TypeSpec `yaml:"types"`

	// ReverseDeps maps a type name to the members other types bind to.
	ReverseDeps map[string]ReverseDepsSpec `yaml:"reverseDeps,omitempty"`
}

type TypeSpec struct {
	// Name is qualified for top-level types and simple for inner ones.
	Name string `yaml:"name"`

	// Shape is source (default), compiled or classfile.
	Shape string `yaml:"shape,omitempty"`

	// Kind is class (default), interface, enum or annotation.
	Kind string `yaml:"kind,omitempty"`

	Modifiers []string `yaml:"modifiers,omitempty"`

	// TypeParams declares type variables, e.g. "T" or "T extends Number".
	TypeParams []string `yaml:"typeParams,omitempty"`

	Extends    string   `yaml:"extends,omitempty"`
	Implements []string `yaml:"implements,omitempty"`

	// Enclosing names the outer type of a compiled or class-file member
	// type. Source member types are nested under Inner instead.
	Enclosing string `yaml:"enclosing,omitempty"`

	Layer string `yaml:"layer,omitempty"`

	// Modifies makes the entry a modify declaration of the named type.
	Modifies string `yaml:"modifies,omitempty"`

	Dynamic      bool     `yaml:"dynamic,omitempty"`
	LayerType    bool     `yaml:"layerType,omitempty"`
	MakeBindable []string `yaml:"makeBindable,omitempty"`
	DynInvoke    []string `yaml:"dynInvoke,omitempty"`

	// Version is the class-file major version.
	Version int `yaml:"version,omitempty"`

	Annotations  []AnnotationSpec `yaml:"annotations,omitempty"`
	Fields       []FieldSpec      `yaml:"fields,omitempty"`
	Methods      []MethodSpec     `yaml:"methods,omitempty"`
	Constructors []MethodSpec     `yaml:"constructors,omitempty"`
	Assignments  []AssignSpec     `yaml:"assignments,omitempty"`
	Inner        []TypeSpec       `yaml:"inner,omitempty"`
}

type FieldSpec struct {
	Name        string           `yaml:"name"`
	Type        string           `yaml:"type,omitempty"`
	Descriptor  string           `yaml:"descriptor,omitempty"`
	Modifiers   []string         `yaml:"modifiers,omitempty"`
	Init        string           `yaml:"init,omitempty"`
	DynAccess   bool             `yaml:"dynAccess,omitempty"`
	Annotations []AnnotationSpec `yaml:"annotations,omitempty"`
}

type MethodSpec struct {
	Name string `yaml:"name,omitempty"`

	// Params are "type name" pairs; a trailing ... on the last type makes
	// the method varargs.
	Params []string `yaml:"params,omitempty"`

	Returns    string   `yaml:"returns,omitempty"`
	TypeParams []string `yaml:"typeParams,omitempty"`
	Throws     []string `yaml:"throws,omitempty"`
	Modifiers  []string `yaml:"modifiers,omitempty"`

	// Descriptor replaces Params and Returns for class-file types.
	Descriptor string `yaml:"descriptor,omitempty"`

	DynAccess   bool             `yaml:"dynAccess,omitempty"`
	Annotations []AnnotationSpec `yaml:"annotations,omitempty"`
}

type AssignSpec struct {
	Name        string           `yaml:"name"`
	Operator    string           `yaml:"operator,omitempty"`
	Init        string           `yaml:"init,omitempty"`
	DynAccess   bool             `yaml:"dynAccess,omitempty"`
	Annotations []AnnotationSpec `yaml:"annotations,omitempty"`
}

type ReverseDepsSpec struct {
	Props   []string `yaml:"props,omitempty"`
	Methods []string `yaml:"methods,omitempty"`
}

// Load reads and parses a type graph file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read type graph %s: %w", path, err)
	}

	return Parse(data, path)
}

// Parse parses a type graph. The path is used only in error messages.
func Parse(data []byte, path string) (*Document, error) {
	var doc Document
	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("failed to parse type graph %s: %w", path, err)
	}

	doc.setDefaults()

	err = doc.validate(path)
	if err != nil {
		return nil, err
	}

	return &doc, nil
}

func (d *Document) setDefaults() {
	if d.Ambiguity == "" {
		d.Ambiguity = "error"
	}

	for i := range d.Types {
		d.Types[i].setDefaults(ShapeSource)
	}
}

func (t *TypeSpec) setDefaults(shape string) {
	if t.Shape == "" {
		t.Shape = shape
	}

	if t.Kind == "" && t.Modifies == "" {
		t.Kind = "class"
	}

	for i := range t.Methods {
		if t.Methods[i].Returns == "" {
			t.Methods[i].Returns = "void"
		}
	}

	for i := range t.Inner {
		t.Inner[i].setDefaults(t.Shape)
	}
}

func (d *Document) validate(path string) error {
	errs := &typesys.ErrorSet{}

	_, err := typesys.ParseAmbiguityPolicy(d.Ambiguity)
	if err != nil {
		errs.Add(fmt.Errorf("%s: %w", path, err))
	}

	if d.ReferenceLayer != "" && !slices.Contains(d.Layers, d.ReferenceLayer) {
		errs.Add(fmt.Errorf("%s: reference layer %q is not a declared layer", path, d.ReferenceLayer))
	}

	seen := make(map[string]struct{})
	for i, t := range d.Types {
		where := fmt.Sprintf("%s: types[%d]", path, i)
		t.validate(where, d.Layers, errs)

		if t.Modifies != "" || t.Shape != ShapeSource {
			continue
		}

		key := t.Layer + "/" + t.Name
		if _, ok := seen[key]; ok {
			errs.Add(fmt.Errorf("%s: %s is declared twice in layer %q", where, t.Name, t.Layer))
		}

		seen[key] = struct{}{}
	}

	return errs.Defer(nil)
}

func (t *TypeSpec) validate(where string, layers []string, errs *typesys.ErrorSet) {
	if t.Name == "" && t.Modifies == "" {
		errs.Add(fmt.Errorf("%s: name is required", where))
		return
	}

	where = where + " " + t.displayName()

	switch t.Shape {
	case ShapeSource:
	case ShapeCompiled, ShapeClassFile:
		if t.Modifies != "" || t.Layer != "" || t.Dynamic || len(t.Assignments) > 0 {
			errs.Add(fmt.Errorf("%s: modifies, layer, dynamic and assignments apply only to source types", where))
		}
	default:
		errs.Add(fmt.Errorf("%s: unknown shape %q", where, t.Shape))
	}

	if t.Kind != "" {
		if k, ok := kinds.Parse(t.Kind); !ok || !k.IsDeclared() {
			errs.Add(fmt.Errorf("%s: unknown kind %q", where, t.Kind))
		}
	}

	if t.Layer != "" && len(layers) > 0 && !slices.Contains(layers, t.Layer) {
		errs.Add(fmt.Errorf("%s: unknown layer %q", where, t.Layer))
	}

	validateModifiers(where, t.Modifiers, errs)
	validateAnnotations(where, t.Annotations, errs)

	for _, f := range t.Fields {
		fw := where + " field " + f.Name
		if t.Shape == ShapeClassFile && f.Descriptor == "" {
			errs.Add(fmt.Errorf("%s: class-file fields need a descriptor", fw))
		} else if t.Shape != ShapeClassFile && f.Type == "" {
			errs.Add(fmt.Errorf("%s: type is required", fw))
		}

		validateModifiers(fw, f.Modifiers, errs)
		validateAnnotations(fw, f.Annotations, errs)
	}

	for _, m := range slices.Concat(t.Methods, t.Constructors) {
		mw := where + " method " + m.Name
		if t.Shape == ShapeClassFile && m.Descriptor == "" {
			errs.Add(fmt.Errorf("%s: class-file methods need a descriptor", mw))
		}

		validateModifiers(mw, m.Modifiers, errs)
		validateAnnotations(mw, m.Annotations, errs)
	}

	for _, m := range t.Methods {
		if m.Name == "" {
			errs.Add(fmt.Errorf("%s: method name is required", where))
		}
	}

	for _, a := range t.Assignments {
		validateAnnotations(where+" assignment "+a.Name, a.Annotations, errs)
	}

	for i := range t.Inner {
		inner := &t.Inner[i]
		if strings.Contains(inner.Name, ".") {
			errs.Add(fmt.Errorf("%s: inner type %q must use a simple name", where, inner.Name))
		}

		inner.validate(fmt.Sprintf("%s inner[%d]", where, i), layers, errs)
	}
}

func (t *TypeSpec) displayName() string {
	if t.Modifies != "" {
		return "modify " + t.Modifies
	}

	return t.Name
}

func validateModifiers(where string, mods []string, errs *typesys.ErrorSet) {
	_, err := parseModifiers(mods)
	if err != nil {
		errs.Add(fmt.Errorf("%s: %w", where, err))
	}
}

func validateAnnotations(where string, annots []AnnotationSpec, errs *typesys.ErrorSet) {
	for _, spec := range annots {
		a, err := spec.build()
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", where, err))
			continue
		}

		err = a.Validate()
		if err != nil {
			errs.Add(fmt.Errorf("%s: %w", where, err))
		}
	}
}

func parseModifiers(names []string) (types.Modifiers, error) {
	var mods types.Modifiers
	for _, name := range names {
		m, ok := types.ParseModifier(name)
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", name)
		}

		mods |= m
	}

	return mods, nil
}
