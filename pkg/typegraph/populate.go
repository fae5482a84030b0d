package typegraph

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/rhino1998/strata/pkg/dynstub"
	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

// New creates a type system configured by doc and defines every type the
// document lists.
func New(logger *slog.Logger, doc *Document) (*typesys.System, error) {
	config, err := doc.Config()
	if err != nil {
		return nil, err
	}

	sys, err := typesys.New(logger, config)
	if err != nil {
		return nil, err
	}

	err = Populate(sys, doc)
	if err != nil {
		return nil, err
	}

	return sys, nil
}

// Config returns the type system configuration the document describes.
func (d *Document) Config() (typesys.Config, error) {
	policy, err := typesys.ParseAmbiguityPolicy(d.Ambiguity)
	if err != nil {
		return typesys.Config{}, err
	}

	return typesys.Config{
		Layers:          d.Layers,
		ReferenceLayer:  d.ReferenceLayer,
		MethodCacheSize: d.MethodCacheSize,
		Ambiguity:       policy,
	}, nil
}

// ReverseDepsFor returns the reverse dependencies recorded for a type.
func (d *Document) ReverseDepsFor(name string) dynstub.ReverseDeps {
	spec := d.ReverseDeps[name]
	return dynstub.ReverseDeps{Props: spec.Props, Methods: spec.Methods}
}

// Populate defines the document's types in sys, in document order. A
// modify declaration modifies the latest declaration of its target defined
// before it in a layer no later than its own.
func Populate(sys *typesys.System, doc *Document) error {
	p := &populator{sys: sys, layers: doc.Layers}

	errs := &typesys.ErrorSet{}
	for i := range doc.Types {
		spec := &doc.Types[i]

		t, err := p.build(spec)
		if err != nil {
			errs.Add(fmt.Errorf("type %s: %w", spec.displayName(), err))
			continue
		}

		err = sys.Define(t)
		if err != nil {
			errs.Add(err)
		}
	}

	return errs.Defer(nil)
}

type populator struct {
	sys    *typesys.System
	layers []string
}

func (p *populator) build(spec *TypeSpec) (types.Type, error) {
	switch spec.Shape {
	case ShapeCompiled:
		return p.compiled(spec)
	case ShapeClassFile:
		return p.classFile(spec)
	default:
		return p.source(spec, nil)
	}
}

func splitName(qualified string) (pkg, name string) {
	i := strings.LastIndexByte(qualified, '.')
	if i < 0 {
		return "", qualified
	}

	return qualified[:i], qualified[i+1:]
}

func parseKind(s string) kinds.Kind {
	k, ok := kinds.Parse(s)
	if !ok {
		return kinds.Unknown
	}

	return k
}

func declScope(d *types.Decl) types.VarScope {
	return func(name string) *types.TypeVariable {
		for cur := d; cur != nil; cur = cur.Outer() {
			if v := cur.TypeParam(name); v != nil {
				return v
			}
		}

		return nil
	}
}

func (p *populator) source(spec *TypeSpec, outer *types.Decl) (*types.Decl, error) {
	mods, err := parseModifiers(spec.Modifiers)
	if err != nil {
		return nil, err
	}

	var d *types.Decl
	switch {
	case spec.Modifies != "":
		d = types.NewModify(p.modifyTarget(spec.Modifies, spec.Layer), spec.Layer)
	case outer != nil:
		d = types.NewDecl("", spec.Name, parseKind(spec.Kind), mods).SetLayer(spec.Layer)
		outer.AddInner(d)
	default:
		pkg, name := splitName(spec.Name)
		d = types.NewDecl(pkg, name, parseKind(spec.Kind), mods).SetLayer(spec.Layer)
	}

	scope := declScope(d)
	err = p.typeParams(spec.TypeParams, d.QualifiedName(), scope, func(names ...string) []*types.TypeVariable {
		d.WithTypeParams(names...)
		return d.TypeParams()
	})
	if err != nil {
		return nil, err
	}

	if spec.Extends != "" {
		t, err := types.ParseType(p.sys, scope, spec.Extends)
		if err != nil {
			return nil, fmt.Errorf("extends: %w", err)
		}

		d.SetExtends(t)
	}

	for _, src := range spec.Implements {
		t, err := types.ParseType(p.sys, scope, src)
		if err != nil {
			return nil, fmt.Errorf("implements: %w", err)
		}

		d.Implement(t)
	}

	d.Dynamic = spec.Dynamic
	d.LayerType = spec.LayerType
	d.MakeBindable = spec.MakeBindable
	d.DynInvoke = spec.DynInvoke

	annots, err := buildAnnotations(spec.Annotations)
	if err != nil {
		return nil, err
	}

	for _, a := range annots {
		d.AddAnnotation(a)
	}

	for _, fs := range spec.Fields {
		f, err := p.field(fs, scope)
		if err != nil {
			return nil, err
		}

		d.Add(f)
	}

	for _, ms := range spec.Methods {
		m, err := p.method(ms, d.QualifiedName(), scope)
		if err != nil {
			return nil, err
		}

		d.Add(m)
	}

	for _, cs := range spec.Constructors {
		cs.Name = d.SimpleName()
		m, err := p.method(cs, d.QualifiedName(), scope)
		if err != nil {
			return nil, err
		}

		m.Constructor = true
		m.Return = nil
		d.Add(m)
	}

	for _, as := range spec.Assignments {
		annots, err := buildAnnotations(as.Annotations)
		if err != nil {
			return nil, fmt.Errorf("assignment %s: %w", as.Name, err)
		}

		d.Add(&types.PropertyAssignment{
			Name:      as.Name,
			Operator:  as.Operator,
			Init:      as.Init,
			Annots:    annots,
			DynAccess: as.DynAccess,
		})
	}

	for i := range spec.Inner {
		_, err := p.source(&spec.Inner[i], d)
		if err != nil {
			return nil, fmt.Errorf("inner %s: %w", spec.Inner[i].Name, err)
		}
	}

	return d, nil
}

// modifyTarget picks the declaration a modify declaration in layer
// modifies: the last source declaration of name in the same or an earlier
// layer, else the compiled type, else a by-name reference.
func (p *populator) modifyTarget(name, layer string) types.Type {
	limit := slices.Index(p.layers, layer)
	if layer == "" || limit < 0 {
		limit = len(p.layers)
	}

	decls := p.sys.SourceDecls(name)
	for i := len(decls) - 1; i >= 0; i-- {
		l := decls[i].Layer()
		li := slices.Index(p.layers, l)
		if l == "" || (li >= 0 && li <= limit) {
			return decls[i]
		}
	}

	if c, ok := p.sys.Compiled(name); ok {
		return c
	}

	return p.sys.Ref(name)
}

// typeParams declares type variables from "T" or "T extends A & B" and
// parses their bounds once every variable of the list is in scope.
func (p *populator) typeParams(srcs []string, owner string, scope types.VarScope, declare func(names ...string) []*types.TypeVariable) error {
	if len(srcs) == 0 {
		return nil
	}

	names := make([]string, 0, len(srcs))
	bounds := make([]string, 0, len(srcs))
	for _, src := range srcs {
		name, bound, _ := strings.Cut(src, " extends ")
		names = append(names, strings.TrimSpace(name))
		bounds = append(bounds, bound)
	}

	vars := declare(names...)
	for i, v := range vars {
		if i >= len(bounds) || bounds[i] == "" {
			continue
		}

		for _, b := range strings.Split(bounds[i], "&") {
			t, err := types.ParseType(p.sys, scope, strings.TrimSpace(b))
			if err != nil {
				return fmt.Errorf("bound of %s in %s: %w", v.Name, owner, err)
			}

			v.Bounds = append(v.Bounds, t)
		}
	}

	return nil
}

func (p *populator) field(fs FieldSpec, scope types.VarScope) (*types.Field, error) {
	mods, err := parseModifiers(fs.Modifiers)
	if err != nil {
		return nil, err
	}

	t, err := types.ParseType(p.sys, scope, fs.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fs.Name, err)
	}

	annots, err := buildAnnotations(fs.Annotations)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", fs.Name, err)
	}

	return &types.Field{
		Name:      fs.Name,
		Type:      t,
		Mods:      mods,
		Annots:    annots,
		Init:      fs.Init,
		DynAccess: fs.DynAccess,
	}, nil
}

func (p *populator) method(ms MethodSpec, owner string, outer types.VarScope) (*types.Method, error) {
	mods, err := parseModifiers(ms.Modifiers)
	if err != nil {
		return nil, err
	}

	m := &types.Method{
		Name:      ms.Name,
		Mods:      mods &^ types.Varargs,
		Varargs:   mods.Has(types.Varargs),
		DynAccess: ms.DynAccess,
	}

	scope := func(name string) *types.TypeVariable {
		if v := m.TypeParam(name); v != nil {
			return v
		}

		if outer != nil {
			return outer(name)
		}

		return nil
	}

	err = p.typeParams(ms.TypeParams, owner+"."+ms.Name, scope, func(names ...string) []*types.TypeVariable {
		for _, name := range names {
			m.TypeParams = append(m.TypeParams, types.NewTypeVariable(owner+"."+ms.Name, name))
		}

		return m.TypeParams
	})
	if err != nil {
		return nil, err
	}

	for i, src := range ms.Params {
		param, varargs, err := parseParam(p.sys, scope, src, i)
		if err != nil {
			return nil, fmt.Errorf("method %s: %w", ms.Name, err)
		}

		if varargs && i != len(ms.Params)-1 {
			return nil, fmt.Errorf("method %s: only the last parameter may be varargs", ms.Name)
		}

		m.Varargs = m.Varargs || varargs
		m.Params = append(m.Params, param)
	}

	if ms.Returns != "" {
		m.Return, err = types.ParseType(p.sys, scope, ms.Returns)
		if err != nil {
			return nil, fmt.Errorf("method %s: return: %w", ms.Name, err)
		}
	}

	for _, src := range ms.Throws {
		t, err := types.ParseType(p.sys, scope, src)
		if err != nil {
			return nil, fmt.Errorf("method %s: throws: %w", ms.Name, err)
		}

		m.Throws = append(m.Throws, t)
	}

	m.Annots, err = buildAnnotations(ms.Annotations)
	if err != nil {
		return nil, fmt.Errorf("method %s: %w", ms.Name, err)
	}

	return m, nil
}

// parseParam parses "type name". The name is optional.
func parseParam(s types.TypeScope, scope types.VarScope, src string, i int) (types.Param, bool, error) {
	src = strings.TrimSpace(src)
	typ, name := src, fmt.Sprintf("arg%d", i)
	if j := strings.LastIndexByte(src, ' '); j >= 0 && !strings.ContainsAny(src[j+1:], "<>[].,?") {
		typ, name = strings.TrimSpace(src[:j]), src[j+1:]
	}

	t, varargs, err := types.ParseParamType(s, scope, typ)
	if err != nil {
		return types.Param{}, false, err
	}

	return types.Param{Name: name, Type: t}, varargs, nil
}

func (p *populator) compiled(spec *TypeSpec) (*types.Class, error) {
	mods, err := parseModifiers(spec.Modifiers)
	if err != nil {
		return nil, err
	}

	pkg, name := splitName(spec.Name)
	var enclosing types.Type
	if spec.Enclosing != "" {
		enclosing = p.sys.Ref(spec.Enclosing)
		pkg, name = types.PackageName(enclosing), spec.Name
		if pkg == "" {
			pkg, _ = splitName(spec.Enclosing)
		}
	}

	c := types.NewClass(p.sys.Loader(), pkg, name, parseKind(spec.Kind), mods)
	if enclosing != nil {
		c.SetEnclosing(enclosing)
	}

	err = p.typeParams(spec.TypeParams, c.QualifiedName(), c.TypeParam, func(names ...string) []*types.TypeVariable {
		c.WithTypeParams(names...)
		return c.TypeParams()
	})
	if err != nil {
		return nil, err
	}

	if spec.Extends != "" {
		t, err := types.ParseType(p.sys, c.TypeParam, spec.Extends)
		if err != nil {
			return nil, fmt.Errorf("extends: %w", err)
		}

		c.SetSuper(t)
	} else if c.QualifiedName() != types.ObjectName && !types.IsInterface(c) {
		c.SetSuper(p.sys.Ref(types.ObjectName))
	}

	for _, src := range spec.Implements {
		t, err := types.ParseType(p.sys, c.TypeParam, src)
		if err != nil {
			return nil, fmt.Errorf("implements: %w", err)
		}

		c.Implement(t)
	}

	annots, err := buildAnnotations(spec.Annotations)
	if err != nil {
		return nil, err
	}

	for _, a := range annots {
		c.AddAnnotation(a)
	}

	for _, fs := range spec.Fields {
		f, err := p.field(fs, c.TypeParam)
		if err != nil {
			return nil, err
		}

		c.AddField(f)
	}

	for _, ms := range spec.Methods {
		m, err := p.method(ms, c.QualifiedName(), c.TypeParam)
		if err != nil {
			return nil, err
		}

		c.AddMethod(m)
	}

	for _, cs := range spec.Constructors {
		cs.Name = c.SimpleName()
		m, err := p.method(cs, c.QualifiedName(), c.TypeParam)
		if err != nil {
			return nil, err
		}

		m.Constructor = true
		m.Return = nil
		c.AddMethod(m)
	}

	return c, nil
}

func internalName(qualified string) string {
	return strings.ReplaceAll(qualified, ".", "/")
}

func (p *populator) classFile(spec *TypeSpec) (*types.ClassFile, error) {
	mods, err := parseModifiers(spec.Modifiers)
	if err != nil {
		return nil, err
	}

	internal := internalName(spec.Name)
	if spec.Enclosing != "" {
		internal = internalName(spec.Enclosing) + "$" + spec.Name
	}

	c := types.NewClassFile(p.sys, internal, parseKind(spec.Kind), mods).SetVersion(spec.Version)
	if spec.Enclosing != "" {
		c.SetOuterName(internalName(spec.Enclosing))
	}

	switch {
	case spec.Extends != "":
		c.SetSuperName(internalName(spec.Extends))
	case !types.IsInterface(c):
		c.SetSuperName(internalName(types.ObjectName))
	}

	for _, iface := range spec.Implements {
		c.AddInterfaceName(internalName(iface))
	}

	annots, err := buildAnnotations(spec.Annotations)
	if err != nil {
		return nil, err
	}

	for _, a := range annots {
		c.AddAnnotation(a)
	}

	for _, fs := range spec.Fields {
		fmods, err := parseModifiers(fs.Modifiers)
		if err != nil {
			return nil, err
		}

		err = c.AddField(fs.Name, fs.Descriptor, fmods)
		if err != nil {
			return nil, err
		}
	}

	for _, ms := range spec.Methods {
		err := p.classFileMethod(c, ms.Name, ms)
		if err != nil {
			return nil, err
		}
	}

	for _, cs := range spec.Constructors {
		err := p.classFileMethod(c, "<init>", cs)
		if err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (p *populator) classFileMethod(c *types.ClassFile, name string, ms MethodSpec) error {
	mods, err := parseModifiers(ms.Modifiers)
	if err != nil {
		return err
	}

	m, err := c.AddMethod(name, ms.Descriptor, mods)
	if err != nil {
		return err
	}

	m.Annots, err = buildAnnotations(ms.Annotations)
	if err != nil {
		return fmt.Errorf("method %s: %w", name, err)
	}

	return nil
}
