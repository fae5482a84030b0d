package typegraph_test

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/typegraph"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

func loadLibrary(t *testing.T) (*typegraph.Document, *typesys.System) {
	t.Helper()
	r := require.New(t)

	doc, err := typegraph.Load("testdata/library.yaml")
	r.NoError(err)

	sys, err := typegraph.New(slogt.New(t), doc)
	r.NoError(err)

	return doc, sys
}

func TestLoad(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Load("testdata/library.yaml")
	r.NoError(err)
	r.Equal([]string{"core", "app"}, doc.Layers)
	r.Len(doc.Types, 7)

	config, err := doc.Config()
	r.NoError(err)
	r.Equal("app", config.ReferenceLayer)
	r.Equal(typesys.AmbiguityFirst, config.Ambiguity)
	r.Equal(64, config.MethodCacheSize)

	_, err = typegraph.Load("testdata/missing.yaml")
	r.ErrorContains(err, "failed to read type graph")

	_, err = typegraph.Parse([]byte("types: [oops"), "broken.yaml")
	r.ErrorContains(err, "failed to parse type graph broken.yaml")
}

func TestParseDefaults(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Parse([]byte(`
types:
  - name: app.Thing
    methods:
      - name: run
    inner:
      - name: Part
  - name: lib.Old
    shape: compiled
    inner:
      - name: Nested
  - modifies: app.Thing
`), "defaults.yaml")
	r.NoError(err)

	r.Equal("error", doc.Ambiguity)

	thing := doc.Types[0]
	r.Equal(typegraph.ShapeSource, thing.Shape)
	r.Equal("class", thing.Kind)
	r.Equal("void", thing.Methods[0].Returns)
	r.Equal(typegraph.ShapeSource, thing.Inner[0].Shape)

	r.Equal(typegraph.ShapeCompiled, doc.Types[1].Inner[0].Shape)
	r.Empty(doc.Types[2].Kind, "modify declarations take the kind of their target")
}

func TestParseValidation(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"missing name", `types: [{kind: class}]`, "name is required"},
		{"unknown shape", `types: [{name: a.B, shape: binary}]`, `unknown shape "binary"`},
		{"unknown kind", `types: [{name: a.B, kind: struct}]`, `unknown kind "struct"`},
		{"unknown layer", "layers: [base]\ntypes: [{name: a.B, layer: top}]", `unknown layer "top"`},
		{"reference layer", "layers: [base]\nreferenceLayer: top\ntypes: []", `reference layer "top" is not a declared layer`},
		{"ambiguity", "ambiguity: random\ntypes: []", `unknown ambiguity policy "random"`},
		{"modifier", `types: [{name: a.B, modifiers: [sealed]}]`, `unknown modifier "sealed"`},
		{"duplicate", "types: [{name: a.B}, {name: a.B}]", `a.B is declared twice in layer ""`},
		{"compiled layer", `types: [{name: a.B, shape: compiled, layer: base}]`, "apply only to source types"},
		{"classfile field", `types: [{name: a.B, shape: classfile, fields: [{name: f}]}]`, "class-file fields need a descriptor"},
		{"classfile method", `types: [{name: a.B, shape: classfile, methods: [{name: m}]}]`, "class-file methods need a descriptor"},
		{"field type", `types: [{name: a.B, fields: [{name: f}]}]`, "field f: type is required"},
		{"method name", `types: [{name: a.B, methods: [{returns: int}]}]`, "method name is required"},
		{"inner name", `types: [{name: a.B, inner: [{name: c.D}]}]`, `inner type "c.D" must use a simple name`},
		{"attribute", `types: [{name: a.B, annotations: [{name: sc.bind.BindSettings, values: {reverseSlot: one}}]}]`, "@sc.bind.BindSettings(reverseSlot): expected int, got string"},
		{"unknown attribute", `types: [{name: a.B, annotations: [{name: sc.bind.Bindable, values: {eager: true}}]}]`, `@sc.bind.Bindable has no attribute "eager"`},
		{"annotation name", `types: [{name: a.B, fields: [{name: f, type: int, annotations: [{values: 1}]}]}]`, "annotation name is required"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := require.New(t)

			_, err := typegraph.Parse([]byte(test.src), "bad.yaml")
			r.ErrorContains(err, test.want)
			r.ErrorContains(err, "bad.yaml")
		})
	}
}

func TestValidationCollectsEveryError(t *testing.T) {
	r := require.New(t)

	_, err := typegraph.Parse([]byte(`
types:
  - name: a.B
    shape: binary
  - name: a.C
    kind: struct
`), "many.yaml")

	var errs *typesys.ErrorSet
	r.ErrorAs(err, &errs)
	r.Len(errs.Unwrap(), 2)
}

func TestAnnotationValues(t *testing.T) {
	r := require.New(t)
	_, sys := loadLibrary(t)

	store, ok := sys.Compiled("lib.Store")
	r.True(ok)

	sync := types.FindAnnotation(store.Annotations(), "Sync")
	r.NotNil(sync)
	r.Equal(types.ComplexForm, sync.Form())
	r.Equal([]types.NamedValue{
		{Name: "syncMode", Value: "automatic"},
		{Name: "destinations", Value: []string{"js", "server"}},
		{Name: "onDemand", Value: true},
	}, sync.Values)

	editor := sys.MustResolve("app.Editor")
	theme := sys.GetAnnotation(editor, "app.Theme")
	r.NotNil(theme)
	r.Equal(types.SingleForm, theme.Form())
	v, _ := theme.Get("value")
	r.Equal("dark", v)

	main := sys.GetAnnotation(editor, "MainSettings")
	r.NotNil(main)
	v, _ = main.Get("produceScript")
	r.Equal(true, v)

	codec, ok := sys.Compiled("lib.Codec")
	r.True(ok)
	encode := codec.Methods()[0]
	r.Equal(types.MarkerForm, types.FindAnnotation(encode.Annotations(), "sc.obj.Constant").Form())
}

func TestCompiledShapes(t *testing.T) {
	r := require.New(t)
	_, sys := loadLibrary(t)

	c, ok := sys.Compiled("lib.Store")
	r.True(ok)
	store := c.(*types.Class)

	r.Len(store.TypeParams(), 2)
	k := store.TypeParam("K")
	r.NotNil(k)
	r.Equal("java.lang.Comparable<K>", k.UpperBound().String())
	r.Equal(types.ObjectName, store.Superclass().QualifiedName())
	r.Equal("java.lang.Iterable<V>", store.Interfaces()[0].String())
	r.Len(store.Constructors(), 1)
	r.Equal("Store(int)", store.Constructors()[0].Signature())
	r.Same(types.Type(store), store.Methods()[0].Owner())

	entry, ok := sys.Compiled("lib.Store.Entry")
	r.True(ok)
	r.Equal("lib", entry.Package())
	r.Equal("lib.Store", entry.Enclosing().QualifiedName())
	r.True(entry.Modifiers().Has(types.Static))
}

func TestClassFileShapes(t *testing.T) {
	r := require.New(t)
	_, sys := loadLibrary(t)

	c, ok := sys.Compiled("lib.Codec")
	r.True(ok)
	codec := c.(*types.ClassFile)

	r.Equal(52, codec.Version())
	r.Equal("lib/Codec", codec.InternalName())
	r.Equal("java.lang.Exception", codec.Superclass().QualifiedName())
	r.Equal("java.io.Serializable", codec.Interfaces()[0].QualifiedName())

	flags := codec.Fields()[0]
	r.Equal("long[]", flags.Type.String())
	r.True(flags.Mods.Has(types.Private))

	encode := codec.Methods()[0]
	r.Equal("encode(int,java.lang.String)", encode.Signature())
	r.Equal("byte[]", encode.Return.String())

	ctor := codec.Constructors()[0]
	r.True(ctor.Constructor)
	r.Equal("Codec", ctor.Name)
	r.Nil(ctor.Return)

	frame, ok := sys.Compiled("lib.Codec.Frame")
	r.True(ok)
	r.Equal("Frame", frame.SimpleName())
	r.Equal("lib.Codec", frame.Enclosing().QualifiedName())

	r.True(sys.IsSubtype(codec, sys.MustResolve("java.lang.Throwable")))
}

func TestSourceShapes(t *testing.T) {
	r := require.New(t)
	_, sys := loadLibrary(t)

	decls := sys.SourceDecls("app.Editor")
	r.Len(decls, 2)
	base, modify := decls[0], decls[1]

	r.Equal("core", base.Layer())
	r.Equal(kinds.Class, base.Kind())
	r.Equal("lib.Store<java.lang.String,java.lang.Integer>", base.Extends().String())

	title := base.Member("title").(*types.Field)
	r.Equal(`"untitled"`, title.Init)

	open := base.Methods()[0]
	r.True(open.Varargs)
	r.Equal("open(java.lang.String,int[])", open.Signature())
	r.Equal("java.lang.Exception", open.Throws[0].QualifiedName())

	pick := base.Methods()[1]
	r.True(pick.IsStatic())
	r.Len(pick.TypeParams, 1)
	r.Equal("java.lang.Number", pick.TypeParams[0].UpperBound().QualifiedName())
	r.Equal("java.util.List<T>", pick.Return.String())

	cursor := base.Inner()[0]
	r.Equal("app.Editor.Cursor", cursor.QualifiedName())
	r.Same(base, cursor.Outer())
	r.True(cursor.IsInner())
	r.Len(sys.SourceDecls("app.Editor.Cursor"), 1)

	r.Equal("app", modify.Layer())
	r.Same(types.Type(base), modify.Modifies())
	r.True(modify.Dynamic)
	r.Equal([]string{"title"}, modify.MakeBindable)

	assign := modify.Assignments()[0]
	r.True(assign.DynAccess)
	r.Equal(`"draft"`, assign.Init)

	r.Same(types.Type(modify), sys.MustResolve("app.Editor"))
	r.True(types.IsDynamic(modify))
	r.False(types.IsDynamic(base))
	r.Equal(types.StringName, sys.PropertyType(assign).QualifiedName())
}

func TestModifyCompiledType(t *testing.T) {
	r := require.New(t)
	_, sys := loadLibrary(t)

	compiled, ok := sys.Compiled("lib.Store")
	r.True(ok)

	decls := sys.SourceDecls("lib.Store")
	r.Len(decls, 1)
	r.Same(types.Type(compiled), decls[0].Modifies())

	settings, ok := types.CompilerSettingsOf([]*types.Annotation{sys.GetInheritedAnnotation(sys.MustResolve("app.Editor"), "CompilerSettings")})
	r.True(ok)
	r.True(settings.LiveDynamicTypes)
}

func TestReferenceLayer(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Load("testdata/library.yaml")
	r.NoError(err)
	doc.ReferenceLayer = "core"

	sys, err := typegraph.New(slogt.New(t), doc)
	r.NoError(err)

	editor := sys.MustResolve("app.Editor").(*types.Decl)
	r.Equal("core", editor.Layer())
	r.Nil(sys.GetAnnotation(editor, "app.Theme"))
}

func TestReverseDeps(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Load("testdata/library.yaml")
	r.NoError(err)

	deps := doc.ReverseDepsFor("app.Editor")
	r.Equal([]string{"title"}, deps.Props)
	r.Equal([]string{"open"}, deps.Methods)

	r.Empty(doc.ReverseDepsFor("app.Missing").Props)
}

func TestPopulateErrors(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Parse([]byte(`
types:
  - name: app.Broken
    extends: app.Base<java.lang.String
  - name: app.Fine
  - name: app.Bad
    methods:
      - name: m
        params: [int... a, int b]
  - name: lib.Twice
    shape: compiled
  - name: lib.Twice
    shape: compiled
`), "populate.yaml")
	r.NoError(err)

	sys, err := typegraph.New(slogt.New(t), doc)
	r.Nil(sys)
	r.ErrorContains(err, "type app.Broken: extends")
	r.ErrorContains(err, "only the last parameter may be varargs")
	r.ErrorContains(err, "type lib.Twice is already defined")

	var errs *typesys.ErrorSet
	r.ErrorAs(err, &errs)
	r.Len(errs.Unwrap(), 3)
}

func TestRecognizedAnnotationsAreQualified(t *testing.T) {
	r := require.New(t)

	doc, err := typegraph.Parse([]byte(`
types:
  - name: app.Gauge
    modifiers: [public]
    annotations:
      - name: Bindable
      - name: Bindable2
`), t.Name())
	r.NoError(err)

	sys, err := typegraph.New(slogt.New(t), doc)
	r.NoError(err)

	gauge := sys.MustResolve("app.Gauge")
	r.NotNil(sys.GetAnnotation(gauge, "sc.bind.Bindable"))
	r.Nil(sys.GetAnnotation(gauge, "com.other.Bindable"))
	r.NotNil(sys.GetAnnotation(gauge, "Bindable2"))
	r.Nil(sys.GetAnnotation(gauge, "sc.bind.Bindable2"))
}
