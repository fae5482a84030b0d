package dynstub_test

import (
	"io/fs"
	"os"
	"strings"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/dynstub"
	"github.com/rhino1998/strata/pkg/typegraph"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

func load(t *testing.T, src string) (*typegraph.Document, *typesys.System) {
	t.Helper()
	r := require.New(t)

	doc, err := typegraph.Parse([]byte(src), t.Name())
	r.NoError(err)

	sys, err := typegraph.New(slogt.New(t), doc)
	r.NoError(err)

	return doc, sys
}

// sourceTypes returns the top-level source types the document declares.
func sourceTypes(t *testing.T, doc *typegraph.Document, sys *typesys.System) []types.Type {
	var out []types.Type
	for _, spec := range doc.Types {
		if spec.Shape != typegraph.ShapeSource || spec.Modifies != "" {
			continue
		}

		typ, ok := sys.ResolveType(spec.Name)
		require.True(t, ok, spec.Name)
		out = append(out, typ)
	}

	return out
}

func TestShapes(t *testing.T) {
	t.Parallel()

	dir := os.DirFS("./testdata/shapes")
	testFiles, err := fs.Glob(dir, "*.txt")
	if err != nil {
		t.Fatal(err)
	}

	for _, testFile := range testFiles {
		name := strings.Split(testFile, ".")[0]
		t.Run(name, func(t *testing.T) {
			r := require.New(t)

			testData, err := fs.ReadFile(dir, testFile)
			r.NoError(err)

			parts := strings.SplitN(string(testData), "\n---\n", 2)
			r.Len(parts, 2)
			expected := strings.TrimSpace(parts[1])

			doc, sys := load(t, parts[0])
			b := dynstub.NewBuilder(slogt.New(t), sys)

			shapes, err := b.BuildAll(sourceTypes(t, doc, sys))
			r.NoError(err)

			rendered := make([]string, 0, len(shapes))
			for _, p := range shapes {
				rendered = append(rendered, dynstub.Render(p))
			}

			r.Equal(expected, strings.TrimSpace(strings.Join(rendered, "\n")))
			r.NoError(sys.Diagnostics().Err())

			for _, p := range shapes {
				if p.Super != nil {
					r.NoError(dynstub.CheckCompatible(p.Super, p), p.Name())
				}
			}
		})
	}
}

const appendGraph = `
types:
  - name: app.A
    modifiers: [public]
    fields:
      - name: x
        type: int
        modifiers: [public]
        annotations:
          - name: sc.bind.Bindable
  - name: app.B
    modifiers: [public]
    extends: app.A
    fields:
      - name: y
        type: java.lang.String
        modifiers: [public]
        annotations:
          - name: sc.bind.Bindable
  - name: app.C
    modifiers: [public]
    extends: app.B
    methods:
      - name: getX
        returns: int
        modifiers: [public]
        annotations:
          - name: sc.bind.Bindable
`

func propNames(p *dynstub.Params) []string {
	out := make([]string, 0, len(p.Props))
	for _, prop := range p.Props {
		out = append(out, prop.String())
	}

	return out
}

func TestStubShapeAppend(t *testing.T) {
	r := require.New(t)
	_, sys := load(t, appendGraph)
	b := dynstub.NewBuilder(slogt.New(t), sys)

	a := b.Params(sys.MustResolve("app.A"))
	bp := b.Params(sys.MustResolve("app.B"))
	c := b.Params(sys.MustResolve("app.C"))

	r.Equal([]string{"x@1"}, propNames(a))
	r.Equal([]string{"x@1 (inherited)", "y@2"}, propNames(bp))
	r.Equal([]string{"x@1 (overridden)", "y@2 (inherited)"}, propNames(c))

	x := c.Prop("x")
	r.True(x.Overridden)
	r.Equal("getX()", x.GetterText())
	r.Equal("x = v", x.SetterText("v"))
	r.Equal("x", a.Prop("x").GetterText())

	r.Same(a, bp.Super)
	r.Same(bp, c.Super)
	r.Len(c.DeclaredProps(), 1)
	r.Equal(3, c.NextPropIndex())
	r.Equal(3, c.NextMethodIndex())
}

func TestBuilderCache(t *testing.T) {
	r := require.New(t)
	_, sys := load(t, appendGraph)
	b := dynstub.NewBuilder(slogt.New(t), sys)

	c := sys.MustResolve("app.C")
	first := b.Params(c)
	r.Same(first, b.Params(c))
	r.Same(first.Super, b.Params(sys.MustResolve("app.B")))

	b.Invalidate()
	second := b.Params(c)
	r.NotSame(first, second)
	r.Equal(dynstub.Render(first), dynstub.Render(second))
}

func TestCheckCompatible(t *testing.T) {
	r := require.New(t)
	_, sys := load(t, appendGraph)
	b := dynstub.NewBuilder(slogt.New(t), sys)

	a := b.Params(sys.MustResolve("app.A"))
	bp := b.Params(sys.MustResolve("app.B"))
	r.NoError(dynstub.CheckCompatible(a, bp))

	moved := &dynstub.Params{
		Type:  bp.Type,
		Props: []*dynstub.Prop{{Name: "y", Index: 1}, {Name: "x", Index: 2}},
	}
	err := dynstub.CheckCompatible(a, moved)
	r.ErrorIs(err, dynstub.ErrIncompatibleShape)
	r.ErrorContains(err, "moves property x@1 to 2")

	dropped := &dynstub.Params{Type: bp.Type}
	r.ErrorContains(dynstub.CheckCompatible(a, dropped), "drops property x@1")

	base := &dynstub.Params{
		Type:    a.Type,
		Methods: []*dynstub.Method{{Name: "run", Index: 0}, {Name: "stop", Index: 1}},
	}
	reused := &dynstub.Params{
		Type:    bp.Type,
		Methods: []*dynstub.Method{{Name: "run", Index: 0}, {Name: "stop", Index: 1}, {Name: "jump", Index: 1}},
	}
	r.ErrorContains(dynstub.CheckCompatible(base, reused), "reuses method position 1 for jump()")
}

func TestReverseDeps(t *testing.T) {
	r := require.New(t)
	doc, sys := load(t, `
types:
  - name: app.Model
    modifiers: [public]
    fields:
      - name: hidden
        type: long
        modifiers: [public]
      - name: shown
        type: int
        modifiers: [public]
        dynAccess: true
    methods:
      - name: compute
        returns: double
        modifiers: [public]
reverseDeps:
  app.Model:
    props: [hidden]
    methods: [compute]
`)
	b := dynstub.NewBuilder(slogt.New(t), sys)
	model := sys.MustResolve("app.Model")

	plain := b.Params(model)
	r.Equal([]string{"shown@1"}, propNames(plain))
	r.Nil(plain.Method("compute()"))

	withDeps := b.ParamsForReverseDeps(model, doc.ReverseDepsFor("app.Model"))
	r.Equal([]string{"hidden@1", "shown@2"}, propNames(withDeps))

	compute := withDeps.Method("compute()")
	r.NotNil(compute)
	r.Equal("((java.lang.Double) ", compute.PreInvoke())
	r.Equal(").doubleValue()", compute.PostInvoke())

	r.Same(plain, b.Params(model), "shapes built for reverse dependencies are not cached")
}

func TestRenderingFacts(t *testing.T) {
	r := require.New(t)
	_, sys := load(t, `
types:
  - name: app.Counter
    modifiers: [public]
    fields:
      - name: total
        type: long
        modifiers: [public, static]
        dynAccess: true
      - name: label
        type: java.lang.String
        modifiers: [public]
        dynAccess: true
    methods:
      - name: isActive
        returns: boolean
        modifiers: [public]
        dynAccess: true
      - name: setActive
        params: [boolean active]
        modifiers: [public]
        dynAccess: true
      - name: snapshot
        params: [int depth, java.lang.String... tags]
        returns: java.lang.Object
        throws: [java.lang.Exception, java.lang.RuntimeException]
        modifiers: [public]
        dynAccess: true
      - name: clear
        modifiers: [public]
        dynAccess: true
`)
	p := dynstub.NewBuilder(slogt.New(t), sys).Params(sys.MustResolve("app.Counter"))

	total := p.Prop("total")
	r.True(total.Static)
	r.Equal("app.Counter.total", total.AccessorText())
	r.Equal("((java.lang.Long) ", total.PreInvoke())
	r.Equal(").longValue()", total.PostInvoke())

	label := p.Prop("label")
	r.Equal("label", label.AccessorText())
	r.Equal("(java.lang.String) ", label.PreInvoke())
	r.Empty(label.PostInvoke())

	active := p.Prop("active")
	r.Equal("isActive()", active.GetterText())
	r.Equal("setActive(true)", active.SetterText("true"))
	r.Equal("((java.lang.Boolean) ", active.PreInvoke())
	r.Equal(").booleanValue()", active.PostInvoke())

	snapshot := p.Method("snapshot(int,java.lang.String[])")
	r.NotNil(snapshot)
	r.Equal("(I[Ljava/lang/String;)Ljava/lang/Object;", snapshot.TypeSignature())
	r.Equal("throws java.lang.Exception, java.lang.RuntimeException", snapshot.ThrowsClause())
	r.Empty(snapshot.PreInvoke())

	clearAll := p.Method("clear()")
	r.Empty(clearAll.ThrowsClause())
	r.Empty(clearAll.PreInvoke())
	r.Empty(clearAll.PostInvoke())
	r.False(clearAll.NeedsSuper)

	ctor := p.Method("Counter()")
	r.True(ctor.Synthetic)
	r.Empty(ctor.PreInvoke())
	r.Len(p.StaticMethods(), 1)
	r.Len(p.InstanceMethods(), 4)
}

func TestMissingTypesDegradeToObject(t *testing.T) {
	r := require.New(t)
	_, sys := load(t, `
types:
  - name: app.Orphan
    modifiers: [public]
    dynInvoke: [vanish]
    fields:
      - name: ghost
        type: app.Missing
        modifiers: [public]
        dynAccess: true
`)
	p := dynstub.NewBuilder(slogt.New(t), sys).Params(sys.MustResolve("app.Orphan"))

	ghost := p.Prop("ghost")
	r.NotNil(ghost)
	r.Equal(types.ObjectName, ghost.Type.QualifiedName())

	err := sys.Diagnostics().Err()
	r.ErrorIs(err, typesys.ErrUnresolved)
	r.ErrorContains(err, "app.Missing")
	r.ErrorContains(err, "vanish")
}

func TestDiff(t *testing.T) {
	r := require.New(t)
	doc, sys := load(t, `
types:
  - name: app.Model
    modifiers: [public]
    fields:
      - name: hidden
        type: long
        modifiers: [public]
reverseDeps:
  app.Model:
    props: [hidden]
`)
	b := dynstub.NewBuilder(slogt.New(t), sys)
	model := sys.MustResolve("app.Model")

	before := b.Params(model)
	after := b.ParamsForReverseDeps(model, doc.ReverseDepsFor("app.Model"))

	same, err := dynstub.Diff(before, before)
	r.NoError(err)
	r.Empty(same)

	diff, err := dynstub.Diff(before, after)
	r.NoError(err)
	r.Contains(diff, "+  hidden@1 long\n")
	r.Contains(diff, "--- app.Model\n")
}
