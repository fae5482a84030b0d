package typesys_test

import (
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

var (
	assignment = typesys.AssignOptions{Semantics: typesys.Assignment}
	argument   = typesys.AssignOptions{Semantics: typesys.Argument}
)

func TestBoxingSymmetry(t *testing.T) {
	sys := loadGraph(t)

	for _, prim := range []types.Primitive{types.Boolean, types.Byte, types.Short, types.Char, types.Int, types.Long, types.Float, types.Double} {
		t.Run(prim.String(), func(t *testing.T) {
			r := require.New(t)

			boxed := sys.Box(prim)
			r.True(types.IsBoxed(boxed))

			r.True(sys.IsAssignableFrom(boxed, prim, assignment))
			r.True(sys.IsAssignableFrom(prim, boxed, assignment))
			r.True(sys.IsAssignableFrom(boxed, prim, argument))
			r.True(sys.IsAssignableFrom(prim, boxed, argument))
		})
	}
}

func TestPrimitiveConversions(t *testing.T) {
	sys := loadGraph(t)

	tests := []struct {
		target     string
		source     string
		assignment bool
		argument   bool
	}{
		{"long", "float", false, false},
		{"double", "long", true, true},
		{"double", "int", true, true},
		{"double", "float", true, true},
		{"float", "long", true, true},
		{"int", "char", true, false},
		{"char", "int", true, false},
		{"char", "short", false, false},
		{"short", "byte", true, true},
		{"int", "long", false, false},
		{"boolean", "int", false, false},
		{"long", "java.lang.Integer", true, true},
		{"java.lang.Long", "int", false, false},
		{"java.lang.Number", "int", true, true},
		{"java.lang.Object", "double", true, true},
		{"java.lang.Comparable<java.lang.Integer>", "int", true, true},
	}

	for _, test := range tests {
		t.Run(test.target+"<-"+test.source, func(t *testing.T) {
			r := require.New(t)

			target, source := parse(t, sys, test.target), parse(t, sys, test.source)
			r.Equal(test.assignment, sys.IsAssignableFrom(target, source, assignment), "assignment")
			r.Equal(test.argument, sys.IsAssignableFrom(target, source, argument), "argument")
		})
	}
}

func TestReferenceAssignability(t *testing.T) {
	sys := loadGraph(t)

	tests := []struct {
		target string
		source string
		want   bool
	}{
		{"java.lang.Object", "java.lang.String", true},
		{"java.lang.CharSequence", "java.lang.String", true},
		{"java.lang.String", "java.lang.Object", false},
		{"java.lang.Comparable<java.lang.String>", "java.lang.String", true},
		{"java.lang.Comparable<java.lang.Integer>", "java.lang.String", false},
		{"java.util.List<java.lang.String>", "java.util.ArrayList<java.lang.String>", true},
		{"java.util.List<java.lang.Object>", "java.util.ArrayList<java.lang.String>", false},
		{"java.util.List<? extends java.lang.Object>", "java.util.ArrayList<java.lang.String>", true},
		{"java.util.List<? super java.lang.Integer>", "java.util.ArrayList<java.lang.Number>", true},
		{"java.util.List<? super java.lang.Number>", "java.util.ArrayList<java.lang.Integer>", false},
		{"java.lang.Iterable<java.lang.String>", "java.util.ArrayList<java.lang.String>", true},
		{"java.util.List", "java.util.ArrayList<java.lang.String>", true},
		{"java.util.List<java.lang.String>", "java.util.ArrayList", true},
		{"app.Box<java.lang.Integer>", "app.IntBox", true},
		{"app.Box<java.lang.Long>", "app.IntBox", false},
		{"app.Shape", "app.Circle", true},
		{"app.Circle", "app.Shape", false},
		{"app.Base", "app.Sub1", true},
		{"app.Sub1", "app.Sub2", false},
		{"java.lang.Object", "int[]", true},
		{"java.lang.Cloneable", "int[]", true},
		{"java.io.Serializable", "java.lang.String[]", true},
		{"java.lang.String", "int[]", false},
		{"java.lang.Object[]", "java.lang.String[]", true},
		{"java.lang.Number[]", "java.lang.Integer[]", true},
		{"java.lang.Integer[]", "java.lang.Number[]", false},
		{"int[]", "long[]", false},
		{"long[]", "int[]", false},
		{"int[][]", "int[][]", true},
		{"java.lang.Object[]", "int[][]", true},
	}

	for _, test := range tests {
		t.Run(test.target+"<-"+test.source, func(t *testing.T) {
			r := require.New(t)

			target, source := parse(t, sys, test.target), parse(t, sys, test.source)
			r.Equal(test.want, sys.IsAssignableFrom(target, source, assignment))
		})
	}
}

func TestNullAndUnspecified(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	str := parse(t, sys, "java.lang.String")
	r.True(sys.IsAssignableFrom(str, types.Null, assignment))
	r.True(sys.IsAssignableFrom(parse(t, sys, "int[]"), types.Null, assignment))
	r.False(sys.IsAssignableFrom(types.Int, types.Null, assignment))
	r.False(sys.IsAssignableFrom(types.Void, types.Null, assignment))

	r.True(sys.IsAssignableFrom(nil, str, assignment))
	r.False(sys.IsAssignableFrom(str, nil, assignment))
	r.False(sys.IsAssignableFrom(parse(t, sys, "java.lang.Object"), types.Void, assignment))
}

func TestAssignabilityIsIdempotent(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	pairs := [][2]string{
		{"java.util.List<? extends java.lang.Number>", "java.util.ArrayList<java.lang.Integer>"},
		{"app.Box<java.lang.Integer>", "app.IntBox"},
		{"long", "java.lang.Integer"},
		{"java.lang.Object[]", "int[]"},
	}

	for _, pair := range pairs {
		target, source := parse(t, sys, pair[0]), parse(t, sys, pair[1])
		before := [2]string{target.String(), source.String()}

		first := sys.IsAssignableFrom(target, source, argument)
		second := sys.IsAssignableFrom(target, source, argument)
		r.Equal(first, second, pair[0])
		r.Equal(before, [2]string{target.String(), source.String()})
	}
}

func TestTypeVariableBinding(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	tv := sys.MustResolve("app.Box").(*types.Decl).TypeParam("T")
	r.NotNil(tv)

	str := parse(t, sys, "java.lang.String")

	b := typesys.NewBindings(tv)
	opts := typesys.AssignOptions{Semantics: typesys.Argument, Bindings: b}

	r.False(sys.IsAssignableFrom(tv, str, opts), "outside the bound")
	r.True(sys.IsAssignableFrom(tv, types.Int, opts))

	bound, ok := b.Lookup(tv)
	r.True(ok)
	r.Equal("java.lang.Integer", bound.QualifiedName())
	r.Equal("{T=java.lang.Integer}", b.String())

	r.False(sys.IsAssignableFrom(tv, parse(t, sys, "java.lang.Long"), opts))
	r.Equal("java.lang.Integer", b.Apply(tv).QualifiedName())

	r.False(sys.IsAssignableFrom(tv, str, assignment))
	r.True(sys.IsAssignableFrom(tv, str, typesys.AssignOptions{AllowUnbound: true}))
	r.True(sys.IsAssignableFrom(parse(t, sys, "java.lang.Number"), tv, assignment))
}

func TestBindingsConflict(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	tv := types.NewTypeVariable("app.M", "X")
	b := typesys.NewBindings(tv)

	r.NoError(b.Bind(tv, parse(t, sys, "java.lang.String")))
	r.NoError(b.Bind(tv, types.NewTypeVariable("app.M", "Y")))
	r.ErrorIs(b.Bind(tv, parse(t, sys, "java.lang.Integer")), typesys.ErrIncompatibleTypes)
	r.ErrorIs(b.Bind(types.NewTypeVariable("app.M", "Z"), types.Int), types.ErrIllegalArgument)
	r.Equal(1, b.Len())
}

func TestResolveTypeParameter(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	box := sys.MustResolve("app.Box")
	tv := box.(*types.Decl).TypeParam("T")

	r.Equal("java.lang.Integer", sys.ResolveTypeParameter(box, sys.MustResolve("app.IntBox"), tv).QualifiedName())
	r.Equal("java.lang.Number", sys.ResolveTypeParameter(box, sys.MustResolve("app.RawBox"), tv).QualifiedName())
	r.Equal("java.lang.Integer", sys.ResolveBaseTypeParameter(sys.MustResolve("app.IntBox"), tv).QualifiedName())

	list := sys.MustResolve("java.util.List")
	e := list.(*types.Class).TypeParam("E")
	r.Equal(types.StringName, sys.ResolveTypeParameter(list, parse(t, sys, "java.util.ArrayList<java.lang.String>"), e).QualifiedName())

	args, found := sys.TypeArgumentsFor(parse(t, sys, "java.util.ArrayList<java.lang.String>"), parse(t, sys, "java.lang.Iterable"))
	r.True(found)
	r.Len(args, 1)
	r.Equal(types.StringName, args[0].QualifiedName())

	r.Equal("java.lang.Integer", sys.MemberType(sys.MustResolve("app.IntBox"), tv).QualifiedName())

	r.Zero(sys.Diagnostics().Len())
	r.Nil(sys.ResolveTypeParameter(box, parse(t, sys, "java.lang.String"), tv))
	r.ErrorIs(sys.Diagnostics().Err(), typesys.ErrNoExtendsPath)
}

func TestSupertypes(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	var names []string
	for _, anc := range sys.Ancestors(sys.MustResolve("app.IntBox")) {
		names = append(names, anc.String())
	}
	r.Equal([]string{"app.Box<java.lang.Integer>", "java.lang.Object"}, names)

	r.Empty(sys.Supertypes(sys.Object()))
	r.Empty(sys.Supertypes(sys.MustResolve("app.Shape")))
	r.Len(sys.Supertypes(sys.MustResolve("app.Circle")), 2)

	r.True(sys.IsSubtype(sys.MustResolve("app.Sub1"), sys.MustResolve("app.Base")))
	r.False(sys.IsSubtype(sys.MustResolve("app.Base"), sys.MustResolve("app.Sub1")))
	r.True(sys.IsSubtype(sys.MustResolve("app.Shape"), sys.Object()))
	r.True(sys.IsSubtype(parse(t, sys, "java.util.ArrayList<java.lang.String>"), parse(t, sys, "java.util.Collection")))
}

func TestCircularModifyChainTerminates(t *testing.T) {
	r := require.New(t)

	sys, err := typesys.New(slogt.New(t), typesys.Config{Layers: []string{"one", "two", "three"}})
	r.NoError(err)

	a := types.NewModify(types.NewDecl("app", "Loop", kinds.Class, types.Public), "one")
	b := types.NewModify(a, "two")
	c := types.NewModify(b, "three")

	// a now modifies c
	*a = *types.NewModify(c, "one")
	r.NoError(sys.Define(c))

	r.Nil(sys.Supertypes(c))
	r.Empty(sys.GetMethods(c, "run", typesys.LookupOptions{}))
	r.True(sys.IsAssignableFrom(sys.Object(), c, assignment))

	err = sys.Diagnostics().Err()
	r.ErrorIs(err, typesys.ErrUnresolved)
	r.ErrorContains(err, typesys.ErrCircularModify.Error())
}
