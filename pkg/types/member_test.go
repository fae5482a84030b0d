package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
)

func TestPropertyAccessors(t *testing.T) {
	s := newScope()
	str := types.NewReference(s, "java.lang.String")

	tests := []struct {
		name   string
		member types.Member
		get    bool
		set    bool
		prop   string
		typ    types.Type
	}{
		{"field", &types.Field{Name: "count", Type: types.Int}, false, false, "count", types.Int},
		{"getter", &types.Method{Name: "getName", Return: str}, true, false, "name", str},
		{"boolean is", &types.Method{Name: "isVisible", Return: types.Boolean}, true, false, "visible", types.Boolean},
		{"non boolean is", &types.Method{Name: "isVisible", Return: types.Int}, false, false, "visible", types.Int},
		{"setter", &types.Method{Name: "setName", Params: []types.Param{{Name: "v", Type: str}}, Return: types.Void}, false, true, "name", str},
		{"void getter", &types.Method{Name: "getName", Return: types.Void}, false, false, "name", types.Void},
		{"lowercase suffix", &types.Method{Name: "getaway", Return: str}, false, false, "getaway", str},
		{"assignment", &types.PropertyAssignment{Name: "count", Operator: "=", Init: "3"}, false, false, "count", nil},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := require.New(t)

			r.Equal(test.get, types.IsGetMethod(test.member))
			r.Equal(test.set, types.IsSetMethod(test.member))
			r.Equal(test.prop, types.PropertyName(test.member))
			r.Equal(test.typ, types.PropertyType(test.member))
		})
	}
}

func TestSetMethodPropertyType(t *testing.T) {
	r := require.New(t)

	_, err := types.SetMethodPropertyType(&types.Method{Name: "setX"})
	r.ErrorIs(err, types.ErrIllegalArgument)

	typ, err := types.SetMethodPropertyType(&types.Method{Name: "setX", Params: []types.Param{{Name: "x", Type: types.Long}}})
	r.NoError(err)
	r.Equal(types.Long, typ)
}

func TestModifiers(t *testing.T) {
	r := require.New(t)

	m, ok := types.ParseModifier("protected")
	r.True(ok)
	r.Equal(types.AccessProtected, m.Access())
	r.Equal(types.AccessPackage, types.Modifiers(types.Static).Access())

	_, ok = types.ParseModifier("transient")
	r.False(ok)

	r.Equal("public abstract static", (types.Public | types.Static | types.Abstract | types.Varargs).String())
}

func TestModifyChain(t *testing.T) {
	r := require.New(t)
	s := newScope()

	base := types.NewDecl("a", "A", kinds.Class, types.Public).SetLayer("base")
	base.SetExtends(types.NewReference(s, "java.lang.Number"))
	base.Add(&types.Field{Name: "x", Type: types.Int})

	mod := types.NewModify(base, "ext")
	mod.Add(&types.Field{Name: "y", Type: types.Int})

	r.Equal("a.A", mod.QualifiedName())
	r.True(types.IsModify(mod))
	r.False(types.IsModify(base))
	r.Equal([]types.Declared{mod, base}, mod.Chain())
	r.False(mod.Cyclic())
	r.Equal(kinds.Class, mod.Kind())
	r.True(mod.Modifiers().Has(types.Public))
	r.Equal("java.lang.Number", mod.Superclass().QualifiedName())

	r.False(types.IsDynamic(mod))
	base.Dynamic = true
	r.True(types.IsDynamic(mod))
}

func TestCyclicModifyChainTerminates(t *testing.T) {
	r := require.New(t)

	a := types.NewModify(nil, "one")
	b := types.NewModify(a, "two")
	c := types.NewModify(b, "three")

	// close the loop: a modifies c
	*a = *types.NewModify(c, "one")

	r.True(c.Cyclic())
	r.Len(c.Chain(), 3)
	r.Nil(c.Superclass())
	r.Equal(kinds.Class, c.Kind())
}

func TestMethodSignature(t *testing.T) {
	r := require.New(t)
	s := newScope()

	v := types.NewTypeVariable("a.A", "T", types.NewReference(s, "java.lang.Number"))
	m1 := &types.Method{Name: "m", Params: []types.Param{{Name: "t", Type: v}, {Name: "xs", Type: types.NewArray(types.Int)}}}
	m2 := &types.Method{Name: "m", Params: []types.Param{{Name: "n", Type: types.NewReference(s, "java.lang.Number")}, {Name: "ys", Type: types.NewArray(types.Int)}}}
	m3 := &types.Method{Name: "m", Params: []types.Param{{Name: "n", Type: types.Long}, {Name: "ys", Type: types.NewArray(types.Int)}}}

	r.Equal("m(java.lang.Number,int[])", m1.Signature())
	r.True(m1.SameSignature(m2))
	r.False(m1.SameSignature(m3))
}

func TestAnnotations(t *testing.T) {
	r := require.New(t)

	marker := types.NewAnnotation("sc.bind.Bindable")
	r.Equal(types.MarkerForm, marker.Form())
	r.True(marker.Matches("Bindable"))
	r.True(marker.Matches("sc.bind.Bindable"))
	r.False(marker.Matches("com.other.Bindable"))
	r.NoError(marker.Validate())

	single := types.NewAnnotation("Named", types.NamedValue{Name: "value", Value: "x"})
	r.Equal(types.SingleForm, single.Form())

	settings := types.NewAnnotation("sc.bind.BindSettings",
		types.NamedValue{Name: "reverseMethod", Value: "setFoo"},
		types.NamedValue{Name: "reverseSlot", Value: 1},
	)
	r.Equal(types.ComplexForm, settings.Form())
	r.NoError(settings.Validate())

	bs, ok := types.BindSettingsOf([]*types.Annotation{marker, settings})
	r.True(ok)
	r.Equal("setFoo", bs.ReverseMethod)
	r.Equal(1, bs.ReverseSlot)

	bad := types.NewAnnotation("sc.bind.BindSettings", types.NamedValue{Name: "reverseSlot", Value: "one"})
	r.Error(bad.Validate())

	unknownAttr := types.NewAnnotation("sc.obj.CompilerSettings", types.NamedValue{Name: "nope", Value: true})
	r.Error(unknownAttr.Validate())

	clone := settings.Clone()
	clone.Set("reverseSlot", 2)
	v, _ := settings.Get("reverseSlot")
	r.Equal(1, v)

	cs, ok := types.CompilerSettingsOf([]*types.Annotation{
		types.NewAnnotation("CompilerSettings", types.NamedValue{Name: "propagateConstructor", Value: "int"}),
	})
	r.True(ok)
	r.Equal("int", cs.PropagateConstructor)
}
