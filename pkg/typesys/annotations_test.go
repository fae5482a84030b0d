package typesys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

func names(a *types.Annotation) []string {
	var out []string
	for _, v := range a.Values {
		out = append(out, v.Name)
	}

	return out
}

func TestMergeAnnotationsIsNonDestructive(t *testing.T) {
	r := require.New(t)

	main := types.NewAnnotation("sc.bind.BindSettings",
		types.NamedValue{Name: "reverseMethod", Value: "setA"},
		types.NamedValue{Name: "reverseSlot", Value: 1},
	)
	override := types.NewAnnotation("sc.bind.BindSettings",
		types.NamedValue{Name: "reverseSlot", Value: 2},
		types.NamedValue{Name: "forwardSlot", Value: 3},
	)

	merged := typesys.MergeAnnotations(main, override, false)
	r.Equal([]string{"reverseMethod", "reverseSlot", "forwardSlot"}, names(merged))

	v, _ := merged.Get("reverseMethod")
	r.Equal("setA", v)
	v, _ = merged.Get("reverseSlot")
	r.Equal(1, v)
	v, _ = merged.Get("forwardSlot")
	r.Equal(3, v)

	r.Equal([]string{"reverseMethod", "reverseSlot"}, names(main))
	r.Equal([]string{"reverseSlot", "forwardSlot"}, names(override))

	replaced := typesys.MergeAnnotations(main, override, true)
	v, _ = replaced.Get("reverseSlot")
	r.Equal(2, v)
	v, _ = main.Get("reverseSlot")
	r.Equal(1, v)
}

func TestMergeAnnotationForms(t *testing.T) {
	r := require.New(t)

	single := types.NewAnnotation("app.Styled", types.NamedValue{Name: "value", Value: "dark"})
	other := types.NewAnnotation("app.Styled", types.NamedValue{Name: "value", Value: "light"})
	marker := types.NewAnnotation("app.Styled")

	v, _ := typesys.MergeAnnotations(single, other, false).Get("value")
	r.Equal("dark", v)
	v, _ = typesys.MergeAnnotations(single, other, true).Get("value")
	r.Equal("light", v)
	v, _ = typesys.MergeAnnotations(marker, other, false).Get("value")
	r.Equal("light", v)

	r.Equal(single.Values, typesys.MergeAnnotations(single, marker, true).Values)
	r.NotSame(single, typesys.MergeAnnotations(single, nil, false))
	r.Nil(typesys.MergeAnnotations(nil, nil, false))
}

func TestInheritedAnnotations(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	widget, ok := sys.Compiled("lib.Widget")
	r.True(ok)
	button := sys.MustResolve("app.Button")

	styled := sys.GetAnnotation(widget, "app.Styled")
	r.NotNil(styled, "source declarations layer metadata onto compiled types")
	v, _ := styled.Get("value")
	r.Equal("dark", v)

	r.NotNil(sys.GetAnnotation(widget, "CompilerSettings"))
	r.Nil(sys.GetAnnotation(button, "app.Styled"))
	r.NotNil(sys.GetAnnotation(button, "app.Themed"))

	settings := sys.GetInheritedAnnotation(button, types.CompilerSettingsAnnotation.QualifiedName())
	r.NotNil(settings)
	cs, ok := types.CompilerSettingsOf([]*types.Annotation{settings})
	r.True(ok)
	r.True(cs.LiveDynamicTypes)

	r.Len(sys.GetAllInheritedAnnotations(button, "app.Styled"), 1)
	r.Empty(sys.GetAllInheritedAnnotations(button, "app.Missing"))
	r.Nil(sys.GetInheritedAnnotation(sys.MustResolve("app.Foo"), "app.Styled"))
}

func TestBindSettingsAndReverseMethod(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)
	button := sys.MustResolve("app.Button")

	getter := sys.DefinesMethod(button, "getLabel")
	r.NotNil(getter)
	r.Equal("app.Button", getter.Owner().QualifiedName())

	settings, ok := sys.BindSettings(button, getter)
	r.True(ok, "settings are inherited from the overridden compiled method")
	r.Equal("setLabel", settings.ReverseMethod)

	reverse := sys.ReverseMethod(button, getter)
	r.NotNil(reverse)
	r.Equal("setLabel(java.lang.String)", reverse.Signature())

	setter := sys.DefinesMethod(button, "setLabel", parse(t, sys, "java.lang.String"))
	r.Nil(sys.ReverseMethod(button, setter))
}

func TestIsBindable(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)
	button := sys.MustResolve("app.Button")

	pressed := sys.DefinesMember(button, "pressed", typesys.FieldMember)
	r.NotNil(pressed)
	r.True(sys.IsBindable(button, pressed))

	caption := sys.DefinesMember(button, "caption", typesys.FieldMember)
	r.NotNil(caption)
	r.True(sys.IsBindable(button, caption), "registered through makeBindable")

	label := sys.DefinesMember(button, "label", typesys.GetMember)
	r.NotNil(label)
	r.False(sys.IsBindable(button, label))
}
