package typesys_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

func TestCoerceTypes(t *testing.T) {
	sys := loadGraph(t)

	tests := []struct {
		left  string
		right string
		want  string
	}{
		{"int", "long", "long"},
		{"byte", "short", "int"},
		{"char", "char", "char"},
		{"int", "java.lang.Integer", "int"},
		{"java.lang.Integer", "java.lang.Long", "long"},
		{"float", "long", "float"},
		{"java.lang.Number", "int", "java.lang.Number"},
		{"boolean", "java.lang.Boolean", "boolean"},
		{"boolean", "app.Base", "java.lang.Object"},
		{"java.lang.String", "java.lang.String", "java.lang.String"},
		{"app.Sub1", "app.Sub2", "app.Base"},
		{"app.Sub1", "app.Base", "app.Base"},
		{"app.Circle", "app.Square", "app.Shape"},
		{"java.util.ArrayList<java.lang.Integer>", "java.util.ArrayList<java.lang.Long>", "java.util.ArrayList<? extends java.lang.Number>"},
		{"java.util.ArrayList<java.lang.String>", "java.util.ArrayList<java.lang.String>", "java.util.ArrayList<java.lang.String>"},
	}

	for _, test := range tests {
		t.Run(test.left+","+test.right, func(t *testing.T) {
			r := require.New(t)

			got, err := sys.CoerceTypes(parse(t, sys, test.left), parse(t, sys, test.right))
			r.NoError(err)
			r.Equal(test.want, got.String())
		})
	}
}

func TestCoerceTypesNullAndVoid(t *testing.T) {
	r := require.New(t)
	sys := loadGraph(t)

	got, err := sys.CoerceTypes(types.Null, types.Int)
	r.NoError(err)
	r.Equal("java.lang.Integer", got.QualifiedName())

	got, err = sys.CoerceTypes(parse(t, sys, "java.lang.String"), types.Null)
	r.NoError(err)
	r.Equal(types.StringName, got.QualifiedName())

	got, err = sys.CoerceTypes(nil, types.Long)
	r.NoError(err)
	r.Equal(types.Long, got)

	got, err = sys.CoerceTypes(types.Void, types.Void)
	r.NoError(err)
	r.Equal(types.Void, got)

	_, err = sys.CoerceTypes(types.Void, types.Int)
	r.ErrorIs(err, typesys.ErrIncompatibleTypes)

	_, err = sys.CoerceTypes(types.Boolean, types.Int)
	r.ErrorIs(err, typesys.ErrIncompatibleTypes)
}

func TestFindCommonSuperClass(t *testing.T) {
	sys := loadGraph(t)

	tests := []struct {
		left  string
		right string
		want  string
	}{
		{"java.lang.Integer", "java.lang.Long", "java.lang.Number"},
		{"java.lang.Integer[]", "java.lang.Long[]", "java.lang.Number[]"},
		{"int[]", "int[]", "int[]"},
		{"int[]", "long[]", "java.lang.Object"},
		{"int[]", "java.lang.String", "java.lang.Object"},
		{"app.Sub1", "app.Sub2", "app.Base"},
		{"app.Circle", "app.Square", "app.Shape"},
		{"app.Circle", "app.Sub1", "java.lang.Object"},
		{"java.util.ArrayList<java.lang.String>", "java.util.List<java.lang.String>", "java.util.List<java.lang.String>"},
	}

	for _, test := range tests {
		t.Run(test.left+","+test.right, func(t *testing.T) {
			r := require.New(t)

			got := sys.FindCommonSuperClass(parse(t, sys, test.left), parse(t, sys, test.right))
			r.Equal(test.want, got.String())
		})
	}
}
