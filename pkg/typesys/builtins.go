package typesys

import (
	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
)

type builtin struct {
	pkg    string
	name   string
	kind   kinds.Kind
	mods   types.Modifiers
	params []string
	super  string
	ifaces []string
}

var builtins = []builtin{
	{pkg: "java.lang", name: "Object", kind: kinds.Class, mods: types.Public},
	{pkg: "java.lang", name: "CharSequence", kind: kinds.Interface, mods: types.Public | types.Abstract},
	{pkg: "java.lang", name: "Comparable", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"T"}},
	{pkg: "java.io", name: "Serializable", kind: kinds.Interface, mods: types.Public | types.Abstract},
	{pkg: "java.lang", name: "Cloneable", kind: kinds.Interface, mods: types.Public | types.Abstract},
	{pkg: "java.lang", name: "Runnable", kind: kinds.Interface, mods: types.Public | types.Abstract},
	{pkg: "java.lang", name: "String", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Object", ifaces: []string{"java.lang.CharSequence", "java.lang.Comparable<java.lang.String>", "java.io.Serializable"}},
	{pkg: "java.lang", name: "Number", kind: kinds.Class, mods: types.Public | types.Abstract, super: "java.lang.Object", ifaces: []string{"java.io.Serializable"}},
	{pkg: "java.lang", name: "Boolean", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Object", ifaces: []string{"java.lang.Comparable<java.lang.Boolean>", "java.io.Serializable"}},
	{pkg: "java.lang", name: "Character", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Object", ifaces: []string{"java.lang.Comparable<java.lang.Character>", "java.io.Serializable"}},
	{pkg: "java.lang", name: "Byte", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Byte>"}},
	{pkg: "java.lang", name: "Short", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Short>"}},
	{pkg: "java.lang", name: "Integer", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Integer>"}},
	{pkg: "java.lang", name: "Long", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Long>"}},
	{pkg: "java.lang", name: "Float", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Float>"}},
	{pkg: "java.lang", name: "Double", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Number", ifaces: []string{"java.lang.Comparable<java.lang.Double>"}},
	{pkg: "java.lang", name: "Void", kind: kinds.Class, mods: types.Public | types.Final, super: "java.lang.Object"},
	{pkg: "java.lang", name: "Enum", kind: kinds.Class, mods: types.Public | types.Abstract, params: []string{"E"}, super: "java.lang.Object", ifaces: []string{"java.lang.Comparable<E>", "java.io.Serializable"}},
	{pkg: "java.lang.annotation", name: "Annotation", kind: kinds.Interface, mods: types.Public | types.Abstract},
	{pkg: "java.lang", name: "Throwable", kind: kinds.Class, mods: types.Public, super: "java.lang.Object", ifaces: []string{"java.io.Serializable"}},
	{pkg: "java.lang", name: "Exception", kind: kinds.Class, mods: types.Public, super: "java.lang.Throwable"},
	{pkg: "java.lang", name: "RuntimeException", kind: kinds.Class, mods: types.Public, super: "java.lang.Exception"},
	{pkg: "java.lang", name: "Iterable", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"T"}},
	{pkg: "java.util", name: "Collection", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"E"}, ifaces: []string{"java.lang.Iterable<E>"}},
	{pkg: "java.util", name: "List", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"E"}, ifaces: []string{"java.util.Collection<E>"}},
	{pkg: "java.util", name: "AbstractList", kind: kinds.Class, mods: types.Public | types.Abstract, params: []string{"E"}, super: "java.lang.Object", ifaces: []string{"java.util.List<E>"}},
	{pkg: "java.util", name: "ArrayList", kind: kinds.Class, mods: types.Public, params: []string{"E"}, super: "java.util.AbstractList<E>", ifaces: []string{"java.util.List<E>", "java.lang.Cloneable", "java.io.Serializable"}},
	{pkg: "java.util", name: "Map", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"K", "V"}},
	{pkg: "java.util", name: "HashMap", kind: kinds.Class, mods: types.Public, params: []string{"K", "V"}, super: "java.lang.Object", ifaces: []string{"java.util.Map<K,V>", "java.lang.Cloneable", "java.io.Serializable"}},
	{pkg: "java.util.function", name: "Function", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"T", "R"}},
	{pkg: "java.util.function", name: "Supplier", kind: kinds.Interface, mods: types.Public | types.Abstract, params: []string{"T"}},
}

// defineBuiltins registers the platform classes every type graph may refer
// to. Supertypes are parsed against the class's own type parameters so
// ArrayList<E> implements List<E> with the same E.
func (s *System) defineBuiltins() {
	classes := make([]*types.Class, 0, len(builtins))
	for _, b := range builtins {
		c := types.NewClass(s.loader, b.pkg, b.name, b.kind, b.mods).WithTypeParams(b.params...)
		classes = append(classes, c)
		s.compiled[c.QualifiedName()] = c
	}

	for i, b := range builtins {
		c := classes[i]
		if b.super != "" {
			c.SetSuper(s.mustParse(c, b.super))
		}

		for _, iface := range b.ifaces {
			c.Implement(s.mustParse(c, iface))
		}
	}

	s.defineBuiltinMembers()
}

func (s *System) mustParse(c *types.Class, src string) types.Type {
	t, err := types.ParseType(s, c.TypeParam, src)
	if err != nil {
		panic(err)
	}

	return t
}

func (s *System) defineBuiltinMembers() {
	object := s.compiled[types.ObjectName].(*types.Class)
	object.
		AddMethod(&types.Method{Name: "Object", Constructor: true, Mods: types.Public}).
		AddMethod(&types.Method{Name: "toString", Return: s.Ref(types.StringName), Mods: types.Public}).
		AddMethod(&types.Method{Name: "hashCode", Return: types.Int, Mods: types.Public | types.Native}).
		AddMethod(&types.Method{Name: "equals", Params: []types.Param{{Name: "obj", Type: s.Ref(types.ObjectName)}}, Return: types.Boolean, Mods: types.Public})

	str := s.compiled[types.StringName].(*types.Class)
	str.
		AddMethod(&types.Method{Name: "String", Constructor: true, Mods: types.Public}).
		AddMethod(&types.Method{Name: "length", Return: types.Int, Mods: types.Public}).
		AddMethod(&types.Method{Name: "valueOf", Params: []types.Param{{Name: "i", Type: types.Int}}, Return: s.Ref(types.StringName), Mods: types.Public | types.Static}).
		AddMethod(&types.Method{Name: "valueOf", Params: []types.Param{{Name: "l", Type: types.Long}}, Return: s.Ref(types.StringName), Mods: types.Public | types.Static}).
		AddMethod(&types.Method{Name: "valueOf", Params: []types.Param{{Name: "obj", Type: s.Ref(types.ObjectName)}}, Return: s.Ref(types.StringName), Mods: types.Public | types.Static}).
		AddMethod(&types.Method{
			Name:    "format",
			Params:  []types.Param{{Name: "format", Type: s.Ref(types.StringName)}, {Name: "args", Type: types.NewArray(s.Ref(types.ObjectName))}},
			Varargs: true,
			Return:  s.Ref(types.StringName),
			Mods:    types.Public | types.Static,
		})

	list := s.compiled["java.util.List"].(*types.Class)
	e := list.TypeParam("E")
	list.
		AddMethod(&types.Method{Name: "get", Params: []types.Param{{Name: "index", Type: types.Int}}, Return: e, Mods: types.Public | types.Abstract}).
		AddMethod(&types.Method{Name: "add", Params: []types.Param{{Name: "e", Type: e}}, Return: types.Boolean, Mods: types.Public | types.Abstract}).
		AddMethod(&types.Method{Name: "size", Return: types.Int, Mods: types.Public | types.Abstract})

	arrayList := s.compiled["java.util.ArrayList"].(*types.Class)
	ae := arrayList.TypeParam("E")
	arrayList.
		AddMethod(&types.Method{Name: "ArrayList", Constructor: true, Mods: types.Public}).
		AddMethod(&types.Method{Name: "get", Params: []types.Param{{Name: "index", Type: types.Int}}, Return: ae, Mods: types.Public}).
		AddMethod(&types.Method{Name: "add", Params: []types.Param{{Name: "e", Type: ae}}, Return: types.Boolean, Mods: types.Public}).
		AddMethod(&types.Method{Name: "size", Return: types.Int, Mods: types.Public})

	fn := s.compiled["java.util.function.Function"].(*types.Class)
	fn.AddMethod(&types.Method{Name: "apply", Params: []types.Param{{Name: "t", Type: fn.TypeParam("T")}}, Return: fn.TypeParam("R"), Mods: types.Public | types.Abstract})

	supplier := s.compiled["java.util.function.Supplier"].(*types.Class)
	supplier.AddMethod(&types.Method{Name: "get", Return: supplier.TypeParam("T"), Mods: types.Public | types.Abstract})

	runnable := s.compiled["java.lang.Runnable"].(*types.Class)
	runnable.AddMethod(&types.Method{Name: "run", Return: types.Void, Mods: types.Public | types.Abstract})
}
