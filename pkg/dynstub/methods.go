package dynstub

import (
	"slices"

	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

// buildMethods fills p.Methods. Superclass entries other than constructors
// are kept at their positions, entries with a redeclared signature are
// replaced in place and new entries are appended.
func (b *Builder) buildMethods(p *Params, decl types.Declared, deps ReverseDeps) {
	var table []*Method
	copies := make(map[*Method]*Method)
	if p.Super != nil {
		for _, sm := range p.Super.Methods {
			if sm.Constructor {
				continue
			}

			cp := *sm
			cp.Inherited = true
			cp.Overridden = false
			copies[sm] = &cp
			table = append(table, &cp)
		}

		for _, m := range table {
			m.Reverse = copies[m.Reverse]
			m.Forward = copies[m.Forward]
		}
	}

	next := p.Super.NextMethodIndex()
	for _, dm := range b.declaredMethods(p.Type, decl, deps) {
		if !dm.Constructor {
			dm.NeedsSuper = b.needsSuper(p, decl, dm)
		}

		i := slices.IndexFunc(table, func(e *Method) bool { return e.Signature() == dm.Signature() })
		if i >= 0 {
			dm.Index = table[i].Index
			dm.Overridden = true
			table[i] = dm
			continue
		}

		dm.Index = next
		next++
		table = append(table, dm)
	}

	p.Methods = table
}

// declaredMethods collects this type's own entries in two passes. The first
// takes static methods and constructors, instance methods flagged for
// dynamic access or named as reverse dependencies, registered dyn-invoke
// methods and, without an explicit constructor, a default constructor. The
// second adds the reverse method of every bidirectional binding method
// found in the first and links the two.
func (b *Builder) declaredMethods(t types.Type, decl types.Declared, deps ReverseDeps) []*Method {
	var entries []*Method
	add := func(m *Method) *Method {
		for _, e := range entries {
			if e.Signature() == m.Signature() {
				return e
			}
		}

		entries = append(entries, m)
		return m
	}

	hasCtor := false
	var dynInvoke []string
	for _, layer := range layers(decl) {
		dynInvoke = append(dynInvoke, layer.DynInvoke...)

		for _, m := range layer.Members() {
			meth, ok := m.(*types.Method)
			if !ok {
				continue
			}

			switch {
			case meth.Constructor:
				hasCtor = true
				add(b.entry(t, meth, true))
			case meth.IsStatic():
				add(b.entry(t, meth, false))
			case meth.DynAccess || slices.Contains(deps.Methods, meth.Name):
				add(b.entry(t, meth, false))
			}
		}
	}

	for _, name := range dynInvoke {
		found := false
		for _, m := range b.sys.GetMethods(t, name, typesys.LookupOptions{}) {
			if isOwnMethod(decl, m) {
				continue
			}

			e := b.entry(t, m, false)
			e.DynInvoke = true
			add(e)
			found = true
		}

		if !found {
			b.report(typesys.UnresolvedError{What: "dyn invoke method", Name: name, Context: types.ErasedName(t)})
		}
	}

	if !hasCtor && !types.IsInterface(decl) {
		ctor := &types.Method{Name: decl.SimpleName(), Constructor: true, Mods: types.Public}
		add(&Method{
			Name:        ctor.Name,
			Method:      ctor,
			Owner:       t,
			Static:      true,
			Constructor: true,
			Synthetic:   true,
		})
	}

	for _, forward := range slices.Clone(entries) {
		if forward.Constructor || forward.Method == nil {
			continue
		}

		rev := b.sys.ReverseMethod(t, forward.Method)
		if rev == nil {
			continue
		}

		reverse := add(b.entry(t, rev, false))
		forward.Reverse = reverse
		reverse.Forward = forward
	}

	return entries
}

func (b *Builder) entry(t types.Type, m *types.Method, ctor bool) *Method {
	owner := m.Owner()
	if owner == nil {
		owner = t
	}

	for _, p := range m.Params {
		b.check(p.Type, "parameter "+p.Name+" of "+m.String())
	}

	if m.Return != nil {
		b.check(m.Return, "return type of "+m.String())
	}

	return &Method{
		Name:        m.Name,
		Method:      m,
		Owner:       owner,
		Static:      ctor || m.IsStatic(),
		Constructor: ctor,
	}
}

func isOwnMethod(decl types.Declared, m *types.Method) bool {
	for _, layer := range layers(decl) {
		if m.Owner() == types.Type(layer) {
			return true
		}
	}

	return false
}

// needsSuper reports whether the bridge for dm must call the ancestor
// implementation: dm overrides a concrete, non-private ancestor method that
// no intermediate bridge already exposes.
func (b *Builder) needsSuper(p *Params, decl types.Declared, dm *Method) bool {
	if dm.Static || dm.Method == nil {
		return false
	}

	super := decl.Superclass()
	if super == nil {
		return false
	}

	for _, m := range b.sys.GetMethods(super, dm.Name, typesys.LookupOptions{}) {
		if !m.SameSignature(dm.Method) || m.IsAbstract() || m.Modifiers().Has(types.Private) {
			continue
		}

		if p.Super != nil && p.Super.Method(dm.Signature()) != nil {
			return false
		}

		return true
	}

	return false
}
