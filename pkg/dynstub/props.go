package dynstub

import (
	"slices"

	"github.com/rhino1998/strata/pkg/types"
)

// buildProps fills p.Props: the superclass table with redeclared names
// replaced in place, then this type's new properties appended.
func (b *Builder) buildProps(p *Params, decl types.Declared, deps ReverseDeps) {
	var table []*Prop
	if p.Super != nil {
		for _, sp := range p.Super.Props {
			cp := *sp
			cp.Inherited = true
			cp.Overridden = false
			table = append(table, &cp)
		}
	}

	next := p.Super.NextPropIndex()
	for _, dp := range b.declaredProps(p.Type, decl, deps) {
		i := slices.IndexFunc(table, func(e *Prop) bool { return e.Name == dp.Name })
		if i >= 0 {
			dp.Index = table[i].Index
			dp.Overridden = true
			if dp.Type == nil {
				dp.Type = table[i].Type
			}

			table[i] = dp
			continue
		}

		dp.Index = next
		next++
		table = append(table, dp)
	}

	for _, prop := range table {
		if prop.Type == nil {
			prop.Type = b.resolved(nil, "property "+prop.Name)
		}
	}

	p.Props = table
}

// declaredProps lists the properties this type's own layers expose, in
// declaration order. A property needs an entry when one of its members is
// flagged for dynamic access, is annotated @Bindable, is registered to be
// made bindable or is a reverse dependency.
func (b *Builder) declaredProps(t types.Type, decl types.Declared, deps ReverseDeps) []*Prop {
	var makeBindable []string
	for _, layer := range layers(decl) {
		makeBindable = append(makeBindable, layer.MakeBindable...)
	}

	bindable := types.BindableAnnotation.QualifiedName()

	var props []*Prop
	byName := make(map[string]*Prop)
	for _, layer := range layers(decl) {
		for _, m := range layer.Members() {
			if meth, ok := m.(*types.Method); ok && !types.IsGetMethod(meth) && !types.IsSetMethod(meth) {
				continue
			}

			name := types.PropertyName(m)
			needed := types.NeedsDynAccess(m) ||
				types.FindAnnotation(m.Annotations(), bindable) != nil ||
				slices.Contains(makeBindable, name) ||
				slices.Contains(deps.Props, name)
			if !needed {
				continue
			}

			prop, ok := byName[name]
			if !ok {
				prop = &Prop{Name: name, Owner: t}
				byName[name] = prop
				props = append(props, prop)
			}

			b.addMember(t, prop, m)
		}
	}

	return props
}

func (b *Builder) addMember(t types.Type, prop *Prop, m types.Member) {
	switch m := m.(type) {
	case *types.Method:
		if types.IsGetMethod(m) {
			prop.getter = m
		} else {
			prop.setter = m
		}

		if prop.Member == nil || types.IsPropertyAssignment(prop.Member) {
			prop.Member = m
		}
	default:
		prop.Member = m
	}

	prop.Static = prop.Static || m.Modifiers().Has(types.Static)
	prop.Bindable = prop.Bindable || b.sys.IsBindable(t, m)

	if prop.Type == nil {
		if pt := b.sys.PropertyType(m); pt != nil {
			prop.Type = b.resolved(pt, "property "+prop.Name)
		}
	}
}
