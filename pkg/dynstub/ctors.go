package dynstub

import (
	"fmt"
	"strings"

	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

// buildConstructors lists the constructors compiled code can call. A type
// that declares none falls back to the superclass constructor named by an
// inherited @CompilerSettings(propagateConstructor = "..."), and without
// one to the default constructor.
func (b *Builder) buildConstructors(p *Params, decl types.Declared) {
	for _, layer := range layers(decl) {
		for _, ctor := range layer.Constructors() {
			p.Constructors = append(p.Constructors, b.constructor(ctor))
		}
	}

	if len(p.Constructors) > 0 {
		return
	}

	if ctor := b.propagatedConstructor(p.Type, decl); ctor != nil {
		c := b.constructor(ctor)
		c.Propagated = true
		p.Constructors = append(p.Constructors, c)
		return
	}

	for _, m := range p.DeclaredMethods() {
		if m.Constructor && m.Synthetic {
			p.Constructors = append(p.Constructors, &Constructor{Method: m.Method, Synthetic: true})
		}
	}
}

func (b *Builder) constructor(m *types.Method) *Constructor {
	c := &Constructor{Method: m}
	for _, param := range m.Params {
		c.Params = append(c.Params, b.resolved(param.Type, "parameter "+param.Name+" of "+m.String()))
	}

	return c
}

func (b *Builder) propagatedConstructor(t types.Type, decl types.Declared) *types.Method {
	a := b.sys.GetInheritedAnnotation(t, types.CompilerSettingsAnnotation.QualifiedName())
	if a == nil {
		return nil
	}

	settings, _ := types.CompilerSettingsOf([]*types.Annotation{a})
	if settings.PropagateConstructor == "" {
		return nil
	}

	super := decl.Superclass()
	if super == nil {
		return nil
	}

	params, err := parseTypeList(b.sys, settings.PropagateConstructor)
	if err != nil {
		b.report(fmt.Errorf("invalid propagateConstructor on %s: %w", types.ErasedName(t), err))
		return nil
	}

	ctor := b.sys.DeclaresConstructor(super, params...)
	if ctor == nil {
		b.report(typesys.UnresolvedError{
			What:    "propagated constructor",
			Name:    types.ErasedName(super) + "(" + settings.PropagateConstructor + ")",
			Context: types.ErasedName(t),
		})
	}

	return ctor
}

// parseTypeList parses a comma separated list of type names. Commas inside
// type arguments do not split.
func parseTypeList(s types.TypeScope, src string) ([]types.Type, error) {
	var out []types.Type
	depth, start := 0, 0
	for i := 0; i <= len(src); i++ {
		if i < len(src) {
			switch src[i] {
			case '<':
				depth++
				continue
			case '>':
				depth--
				continue
			case ',':
				if depth > 0 {
					continue
				}
			default:
				continue
			}
		}

		part := strings.TrimSpace(src[start:i])
		start = i + 1
		if part == "" {
			continue
		}

		t, err := types.ParseType(s, nil, part)
		if err != nil {
			return nil, err
		}

		out = append(out, t)
	}

	return out, nil
}

// buildInnerConstructors lists the constructors of non-static dynamic
// member types. Each takes the enclosing instance first.
func (b *Builder) buildInnerConstructors(p *Params, decl types.Declared) {
	for _, layer := range layers(decl) {
		for _, inner := range layer.Inner() {
			if !inner.IsInner() || !types.IsDynamic(inner) {
				continue
			}

			ctors := inner.Constructors()
			if len(ctors) == 0 {
				ctors = []*types.Method{{Name: inner.SimpleName(), Constructor: true, Mods: types.Public}}
			}

			for _, ctor := range ctors {
				c := b.constructor(ctor)
				c.Params = append([]types.Type{p.Type}, c.Params...)
				p.InnerConstructors = append(p.InnerConstructors, &InnerConstructor{
					Constructor: *c,
					Inner:       inner,
					Outer:       p.Type,
				})
			}
		}
	}
}
