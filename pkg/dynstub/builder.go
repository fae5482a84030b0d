package dynstub

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/hashicorp/go-set/v3"

	"github.com/rhino1998/strata/pkg/topological"
	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

// ReverseDeps names properties and methods that became reachable from
// compiled code through bindings declared on other types.
type ReverseDeps struct {
	Props   []string
	Methods []string
}

// Builder computes and caches bridge shapes for one type system. It is not
// safe for concurrent use; each system gets its own builder.
type Builder struct {
	logger *slog.Logger
	sys    *typesys.System

	cache  map[string]*Params
	active *set.Set[string]
}

func NewBuilder(logger *slog.Logger, sys *typesys.System) *Builder {
	return &Builder{
		logger: logger.With(slog.String("component", "dynstub")),
		sys:    sys,
		cache:  make(map[string]*Params),
		active: set.New[string](8),
	}
}

// Params returns the shape of t, computing it on first use.
func (b *Builder) Params(t types.Type) *Params {
	name := types.ErasedName(t)
	if p, ok := b.cache[name]; ok {
		b.logger.Debug("stub shape cache hit", slog.String("type", name))
		return p
	}

	p := b.build(t, ReverseDeps{})
	b.cache[name] = p
	return p
}

// ParamsForReverseDeps computes a shape of t that also exposes the given
// reverse dependencies. The result is not cached.
func (b *Builder) ParamsForReverseDeps(t types.Type, deps ReverseDeps) *Params {
	return b.build(t, deps)
}

// BuildAll computes the shapes of ts with every supertype before its
// subtypes.
func (b *Builder) BuildAll(ts []types.Type) ([]*Params, error) {
	ordered, err := topological.SortFunc(ts, types.ErasedName, b.sys.Supertypes)
	if err != nil {
		return nil, fmt.Errorf("failed to order types: %w", err)
	}

	params := make([]*Params, 0, len(ordered))
	for _, t := range ordered {
		params = append(params, b.Params(t))
	}

	return params, nil
}

// Invalidate drops every cached shape so the next build pass recomputes
// them.
func (b *Builder) Invalidate() {
	clear(b.cache)
}

func (b *Builder) report(err error) {
	b.sys.Diagnostics().Report(err)
}

func (b *Builder) build(t types.Type, deps ReverseDeps) *Params {
	name := types.ErasedName(t)
	p := &Params{Type: t}

	if !b.active.Insert(name) {
		b.report(fmt.Errorf("stub shape of %s depends on itself", name))
		return p
	}
	defer b.active.Remove(name)

	decl := b.sys.TypeDeclOf(t)
	if decl == nil {
		return p
	}

	b.logger.Debug("building stub shape", slog.String("type", name))

	p.Super = b.superParams(decl)
	b.buildProps(p, decl, deps)
	b.buildMethods(p, decl, deps)
	b.buildConstructors(p, decl)
	b.buildInnerConstructors(p, decl)

	return p
}

// superParams returns the shape of decl's superclass when that superclass
// is itself declared in source.
func (b *Builder) superParams(decl types.Declared) *Params {
	super := decl.Superclass()
	if super == nil {
		return nil
	}

	if _, ok := b.sys.TypeDeclOf(super).(*types.Decl); !ok {
		return nil
	}

	return b.Params(super)
}

// layers returns the source layers of decl from the base declaration up to
// the most specific modify declaration.
func layers(decl types.Declared) []*types.Decl {
	d, ok := decl.(*types.Decl)
	if !ok {
		return nil
	}

	var out []*types.Decl
	for _, cd := range d.Chain() {
		if md, ok := cd.(*types.Decl); ok {
			out = append(out, md)
		}
	}

	slices.Reverse(out)
	return out
}

// resolved replaces a type that cannot be resolved with Object.
func (b *Builder) resolved(t types.Type, context string) types.Type {
	if !b.check(t, context) {
		return b.sys.Object()
	}

	return t
}

// check reports every unresolved reference in t.
func (b *Builder) check(t types.Type, context string) bool {
	if t == nil {
		b.report(typesys.UnresolvedError{What: "type", Name: "<missing>", Context: context})
		return false
	}

	ok := true
	types.Walk(t, func(t types.Type) {
		if ref, isRef := t.(*types.Reference); isRef {
			if _, found := ref.Dereference(); !found {
				b.report(typesys.UnresolvedError{What: "type", Name: ref.QualifiedName(), Context: context})
				ok = false
			}
		}
	})

	return ok
}
