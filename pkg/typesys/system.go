package typesys

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/rhino1998/strata/pkg/types"
)

type AmbiguityPolicy int

const (
	// AmbiguityError reports equally specific overloads as ErrAmbiguousCall.
	AmbiguityError AmbiguityPolicy = iota
	// AmbiguityFirst keeps the first accepted candidate.
	AmbiguityFirst
)

func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch s {
	case "", "error":
		return AmbiguityError, nil
	case "first":
		return AmbiguityFirst, nil
	default:
		return 0, fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

const DefaultMethodCacheSize = 512

type Config struct {
	// Layers lists layer names in build order. Source declarations in a
	// layer after ReferenceLayer are not visible.
	Layers []string

	// ReferenceLayer is the active layer. Empty means the last layer.
	ReferenceLayer string

	MethodCacheSize int

	Ambiguity AmbiguityPolicy
}

func (c *Config) Validate(logger *slog.Logger) error {
	if c.MethodCacheSize < 0 {
		return fmt.Errorf("method cache size must not be negative: %d", c.MethodCacheSize)
	}

	seen := make(map[string]struct{}, len(c.Layers))
	for _, layer := range c.Layers {
		if _, ok := seen[layer]; ok {
			return fmt.Errorf("duplicate layer %q", layer)
		}

		seen[layer] = struct{}{}
	}

	if c.ReferenceLayer != "" {
		if _, ok := seen[c.ReferenceLayer]; !ok {
			return fmt.Errorf("reference layer %q is not a configured layer", c.ReferenceLayer)
		}
	}

	if len(c.Layers) == 0 {
		logger.Debug("no layers configured; all source declarations are visible")
	}

	return nil
}

func (c *Config) setDefaults() {
	if c.MethodCacheSize == 0 {
		c.MethodCacheSize = DefaultMethodCacheSize
	}
}

// System is one layered type system: the registry of every loaded type
// plus the caches built over it. A System is confined to the goroutine
// running its build; separate systems share nothing.
type System struct {
	logger *slog.Logger
	Config Config

	id     uuid.UUID
	loader *types.Loader

	compiled map[string]types.Declared
	sources  map[string][]*types.Decl

	diags   *Diagnostics
	methods *lru.Cache
}

func New(logger *slog.Logger, config Config) (*System, error) {
	err := config.Validate(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to validate type system config: %w", err)
	}

	config.setDefaults()

	methods, err := lru.New(config.MethodCacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create method cache: %w", err)
	}

	id := uuid.New()
	logger = logger.With(slog.String("system", id.String()))

	s := &System{
		logger:   logger,
		Config:   config,
		id:       id,
		loader:   types.NewLoader(0),
		compiled: make(map[string]types.Declared),
		sources:  make(map[string][]*types.Decl),
		diags:    newDiagnostics(logger),
		methods:  methods,
	}

	s.defineBuiltins()

	return s, nil
}

func (s *System) ID() uuid.UUID             { return s.id }
func (s *System) Logger() *slog.Logger      { return s.logger }
func (s *System) Diagnostics() *Diagnostics { return s.diags }
func (s *System) Loader() *types.Loader     { return s.loader }

// Define registers a type. Compiled handles replace a previous handle of
// the same name only if that handle's loader has been deactivated. Source
// declarations stack per name in layer order.
func (s *System) Define(t types.Type) error {
	switch t := t.(type) {
	case *types.Class:
		return s.defineCompiled(t)
	case *types.ClassFile:
		return s.defineCompiled(t)
	case *types.Decl:
		s.defineSource(t)
		return nil
	default:
		return fmt.Errorf("cannot define %T %s", t, t)
	}
}

func (s *System) defineCompiled(t types.Declared) error {
	name := t.QualifiedName()
	if prev, ok := s.compiled[name]; ok {
		prevClass, ok := prev.(*types.Class)
		if !ok || prevClass.Loader().Active() {
			return fmt.Errorf("type %s is already defined", name)
		}
	}

	s.compiled[name] = t
	s.methods.Purge()
	return nil
}

func (s *System) defineSource(d *types.Decl) {
	name := d.QualifiedName()
	decls := append(s.sources[name], d)
	slices.SortStableFunc(decls, func(a, b *types.Decl) int {
		return s.layerIndex(a.Layer()) - s.layerIndex(b.Layer())
	})

	s.sources[name] = decls
	s.methods.Purge()

	for _, inner := range d.Inner() {
		s.defineSource(inner)
	}
}

func (s *System) layerIndex(layer string) int {
	if layer == "" {
		return -1
	}

	i := slices.Index(s.Config.Layers, layer)
	if i < 0 {
		return len(s.Config.Layers)
	}

	return i
}

func (s *System) referenceIndex() int {
	if s.Config.ReferenceLayer == "" {
		return len(s.Config.Layers)
	}

	return s.layerIndex(s.Config.ReferenceLayer)
}

// SourceOverride returns the most specific source declaration of name that
// is visible from the reference layer.
func (s *System) SourceOverride(name string) *types.Decl {
	decls := s.sources[name]
	ref := s.referenceIndex()
	for i := len(decls) - 1; i >= 0; i-- {
		if s.layerIndex(decls[i].Layer()) <= ref {
			return decls[i]
		}
	}

	return nil
}

// SourceDecls returns every source declaration of name in layer order.
func (s *System) SourceDecls(name string) []*types.Decl {
	return s.sources[name]
}

func (s *System) Compiled(name string) (types.Declared, bool) {
	t, ok := s.compiled[name]
	return t, ok
}

// ResolveType looks a name up, preferring the visible source declaration
// over the compiled type. Unqualified names fall back to java.lang.
func (s *System) ResolveType(name string) (types.Type, bool) {
	if d := s.SourceOverride(name); d != nil {
		return d, true
	}

	if t, ok := s.compiled[name]; ok {
		return t, true
	}

	if !strings.Contains(name, ".") {
		return s.ResolveType("java.lang." + name)
	}

	return nil, false
}

// MustResolve resolves a built-in or previously defined type and panics if
// it is missing.
func (s *System) MustResolve(name string) types.Type {
	t, ok := s.ResolveType(name)
	if !ok {
		panic(fmt.Sprintf("bug: type %s is not defined", name))
	}

	return t
}

// Ref returns a by-name handle resolved through this system.
func (s *System) Ref(name string) types.Type {
	return types.NewReference(s, name)
}

func (s *System) Object() types.Type { return s.MustResolve(types.ObjectName) }

// Types returns every visible type name, compiled and source.
func (s *System) Types() []types.Type {
	var names []string
	for name := range s.compiled {
		names = append(names, name)
	}

	for name := range s.sources {
		if _, ok := s.compiled[name]; !ok && s.SourceOverride(name) != nil {
			names = append(names, name)
		}
	}

	slices.Sort(names)

	ts := make([]types.Type, 0, len(names))
	for _, name := range names {
		t, _ := s.ResolveType(name)
		ts = append(ts, t)
	}

	return ts
}

// BeginReload deactivates the current loader and returns a new generation
// for the reloaded compiled classes. Handles from the old loader become
// stale and are refreshed by name on comparison.
func (s *System) BeginReload() *types.Loader {
	s.loader.Deactivate()
	s.loader = types.NewLoader(s.loader.Generation() + 1)
	s.methods.Purge()

	s.logger.Debug("reloading compiled types", slog.Int("generation", s.loader.Generation()))

	return s.loader
}

// Refresh replaces a stale compiled handle with the one registered under
// the same name. Anything else is returned unchanged.
func (s *System) Refresh(t types.Type) types.Type {
	c, ok := types.Dereference(t).(*types.Class)
	if !ok || c.Loader().Active() {
		return t
	}

	cur, ok := s.compiled[c.QualifiedName()]
	if !ok {
		return t
	}

	return cur
}
