package typesys

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/rhino1998/strata/pkg/kinds"
	"github.com/rhino1998/strata/pkg/types"
)

type LookupOptions struct {
	// DeclaredOnly skips inherited methods.
	DeclaredOnly bool

	// StaticOnly skips instance methods.
	StaticOnly bool

	// From is the referencing type. When set, candidates it cannot access
	// are skipped.
	From types.Type
}

// MethodMatch is a method that accepts a given argument list.
type MethodMatch struct {
	Method *types.Method

	// Owner is the type the lookup ran against.
	Owner types.Type

	// Bindings holds the method type parameters inferred from the
	// arguments.
	Bindings *Bindings

	// Varargs is set when the trailing arguments were matched against the
	// component type of a variable-arity parameter.
	Varargs bool

	// ParamTypes is the resolved parameter type for each argument.
	ParamTypes []types.Type

	// Return is the return type with owner type arguments and inferred
	// bindings applied.
	Return types.Type
}

func (m *MethodMatch) String() string { return m.Method.String() }

// methodKey.owner is the resolved declaration, so each layer of a modified
// type has its own entry.
type methodKey struct {
	owner        any
	name         string
	declaredOnly bool
}

// GetMethods returns the methods named name that t declares or inherits.
// Overridden superclass methods are omitted. A class method and an
// interface method with the same signature are both kept.
func (s *System) GetMethods(t types.Type, name string, opts LookupOptions) []*types.Method {
	decl := s.TypeDeclOf(t)

	key := methodKey{owner: types.ErasedName(t), name: name, declaredOnly: opts.DeclaredOnly}
	if decl != nil {
		key.owner = decl
	}

	if cached, ok := s.methods.Get(key); ok {
		return filterMethods(s, cached.([]*types.Method), opts)
	}

	var found []*types.Method
	add := func(m *types.Method) {
		fromIface := types.IsInterface(m.Owner())
		for _, prev := range found {
			if types.IsInterface(prev.Owner()) == fromIface && s.sameSignatureIn(decl, prev, m) {
				return
			}
		}

		found = append(found, m)
	}

	for _, d := range s.hierarchyOf(t, decl, opts.DeclaredOnly) {
		for _, m := range declaredMethods(d) {
			if m.Name == name {
				add(m)
			}
		}
	}

	s.methods.Add(key, found)
	s.logger.Debug("gathered methods",
		slog.String("type", types.ErasedName(t)),
		slog.String("name", name),
		slog.Int("count", len(found)),
	)

	return filterMethods(s, found, opts)
}

func filterMethods(s *System, ms []*types.Method, opts LookupOptions) []*types.Method {
	if !opts.StaticOnly && opts.From == nil {
		return ms
	}

	var out []*types.Method
	for _, m := range ms {
		if opts.StaticOnly && !m.IsStatic() {
			continue
		}

		if opts.From != nil && !s.CheckAccess(opts.From, m) {
			continue
		}

		out = append(out, m)
	}

	return out
}

// allMethods returns every method t declares or inherits.
func (s *System) allMethods(t types.Type) []*types.Method {
	var out []*types.Method
	for _, d := range s.hierarchy(t, false) {
		out = append(out, declaredMethods(d)...)
	}

	return out
}

// hierarchy returns the declarations of t and, unless declaredOnly, of all
// its ancestors, most derived first.
func (s *System) hierarchy(t types.Type, declaredOnly bool) []types.Declared {
	return s.hierarchyOf(t, s.TypeDeclOf(t), declaredOnly)
}

func (s *System) hierarchyOf(t types.Type, d types.Declared, declaredOnly bool) []types.Declared {
	var decls []types.Declared
	if d != nil {
		decls = append(decls, d)
	}

	if declaredOnly {
		return decls
	}

	for _, anc := range s.Ancestors(t) {
		if d := s.TypeDeclOf(anc); d != nil {
			decls = append(decls, d)
		}
	}

	return decls
}

// sameSignatureIn reports whether a and b take the same parameters once the
// type arguments owner supplies to their declaring types are substituted.
func (s *System) sameSignatureIn(owner types.Type, a, b *types.Method) bool {
	if a.SameSignature(b) {
		return true
	}

	if owner == nil || a.Name != b.Name || len(a.Params) != len(b.Params) {
		return false
	}

	for i := range a.Params {
		at := s.MemberType(owner, a.Params[i].Type)
		bt := s.MemberType(owner, b.Params[i].Type)
		if !types.SameErased(at, bt) {
			return false
		}
	}

	return true
}

// declaredMethods lists the methods of d and, for a modify declaration, of
// every type it modifies, skipping signatures a later layer redeclares.
func declaredMethods(d types.Declared) []*types.Method {
	chain := []types.Declared{d}
	if decl, ok := d.(*types.Decl); ok {
		chain = decl.Chain()
	}

	var out []*types.Method
	for _, cd := range chain {
		for _, m := range cd.Methods() {
			if !slices.ContainsFunc(out, m.SameSignature) {
				out = append(out, m)
			}
		}
	}

	return out
}

func declaredConstructors(d types.Declared) []*types.Method {
	chain := []types.Declared{d}
	if decl, ok := d.(*types.Decl); ok {
		chain = decl.Chain()
	}

	for _, cd := range chain {
		if ctors := cd.Constructors(); len(ctors) > 0 {
			return ctors
		}
	}

	return nil
}

// GetMethod resolves a call of name on t with args. It returns nil when no
// method accepts the arguments. Equally specific candidates yield an
// AmbiguousCallError unless the system is configured to keep the first.
func (s *System) GetMethod(t types.Type, name string, args []Expression, opts LookupOptions) (*MethodMatch, error) {
	return s.selectMethod(t, name, s.GetMethods(t, name, opts), args)
}

// GetConstructor resolves a constructor call on t. Constructors are not
// inherited.
func (s *System) GetConstructor(t types.Type, args []Expression, opts LookupOptions) (*MethodMatch, error) {
	d := s.TypeDeclOf(t)
	if d == nil {
		return nil, nil
	}

	ctors := filterMethods(s, declaredConstructors(d), LookupOptions{From: opts.From})
	return s.selectMethod(t, d.SimpleName(), ctors, args)
}

// DefinesMethod returns the method of t named name that accepts argTypes,
// or nil. A tie is reported as a diagnostic and the first candidate wins.
func (s *System) DefinesMethod(t types.Type, name string, argTypes ...types.Type) *types.Method {
	match, err := s.GetMethod(t, name, Args(argTypes...), LookupOptions{})
	return s.settle(match, err)
}

// DeclaresConstructor returns the constructor t itself declares that
// accepts argTypes, or nil.
func (s *System) DeclaresConstructor(t types.Type, argTypes ...types.Type) *types.Method {
	match, err := s.GetConstructor(t, Args(argTypes...), LookupOptions{})
	return s.settle(match, err)
}

func (s *System) settle(match *MethodMatch, err error) *types.Method {
	if err != nil {
		s.diags.Report(err)

		var amb AmbiguousCallError
		if errors.As(err, &amb) && len(amb.Candidates) > 0 {
			return amb.Candidates[0]
		}

		return nil
	}

	if match == nil {
		return nil
	}

	return match.Method
}

func (s *System) selectMethod(t types.Type, name string, candidates []*types.Method, args []Expression) (*MethodMatch, error) {
	var matches []*MethodMatch
	for _, m := range candidates {
		if match := s.matchMethod(t, m, args); match != nil {
			matches = append(matches, match)
		}
	}

	if len(matches) == 0 {
		return nil, nil
	}

	best := matches[0]
	for _, m := range matches[1:] {
		if s.compareMatches(best, m, args) < 0 {
			best = m
		}
	}

	var ambiguous []*types.Method
	for _, m := range matches {
		if m != best && m.Method != best.Method && s.compareMatches(best, m, args) == 0 {
			ambiguous = append(ambiguous, m.Method)
		}
	}

	if len(ambiguous) > 0 {
		err := AmbiguousCallError{Name: name, Candidates: append([]*types.Method{best.Method}, ambiguous...)}
		if s.Config.Ambiguity == AmbiguityError {
			return nil, err
		}

		s.logger.Debug("keeping first of equally specific methods", slog.Any("err", err))
	}

	return best, nil
}

// matchMethod checks one candidate against the arguments. Types inferred
// onto argument expressions are cleared on every return path.
func (s *System) matchMethod(owner types.Type, m *types.Method, args []Expression) *MethodMatch {
	defer func() {
		for _, arg := range args {
			arg.ClearInferredType()
		}
	}()

	params := make([]types.Type, len(m.Params))
	for i, p := range m.Params {
		params[i] = s.MemberType(owner, p.Type)
		if params[i] == nil {
			params[i] = s.Object()
		}
	}

	if len(args) == len(params) {
		if match := s.tryMatch(owner, m, params, args, false); match != nil {
			return match
		}
	}

	if m.Varargs && len(params) > 0 && len(args) >= len(params)-1 {
		return s.tryMatch(owner, m, params, args, true)
	}

	return nil
}

func (s *System) tryMatch(owner types.Type, m *types.Method, params []types.Type, args []Expression, varargs bool) *MethodMatch {
	formals := make([]types.Type, len(args))
	for i := range args {
		switch {
		case !varargs || i < len(params)-1:
			formals[i] = params[i]
		default:
			formals[i] = types.ComponentType(params[len(params)-1])
			if formals[i] == nil {
				return nil
			}
		}
	}

	b := NewBindings(m.TypeParams...)

	for i, arg := range args {
		if at := arg.ExprType(); at != nil {
			if !s.unify(formals[i], at, b) {
				return nil
			}
		}
	}

	for i, arg := range args {
		if arg.ExprType() != nil {
			if _, typed := arg.(TypedArg); typed {
				continue
			}
		}

		if !arg.InferType(s, b.Apply(formals[i])) {
			return nil
		}

		if !s.unify(formals[i], arg.ExprType(), b) {
			return nil
		}
	}

	opts := AssignOptions{Semantics: Argument, Bindings: b, AllowUnbound: true}
	resolved := make([]types.Type, len(args))
	for i, arg := range args {
		resolved[i] = b.Apply(formals[i])
		if !s.IsAssignableFrom(resolved[i], arg.ExprType(), opts) {
			return nil
		}
	}

	var ret types.Type
	if m.Return != nil {
		ret = b.Apply(s.MemberType(owner, m.Return))
	}

	return &MethodMatch{
		Method:     m,
		Owner:      owner,
		Bindings:   b,
		Varargs:    varargs,
		ParamTypes: resolved,
		Return:     ret,
	}
}

// PickMoreSpecificMethod returns whichever of a and b is more specific for
// args, or nil when neither is.
func (s *System) PickMoreSpecificMethod(a, b *MethodMatch, args []Expression) *MethodMatch {
	switch c := s.compareMatches(a, b, args); {
	case c > 0:
		return a
	case c < 0:
		return b
	default:
		return nil
	}
}

// compareMatches is positive when a is more specific than b, negative when
// b is, and zero for a tie.
func (s *System) compareMatches(a, b *MethodMatch, args []Expression) int {
	am, bm := a.Method, b.Method
	if am == bm {
		return 0
	}

	if s.sameSignatureIn(a.Owner, am, bm) {
		ai, bi := types.IsInterface(am.Owner()), types.IsInterface(bm.Owner())
		switch {
		case !ai && bi:
			return 1
		case ai && !bi:
			return -1
		}

		switch {
		case !am.IsAbstract() && bm.IsAbstract():
			return 1
		case am.IsAbstract() && !bm.IsAbstract():
			return -1
		}
	}

	if c := s.compareVarargs(a, b, args); c != 0 {
		return c
	}

	if c := s.compareLambdas(a, b, args); c != 0 {
		return c
	}

	if c := s.compareArgs(a, b, args); c != 0 {
		return c
	}

	if a.Return != nil && b.Return != nil && !types.Same(a.Return, b.Return) {
		opts := AssignOptions{Semantics: Assignment, AllowUnbound: true}
		ab := s.IsAssignableFrom(b.Return, a.Return, opts)
		ba := s.IsAssignableFrom(a.Return, b.Return, opts)
		switch {
		case ab && !ba:
			return 1
		case ba && !ab:
			return -1
		}
	}

	switch {
	case len(am.Params) < len(bm.Params):
		return 1
	case len(am.Params) > len(bm.Params):
		return -1
	}

	return 0
}

// compareVarargs orders a variable-arity method against a fixed-arity one
// with the same leading parameters. If the fixed one ends in the same
// array type it wins. Otherwise the variable-arity one wins exactly when
// the final argument is an array.
func (s *System) compareVarargs(a, b *MethodMatch, args []Expression) int {
	am, bm := a.Method, b.Method
	if am.Varargs == bm.Varargs || len(am.Params) != len(bm.Params) || len(am.Params) == 0 {
		return 0
	}

	n := len(am.Params)
	for i := range n - 1 {
		if !types.SameErased(am.Params[i].Type, bm.Params[i].Type) {
			return 0
		}
	}

	sign := 1
	vm, fm := am, bm
	if bm.Varargs {
		sign = -1
		vm, fm = bm, am
	}

	if types.SameErased(vm.Params[n-1].Type, fm.Params[n-1].Type) {
		return -sign
	}

	finalArray := len(args) > 0 && types.IsArray(args[len(args)-1].ExprType())
	if finalArray {
		return sign
	}

	return -sign
}

func (s *System) compareLambdas(a, b *MethodMatch, args []Expression) int {
	score := 0
	for i, arg := range args {
		l, ok := arg.(*Lambda)
		if !ok || i >= len(a.ParamTypes) || i >= len(b.ParamTypes) {
			continue
		}

		ac, bc := l.Compatibility(s, a.ParamTypes[i]), l.Compatibility(s, b.ParamTypes[i])
		switch {
		case ac > bc:
			score++
		case bc > ac:
			score--
		}
	}

	return sign(score)
}

// compareArgs compares the two candidates one argument at a time. A
// candidate wins only if it is better for some argument and worse for
// none.
func (s *System) compareArgs(a, b *MethodMatch, args []Expression) int {
	aWins, bWins := 0, 0
	for i, arg := range args {
		if i >= len(a.ParamTypes) || i >= len(b.ParamTypes) {
			break
		}

		switch s.compareParam(a.ParamTypes[i], b.ParamTypes[i], arg.ExprType()) {
		case 1:
			aWins++
		case -1:
			bWins++
		}
	}

	switch {
	case aWins > 0 && bWins == 0:
		return 1
	case bWins > 0 && aWins == 0:
		return -1
	default:
		return 0
	}
}

func (s *System) compareParam(pa, pb, arg types.Type) int {
	if types.Same(pa, pb) {
		return 0
	}

	if arg != nil && !types.IsNull(arg) {
		ea, eb := types.Same(pa, arg), types.Same(pb, arg)
		switch {
		case ea && !eb:
			return 1
		case eb && !ea:
			return -1
		}

		// primitive and boxed forms of the argument's own kind
		if k := types.NumericKind(arg); k != kinds.Unknown {
			ka, kb := types.NumericKind(pa) == k, types.NumericKind(pb) == k
			switch {
			case ka && !kb:
				return 1
			case kb && !ka:
				return -1
			}

			if k.IsIntegral() && types.IsPrimitive(pa) && types.IsPrimitive(pb) {
				ra, rb := pa.Kind().Rank(), pb.Kind().Rank()
				switch {
				case ra < rb:
					return 1
				case rb < ra:
					return -1
				}
			}
		}

		if types.IsArray(arg) {
			aa, ab := types.IsArray(pa), types.IsArray(pb)
			switch {
			case aa && !ab:
				return 1
			case ab && !aa:
				return -1
			}
		}
	}

	opts := AssignOptions{Semantics: Argument, AllowUnbound: true}
	ab := s.IsAssignableFrom(pb, pa, opts)
	ba := s.IsAssignableFrom(pa, pb, opts)
	switch {
	case ab && !ba:
		return 1
	case ba && !ab:
		return -1
	default:
		return 0
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	default:
		return 0
	}
}
