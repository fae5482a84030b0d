package typesys

import (
	"fmt"
	"strings"

	"github.com/rhino1998/strata/pkg/types"
)

// Expression is a call argument. Arguments whose type depends on the
// parameter they are passed to, like lambdas and calls to generic methods,
// infer it from the target during matching and must drop it again with
// ClearInferredType before the next candidate is tried.
type Expression interface {
	// ExprType is the argument type, or nil when it can only be inferred.
	ExprType() types.Type

	// InferType infers the argument's type from the parameter type it is
	// being matched against. It reports false when the argument cannot be
	// passed to target at all.
	InferType(s *System, target types.Type) bool

	ClearInferredType()

	String() string
}

var (
	_ Expression = TypedArg{}
	_ Expression = (*Lambda)(nil)
	_ Expression = (*GenericCall)(nil)
)

// TypedArg is an argument whose type is already known.
type TypedArg struct {
	Type types.Type
}

func (a TypedArg) ExprType() types.Type               { return a.Type }
func (a TypedArg) InferType(*System, types.Type) bool { return true }
func (a TypedArg) ClearInferredType()                 {}
func (a TypedArg) String() string                     { return typeName(a.Type) }

// Args wraps concrete argument types.
func Args(ts ...types.Type) []Expression {
	args := make([]Expression, 0, len(ts))
	for _, t := range ts {
		args = append(args, TypedArg{Type: t})
	}

	return args
}

// Lambda is a lambda argument with Params parameters. Value is the type of
// its body expression, or nil for a statement body that yields nothing.
type Lambda struct {
	Params int
	Value  types.Type

	inferred types.Type
}

func (l *Lambda) ExprType() types.Type { return l.inferred }

func (l *Lambda) InferType(s *System, target types.Type) bool {
	fn := s.FunctionalMethod(target)
	if fn == nil || len(fn.Params) != l.Params {
		return false
	}

	ret := s.MemberType(target, fn.Return)
	if l.Value != nil && !types.IsVoid(ret) {
		if !s.IsAssignableFrom(ret, l.Value, AssignOptions{Semantics: Assignment, AllowUnbound: true}) {
			return false
		}
	}

	l.inferred = target
	return true
}

func (l *Lambda) ClearInferredType() { l.inferred = nil }

// Compatibility scores how well target's single abstract method fits the
// lambda body: 2 when a value-producing body meets a non-void method or a
// statement body meets a void one, 1 otherwise, 0 when it does not fit.
func (l *Lambda) Compatibility(s *System, target types.Type) int {
	fn := s.FunctionalMethod(target)
	if fn == nil || len(fn.Params) != l.Params {
		return 0
	}

	if types.IsVoid(fn.Return) == (l.Value == nil) {
		return 2
	}

	return 1
}

func (l *Lambda) String() string {
	params := make([]string, l.Params)
	for i := range params {
		params[i] = fmt.Sprintf("p%d", i)
	}

	body := "{}"
	if l.Value != nil {
		body = l.Value.String()
	}

	return fmt.Sprintf("(%s) -> %s", strings.Join(params, ", "), body)
}

// GenericCall is a call to a generic method used as an argument. Its
// result type is inferred from the argument types and the target.
type GenericCall struct {
	Method   *types.Method
	ArgTypes []types.Type

	inferred types.Type
}

func (c *GenericCall) ExprType() types.Type {
	if c.inferred != nil {
		return c.inferred
	}

	return c.erasedReturn()
}

func (c *GenericCall) erasedReturn() types.Type {
	return substitute(c.Method.Return, func(v *types.TypeVariable) types.Type {
		if c.Method.TypeParam(v.Name) != v {
			return nil
		}

		if b := v.UpperBound(); b != nil {
			return b
		}

		return types.NewReference(nil, types.ObjectName)
	})
}

func (c *GenericCall) InferType(s *System, target types.Type) bool {
	b := NewBindings(c.Method.TypeParams...)
	for i, p := range c.Method.Params {
		if i >= len(c.ArgTypes) {
			break
		}

		if !s.unify(p.Type, c.ArgTypes[i], b) {
			return false
		}
	}

	if !s.unify(c.Method.Return, target, b) {
		return false
	}

	ret := b.Apply(c.Method.Return)
	if types.IsTypeVariable(ret) {
		ret = target
	}

	if !s.IsAssignableFrom(target, ret, AssignOptions{Semantics: Assignment, AllowUnbound: true}) {
		return false
	}

	c.inferred = ret
	return true
}

func (c *GenericCall) ClearInferredType() { c.inferred = nil }

func (c *GenericCall) String() string {
	return fmt.Sprintf("%s(...)", c.Method.Name)
}

// FunctionalMethod returns the single abstract method of a functional
// interface, or nil when t is not one.
func (s *System) FunctionalMethod(t types.Type) *types.Method {
	if !types.IsInterface(t) {
		return nil
	}

	var found *types.Method
	for _, m := range s.allMethods(t) {
		if !m.IsAbstract() || m.IsStatic() || s.isObjectMethod(m) {
			continue
		}

		if found != nil && !found.SameSignature(m) {
			return nil
		}

		if found == nil {
			found = m
		}
	}

	return found
}

func (s *System) isObjectMethod(m *types.Method) bool {
	obj, ok := types.Dereference(s.Object()).(types.Declared)
	if !ok {
		return false
	}

	for _, om := range obj.Methods() {
		if om.SameSignature(m) {
			return true
		}
	}

	return false
}

// unify binds the type parameters in formal against actual. It reports
// false when a parameter is already bound to a type actual cannot share.
func (s *System) unify(formal, actual types.Type, b *Bindings) bool {
	if formal == nil || actual == nil || types.IsNull(actual) {
		return true
	}

	switch f := types.Dereference(formal).(type) {
	case *types.TypeVariable:
		if !b.Declares(f) {
			return true
		}

		if types.IsPrimitive(actual) {
			actual = s.box(actual)
		}

		cur, ok := b.Lookup(f)
		if !ok {
			if !types.IsTypeVariable(actual) && !s.IsAssignableFrom(s.upperBound(f), actual, AssignOptions{Semantics: Assignment, AllowUnbound: true}) {
				return false
			}

			return b.Bind(f, actual) == nil
		}

		if types.IsTypeVariable(actual) || types.Same(cur, actual) {
			return true
		}

		opts := AssignOptions{Semantics: Assignment, AllowUnbound: true}
		switch {
		case s.IsAssignableFrom(cur, actual, opts):
			return true
		case s.IsAssignableFrom(actual, cur, opts):
			b.rebind(f, actual)
			return true
		default:
			return false
		}
	case *types.Parameterized:
		args, found := s.TypeArgumentsFor(actual, f.Base)
		if !found || len(args) != len(f.Args) {
			return true
		}

		for i, arg := range f.Args {
			if !s.unify(arg, args[i], b) {
				return false
			}
		}

		return true
	case *types.Wildcard:
		if f.Bound == nil {
			return true
		}

		if w, ok := types.Dereference(actual).(*types.Wildcard); ok {
			if w.Bound == nil {
				return true
			}

			actual = w.Bound
		}

		return s.unify(f.Bound, actual, b)
	case *types.Array:
		a, ok := types.Dereference(actual).(*types.Array)
		if !ok {
			return true
		}

		return s.unify(f.Elem, a.Elem, b)
	default:
		return true
	}
}
