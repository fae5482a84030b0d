package dynstub

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/rhino1998/strata/pkg/types"
	"github.com/rhino1998/strata/pkg/typesys"
)

var ErrIncompatibleShape = errors.New("incompatible stub shape")

// GetterText is the expression that reads the property on the target
// instance, e.g. getName() or name.
func (p *Prop) GetterText() string {
	if p.getter != nil {
		return p.getter.Name + "()"
	}

	return p.Name
}

// SetterText is the statement that writes value to the property.
func (p *Prop) SetterText(value string) string {
	if p.setter != nil {
		return p.setter.Name + "(" + value + ")"
	}

	return p.Name + " = " + value
}

// AccessorText is the getter expression, qualified with the owner when
// the property is static.
func (p *Prop) AccessorText() string {
	if p.Static && p.Owner != nil {
		return p.Owner.QualifiedName() + "." + p.GetterText()
	}

	return p.GetterText()
}

// PreInvoke and PostInvoke wrap an Object-typed dynamic result so it
// converts to the property type.
func (p *Prop) PreInvoke() string  { return preInvoke(p.Type) }
func (p *Prop) PostInvoke() string { return postInvoke(p.Type) }

// PreInvoke and PostInvoke wrap an Object-typed dynamic result so it
// converts to the method's return type. Both are empty for void methods
// and constructors.
func (m *Method) PreInvoke() string {
	if m.Constructor || m.Method == nil {
		return ""
	}

	return preInvoke(m.Method.Return)
}

func (m *Method) PostInvoke() string {
	if m.Constructor || m.Method == nil {
		return ""
	}

	return postInvoke(m.Method.Return)
}

func preInvoke(t types.Type) string {
	switch t := types.Dereference(t).(type) {
	case nil:
		return ""
	case types.Primitive:
		if t == types.Void {
			return ""
		}

		return "((" + types.BoxName(t) + ") "
	default:
		if types.IsObject(t) {
			return ""
		}

		return "(" + types.ErasedName(t) + ") "
	}
}

func postInvoke(t types.Type) string {
	p, ok := types.Dereference(t).(types.Primitive)
	if !ok || p == types.Void {
		return ""
	}

	return ")." + p.String() + "Value()"
}

// ThrowsClause renders the method's declared exceptions, empty when it
// declares none.
func (m *Method) ThrowsClause() string {
	if m.Method == nil || len(m.Method.Throws) == 0 {
		return ""
	}

	names := make([]string, 0, len(m.Method.Throws))
	for _, t := range m.Method.Throws {
		names = append(names, types.ErasedName(t))
	}

	return "throws " + strings.Join(names, ", ")
}

// TypeSignature is the method's JVM descriptor, e.g. (ILjava/lang/String;)V.
func (m *Method) TypeSignature() string {
	if m.Method == nil {
		return "()V"
	}

	return methodDescriptor(m.Method.ParamTypes(), m.Method.Return)
}

func (c *Constructor) TypeSignature() string {
	return methodDescriptor(c.Params, types.Void)
}

func methodDescriptor(params []types.Type, ret types.Type) string {
	var sb strings.Builder
	sb.WriteByte('(')
	for _, p := range params {
		sb.WriteString(types.Descriptor(p))
	}
	sb.WriteByte(')')

	if ret == nil {
		sb.WriteString("V")
	} else {
		sb.WriteString(types.Descriptor(ret))
	}

	return sb.String()
}

func (c *Constructor) String() string {
	params := make([]string, 0, len(c.Params))
	for _, p := range c.Params {
		params = append(params, types.ErasedName(p))
	}

	s := "<init>(" + strings.Join(params, ",") + ")"
	switch {
	case c.Propagated:
		s += " (propagated)"
	case c.Synthetic:
		s += " (synthetic)"
	}

	return s
}

// Render writes the shape as a stable, line oriented table.
func Render(p *Params) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "shape %s", p.Name())
	if p.Super != nil {
		fmt.Fprintf(&sb, " extends %s", p.Super.Name())
	}
	sb.WriteString("\n")

	sb.WriteString("props:\n")
	for _, prop := range p.Props {
		fmt.Fprintf(&sb, "  %s %s", prop, types.ErasedName(prop.Type))
		if prop.Static {
			sb.WriteString(" static")
		}
		if prop.Bindable {
			sb.WriteString(" bindable")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("methods:\n")
	for _, m := range p.Methods {
		fmt.Fprintf(&sb, "  %s %s", m, m.TypeSignature())
		switch {
		case m.Constructor:
			sb.WriteString(" constructor")
		case m.Static:
			sb.WriteString(" static")
		}
		if m.Synthetic {
			sb.WriteString(" synthetic")
		}
		if m.DynInvoke {
			sb.WriteString(" dyninvoke")
		}
		if m.NeedsSuper {
			sb.WriteString(" super")
		}
		if m.Reverse != nil {
			fmt.Fprintf(&sb, " reverse=%s", m.Reverse.Signature())
		}
		sb.WriteString("\n")
	}

	sb.WriteString("constructors:\n")
	for _, c := range p.Constructors {
		fmt.Fprintf(&sb, "  %s\n", c)
	}

	if len(p.InnerConstructors) > 0 {
		sb.WriteString("inner constructors:\n")
		for _, c := range p.InnerConstructors {
			fmt.Fprintf(&sb, "  %s %s\n", c.Inner.QualifiedName(), &c.Constructor)
		}
	}

	return sb.String()
}

// Diff returns a unified diff between the rendered shapes, empty when they
// are the same.
func Diff(before, after *Params) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(Render(before)),
		B:        difflib.SplitLines(Render(after)),
		FromFile: before.Name(),
		ToFile:   after.Name(),
		Context:  2,
	}

	text, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("failed to diff %s: %w", after.Name(), err)
	}

	return text, nil
}

// CheckCompatible verifies that sub extends the tables of base without
// moving or reusing any of base's positions.
func CheckCompatible(base, sub *Params) error {
	errs := &typesys.ErrorSet{}

	for _, bp := range base.Props {
		sp := sub.Prop(bp.Name)
		switch {
		case sp == nil:
			errs.Add(fmt.Errorf("%w: %s drops property %s", ErrIncompatibleShape, sub.Name(), bp))
		case sp.Index != bp.Index:
			errs.Add(fmt.Errorf("%w: %s moves property %s to %d", ErrIncompatibleShape, sub.Name(), bp, sp.Index))
		}
	}

	for _, bm := range base.Methods {
		if bm.Constructor {
			continue
		}

		sm := sub.Method(bm.Signature())
		switch {
		case sm == nil:
			errs.Add(fmt.Errorf("%w: %s drops method %s", ErrIncompatibleShape, sub.Name(), bm))
		case sm.Index != bm.Index:
			errs.Add(fmt.Errorf("%w: %s moves method %s to %d", ErrIncompatibleShape, sub.Name(), bm, sm.Index))
		}
	}

	reserved := base.NextMethodIndex()
	for _, sm := range sub.Methods {
		if base.Method(sm.Signature()) == nil && !sm.Constructor && sm.Index < reserved {
			errs.Add(fmt.Errorf("%w: %s reuses method position %d for %s", ErrIncompatibleShape, sub.Name(), sm.Index, sm.Signature()))
		}
	}

	return errs.Defer(nil)
}
