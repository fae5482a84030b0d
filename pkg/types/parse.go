package types

import (
	"fmt"
	"strings"
	"unicode"
)

// VarScope resolves type-variable names visible at a declaration site.
type VarScope func(name string) *TypeVariable

// ParseType parses a Java type expression such as
// java.util.Map<String, ? extends List<T>>[] into a handle. Names that are
// not primitives or visible type variables become references through s.
func ParseType(s TypeScope, vars VarScope, src string) (Type, error) {
	typ, varargs, err := ParseParamType(s, vars, src)
	if err != nil {
		return nil, err
	}

	if varargs {
		return nil, fmt.Errorf("unexpected ... in type %q", src)
	}

	return typ, nil
}

// ParseParamType is ParseType that also accepts a trailing `...` and
// reports it.
func ParseParamType(s TypeScope, vars VarScope, src string) (Type, bool, error) {
	p := &typeParser{s: s, vars: vars, src: src}

	typ, err := p.parseType()
	if err != nil {
		return nil, false, err
	}

	varargs := false
	p.skipSpace()
	if strings.HasPrefix(p.src[p.pos:], "...") {
		p.pos += 3
		typ = NewArray(typ)
		varargs = true
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, false, fmt.Errorf("unexpected %q in type %q", p.src[p.pos:], src)
	}

	return typ, varargs, nil
}

type typeParser struct {
	s    TypeScope
	vars VarScope
	src  string
	pos  int
}

func (p *typeParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *typeParser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}

	return p.src[p.pos]
}

func (p *typeParser) ident() string {
	p.skipSpace()
	start := p.pos
	for p.pos < len(p.src) {
		r := rune(p.src[p.pos])
		if !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '$' || r == '.') {
			break
		}

		// a dot starting `...` ends the name
		if r == '.' && strings.HasPrefix(p.src[p.pos:], "...") {
			break
		}

		p.pos++
	}

	return p.src[start:p.pos]
}

func (p *typeParser) parseType() (Type, error) {
	name := p.ident()
	if name == "" {
		return nil, fmt.Errorf("expected type name at %d in %q", p.pos, p.src)
	}

	var typ Type
	if prim, ok := PrimitiveByName(name); ok {
		typ = prim
	} else if v := p.lookupVar(name); v != nil {
		typ = v
	} else {
		typ = NewReference(p.s, name)
	}

	if p.peek() == '<' {
		p.pos++
		var args []Type
		for {
			arg, err := p.parseArg()
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			switch p.peek() {
			case ',':
				p.pos++
				continue
			case '>':
				p.pos++
			default:
				return nil, fmt.Errorf("expected , or > at %d in %q", p.pos, p.src)
			}

			break
		}

		typ = NewParameterized(typ, args...)
	}

	for p.peek() == '[' {
		p.pos++
		if p.peek() != ']' {
			return nil, fmt.Errorf("expected ] at %d in %q", p.pos, p.src)
		}

		p.pos++
		typ = NewArray(typ)
	}

	return typ, nil
}

func (p *typeParser) parseArg() (Type, error) {
	if p.peek() != '?' {
		return p.parseType()
	}

	p.pos++
	save := p.pos
	switch p.ident() {
	case "extends":
		bound, err := p.parseType()
		if err != nil {
			return nil, err
		}

		return &Wildcard{Bound: bound}, nil
	case "super":
		bound, err := p.parseType()
		if err != nil {
			return nil, err
		}

		return &Wildcard{Bound: bound, Lower: true}, nil
	default:
		p.pos = save
		return &Wildcard{}, nil
	}
}

func (p *typeParser) lookupVar(name string) *TypeVariable {
	if p.vars == nil {
		return nil
	}

	return p.vars(name)
}
