package typegraph

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rhino1998/strata/pkg/types"
)

// AnnotationSpec is an annotation and its values. Values is either a
// mapping of attribute names, kept in document order, or a single scalar
// taken as the value attribute.
type AnnotationSpec struct {
	Name   string    `yaml:"name"`
	Values yaml.Node `yaml:"values,omitempty"`
}

func (s AnnotationSpec) build() (*types.Annotation, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("annotation name is required")
	}

	name := s.Name
	if kind, ok := types.LookupAnnotation(name); ok {
		name = kind.QualifiedName()
	}

	a := types.NewAnnotation(name)

	switch s.Values.Kind {
	case 0:
	case yaml.ScalarNode, yaml.SequenceNode:
		v, err := decodeValue(&s.Values)
		if err != nil {
			return nil, fmt.Errorf("@%s: %w", s.Name, err)
		}

		a.Set("value", v)
	case yaml.MappingNode:
		for i := 0; i+1 < len(s.Values.Content); i += 2 {
			key, val := s.Values.Content[i], s.Values.Content[i+1]

			v, err := decodeValue(val)
			if err != nil {
				return nil, fmt.Errorf("@%s(%s): %w", s.Name, key.Value, err)
			}

			a.Set(key.Value, v)
		}
	default:
		return nil, fmt.Errorf("@%s: values must be a scalar or a mapping", s.Name)
	}

	return a, nil
}

func decodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.Tag {
		case "!!bool":
			var b bool
			err := n.Decode(&b)
			return b, err
		case "!!int":
			var i int
			err := n.Decode(&i)
			return i, err
		default:
			return n.Value, nil
		}
	case yaml.SequenceNode:
		var ss []string
		err := n.Decode(&ss)
		return ss, err
	default:
		return nil, fmt.Errorf("unsupported annotation value at line %d", n.Line)
	}
}

func buildAnnotations(specs []AnnotationSpec) ([]*types.Annotation, error) {
	annots := make([]*types.Annotation, 0, len(specs))
	for _, spec := range specs {
		a, err := spec.build()
		if err != nil {
			return nil, err
		}

		annots = append(annots, a)
	}

	return annots, nil
}
