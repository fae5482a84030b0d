package typesys

import (
	"github.com/rhino1998/strata/pkg/types"
)

// CheckAccess reports whether code in ref may use member. Members of
// interfaces and of generated layer types are visible everywhere. With no
// referencing type there is nothing to check.
func (s *System) CheckAccess(ref types.Type, member types.Member) bool {
	owner := member.Owner()
	if ref == nil || owner == nil {
		return true
	}

	if types.IsInterface(owner) || isLayerType(owner) {
		return true
	}

	switch member.Modifiers().Access() {
	case types.AccessPublic:
		return true
	case types.AccessPrivate:
		return types.Same(types.TopLevel(ref), types.TopLevel(owner))
	case types.AccessProtected:
		if types.PackageName(ref) == types.PackageName(owner) {
			return true
		}

		for cur := ref; cur != nil; cur = enclosing(cur) {
			if s.IsSubtype(cur, owner) {
				return true
			}
		}

		return false
	default:
		return types.PackageName(ref) == types.PackageName(owner)
	}
}

func enclosing(t types.Type) types.Type {
	d, ok := types.Base(t).(types.Declared)
	if !ok {
		return nil
	}

	return d.Enclosing()
}

func isLayerType(t types.Type) bool {
	d, ok := types.TopLevel(t).(*types.Decl)
	if !ok {
		return false
	}

	for _, dt := range d.Chain() {
		if md, ok := dt.(*types.Decl); ok && md.LayerType {
			return true
		}
	}

	return false
}
