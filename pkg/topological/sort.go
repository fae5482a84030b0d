package topological

import (
	"fmt"
	"slices"

	"github.com/hashicorp/go-set/v3"
	"golang.org/x/exp/constraints"
)

var ErrCycleDetected = fmt.Errorf("cycle detected")

// CycleError names the values left over once no more could be ordered.
type CycleError[K constraints.Ordered] struct {
	Keys []K
}

func (e CycleError[K]) Error() string {
	return fmt.Sprintf("%v: %v", ErrCycleDetected, e.Keys)
}

func (e CycleError[K]) Unwrap() error { return ErrCycleDetected }

func Sort[T constraints.Ordered](values []T, depFunc func(T) []T) ([]T, error) {
	return SortFunc(values, func(val T) T { return val }, depFunc)
}

// SortFunc orders values so that each comes after everything depFunc says
// it depends on. Dependencies outside values are ignored. Ties are broken
// by key so the order is deterministic.
func SortFunc[T any, K constraints.Ordered](values []T, keyFunc func(T) K, depFunc func(T) []T) ([]T, error) {
	valuesByKey := make(map[K]T, len(values))
	for _, val := range values {
		valuesByKey[keyFunc(val)] = val
	}

	dependencies := make(map[K]*set.Set[K])
	dependents := make(map[K]*set.Set[K])

	for key, val := range valuesByKey {
		deps := set.New[K](0)
		for _, dep := range depFunc(val) {
			depKey := keyFunc(dep)
			if _, ok := valuesByKey[depKey]; ok {
				deps.Insert(depKey)
			}
		}

		dependencies[key] = deps
		for depKey := range deps.Items() {
			if dependents[depKey] == nil {
				dependents[depKey] = set.New[K](0)
			}

			dependents[depKey].Insert(key)
		}
	}

	var ready []K
	for key, deps := range dependencies {
		if deps.Empty() {
			ready = append(ready, key)
		}
	}

	slices.Sort(ready)

	list := make([]T, 0, len(values))
	for len(ready) > 0 {
		var key K
		key, ready = ready[0], ready[1:]
		list = append(list, valuesByKey[key])
		delete(dependencies, key)

		var unblocked []K
		if ds, ok := dependents[key]; ok {
			for dependent := range ds.Items() {
				deps := dependencies[dependent]
				deps.Remove(key)
				if deps.Empty() {
					unblocked = append(unblocked, dependent)
				}
			}
		}

		slices.Sort(unblocked)
		ready = append(ready, unblocked...)
	}

	if len(dependencies) > 0 {
		keys := make([]K, 0, len(dependencies))
		for key := range dependencies {
			keys = append(keys, key)
		}

		slices.Sort(keys)
		return nil, CycleError[K]{Keys: keys}
	}

	return list, nil
}
