package domain

import (
	"slices"
	"strings"

	"go.trai.ch/zerr"
)

// Validate checks that every dependency is declared and that the targets form
// a DAG. On success it returns the names in a dependency-first order; ties are
// broken lexically so the result is stable.
func (m *Manifest) Validate() ([]string, error) {
	const (
		unvisited = iota
		visiting
		visited
	)

	order := make([]string, 0, len(m.Targets))
	state := make(map[InternedString]int, len(m.Targets))
	var path []InternedString

	var visit func(u InternedString) error
	visit = func(u InternedString) error {
		state[u] = visiting
		path = append(path, u)

		for _, dep := range m.Targets[u].Dependencies {
			if _, ok := m.Targets[dep]; !ok {
				err := zerr.Wrap(ErrMissingDependency, "target "+u.String()+" depends on an undeclared target")
				return zerr.With(zerr.With(err, "target", u.String()), "dependency", dep.String())
			}
			switch state[dep] {
			case visiting:
				return cycleError(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[u] = visited
		path = path[:len(path)-1]
		order = append(order, u.String())
		return nil
	}

	for _, name := range m.Names() {
		key := NewInternedString(name)
		if state[key] == unvisited {
			if err := visit(key); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// Closure returns the names reachable from roots, roots included, in lexical order.
func (m *Manifest) Closure(roots []string) ([]string, error) {
	seen := make(map[InternedString]struct{})
	stack := make([]InternedString, 0, len(roots))
	for _, root := range roots {
		key := NewInternedString(root)
		if _, ok := m.Targets[key]; !ok {
			return nil, zerr.With(zerr.Wrap(ErrTargetNotFound, "unknown root target"), "target", root)
		}
		stack = append(stack, key)
	}

	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}

		t, ok := m.Targets[u]
		if !ok {
			return nil, zerr.With(zerr.Wrap(ErrMissingDependency, "undeclared dependency"), "dependency", u.String())
		}
		stack = append(stack, t.Dependencies...)
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name.String())
	}
	slices.Sort(names)
	return names, nil
}

func cycleError(path []InternedString, dep InternedString) error {
	start := slices.Index(path, dep)
	parts := make([]string, 0, len(path)-start+1)
	for _, node := range path[start:] {
		parts = append(parts, node.String())
	}
	parts = append(parts, dep.String())
	return zerr.With(zerr.Wrap(ErrCycleDetected, "invalid target graph"), "cycle", strings.Join(parts, " -> "))
}
