package dotpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tailored-agentic-units/dotstore/value"
)

// missingPolicy selects what resolve does when an intermediate segment is
// absent.
type missingPolicy uint8

const (
	// policyFailFast stops with errNotFound. Used by reads.
	policyFailFast missingPolicy = iota
	// policyMaterialize inserts an empty mapping and keeps descending. Used by Set.
	policyMaterialize
	// policyNoOp stops with errNotFound, which the caller discards. Used by Delete.
	policyNoOp
)

func (p missingPolicy) String() string {
	switch p {
	case policyFailFast:
		return "fail-fast"
	case policyMaterialize:
		return "materialize"
	case policyNoOp:
		return "no-op"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// errNotFound marks an absent intermediate segment. It never leaves the
// package: reads turn it into the default value, Delete into a no-op.
var errNotFound = errors.New("path not found")

// splitPath separates a non-empty path into its intermediate segments and the
// final key. Segments are taken literally; "a..b" has an empty middle key.
func splitPath(path string) (parents []string, last string) {
	segments := strings.Split(path, ".")
	return segments[:len(segments)-1], segments[len(segments)-1]
}

// resolve walks parents from the root and returns the mapping that holds (or
// will hold) the final segment. The returned mapping is owned by the tree, so
// writes through it land in place.
//
// A key holding null counts as absent, so Set replaces it with a mapping.
// Any other non-mapping value on the way is ErrUnresolvablePath regardless of
// policy.
func (a *Accessor) resolve(parents []string, policy missingPolicy) (*value.Mapping, error) {
	current := a.root

	for i, segment := range parents {
		m, ok := current.AsMapping()
		if !ok {
			return nil, unresolvable(parents[:i], current)
		}

		child, exists := m.Get(segment)
		if !exists || child.IsNull() {
			if policy != policyMaterialize {
				return nil, errNotFound
			}
			child = value.EmptyMap()
			m.Set(segment, child)
		}
		current = child
	}

	m, ok := current.AsMapping()
	if !ok {
		return nil, unresolvable(parents, current)
	}
	return m, nil
}

func unresolvable(prefix []string, got value.Value) error {
	if len(prefix) == 0 {
		return fmt.Errorf("%w: root is %s, not a mapping", ErrUnresolvablePath, got.Kind())
	}
	return fmt.Errorf("%w: %q is %s, not a mapping", ErrUnresolvablePath, strings.Join(prefix, "."), got.Kind())
}
