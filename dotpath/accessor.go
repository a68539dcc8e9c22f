// Package dotpath addresses nested mappings with dot-delimited paths such as
// "bar.other.baz".
//
// An Accessor owns one document tree. Reads (Get, Has) and Delete never
// create nodes and treat a missing or non-mapping segment as "not found".
// Set creates empty mappings for absent intermediate segments and fails with
// ErrUnresolvablePath when a scalar sits where a mapping is needed.
//
//	acc := dotpath.New(value.Null())
//	_ = acc.Set("bar.other.baz", value.String("x"))
//	acc.Get("bar.other.baz", value.Null()) // "x"
//
// The empty path addresses the root itself. Keys containing a literal dot
// cannot be addressed.
//
// An Accessor is not safe for concurrent use; guard each document with a
// single lock (see the document package).
package dotpath

import (
	"context"
	"errors"

	"github.com/tailored-agentic-units/dotstore/observability"
	"github.com/tailored-agentic-units/dotstore/value"
)

// ErrUnresolvablePath is returned by Set when a non-mapping value occupies a
// position the path must descend through.
var ErrUnresolvablePath = errors.New("the path can not be resolved")

// Accessor event types.
const (
	EventSet    observability.EventType = "dotpath.set"
	EventDelete observability.EventType = "dotpath.delete"
	EventClear  observability.EventType = "dotpath.clear"
)

// Option configures an Accessor.
type Option func(*Accessor)

// WithObserver receives a verbose event for every mutation.
func WithObserver(o observability.Observer) Option {
	return func(a *Accessor) { a.observer = o }
}

// Accessor is a dot-path view over an owned value tree.
type Accessor struct {
	root     value.Value
	observer observability.Observer
}

// New takes a deep copy of initial as the root. A null initial value starts
// the accessor with an empty mapping.
func New(initial value.Value, opts ...Option) *Accessor {
	root := initial.Clone()
	if root.IsNull() {
		root = value.EmptyMap()
	}

	a := &Accessor{
		root:     root,
		observer: observability.NoOpObserver{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NewFromMap converts native Go data and wraps it.
func NewFromMap(data map[string]any, opts ...Option) (*Accessor, error) {
	root, err := value.FromAny(data)
	if err != nil {
		return nil, err
	}
	return New(root, opts...), nil
}

// Get returns a copy of the value at path, or def when any segment is
// missing or not a mapping. The empty path returns the whole root.
func (a *Accessor) Get(path string, def value.Value) value.Value {
	if path == "" {
		return a.root.Clone()
	}

	parents, last := splitPath(path)
	m, err := a.resolve(parents, policyFailFast)
	if err != nil {
		return def
	}

	v, ok := m.Get(last)
	if !ok {
		return def
	}
	return v.Clone()
}

// Has reports whether the final key of path exists.
//
// The empty path reports whether the root holds anything other than null.
// It is kept for compatibility and is not a meaningful emptiness check: an
// empty root mapping still reports true.
func (a *Accessor) Has(path string) bool {
	if path == "" {
		return !a.root.IsNull()
	}

	parents, last := splitPath(path)
	m, err := a.resolve(parents, policyFailFast)
	if err != nil {
		return false
	}
	return m.Has(last)
}

// Set stores a copy of v at path, creating empty mappings for absent
// intermediate segments. The empty path replaces the root with v, which may
// be any value. Set fails with ErrUnresolvablePath before creating anything:
// a scalar can only be met on existing segments, which precede the first
// created one.
func (a *Accessor) Set(path string, v value.Value) error {
	if path == "" {
		a.root = v.Clone()
		a.emit(EventSet, path)
		return nil
	}

	parents, last := splitPath(path)
	m, err := a.resolve(parents, policyMaterialize)
	if err != nil {
		return err
	}

	m.Set(last, v.Clone())
	a.emit(EventSet, path)
	return nil
}

// SetAny converts v with value.FromAny and stores it at path.
func (a *Accessor) SetAny(path string, v any) error {
	converted, err := value.FromAny(v)
	if err != nil {
		return err
	}
	return a.Set(path, converted)
}

// Delete removes the final key of path. Unresolvable paths and absent keys
// are ignored. The empty path resets the root to an empty mapping.
func (a *Accessor) Delete(path string) {
	if path == "" {
		a.root = value.EmptyMap()
		a.emit(EventDelete, path)
		return
	}

	parents, last := splitPath(path)
	m, err := a.resolve(parents, policyNoOp)
	if err != nil {
		return
	}
	if m.Delete(last) {
		a.emit(EventDelete, path)
	}
}

// Clear resets the root to an empty mapping.
func (a *Accessor) Clear() {
	a.root = value.EmptyMap()
	a.emit(EventClear, "")
}

// Dump returns a copy of the whole root, whatever its shape.
func (a *Accessor) Dump() value.Value {
	return a.root.Clone()
}

func (a *Accessor) emit(typ observability.EventType, path string) {
	observability.Emit(context.Background(), a.observer, typ, observability.LevelVerbose, "dotpath", map[string]any{"path": path})
}
