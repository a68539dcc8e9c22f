package value

import (
	"iter"
	"slices"
	"strconv"
)

// Mapping is an insertion-ordered map from string keys to Values. Overwriting
// an existing key keeps its position. The zero Mapping is empty and ready to
// use. A nil *Mapping reads as empty, but Set on it panics: build mappings
// with NewMapping or take the address of a zero Mapping. A Mapping is not
// safe for concurrent use.
type Mapping struct {
	keys   []string
	values map[string]Value
}

// NewMapping returns an empty mapping.
func NewMapping() *Mapping {
	return &Mapping{values: make(map[string]Value)}
}

func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return slices.Clone(m.keys)
}

func (m *Mapping) Get(key string) (Value, bool) {
	if m == nil {
		return Value{}, false
	}
	v, ok := m.values[key]
	return v, ok
}

func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Set stores v under key, appending key when it is new. m must not be nil.
func (m *Mapping) Set(key string, v Value) {
	if m.values == nil {
		m.values = make(map[string]Value)
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

// Delete removes key and reports whether it was present.
func (m *Mapping) Delete(key string) bool {
	if m == nil {
		return false
	}
	if _, exists := m.values[key]; !exists {
		return false
	}
	delete(m.values, key)
	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
	return true
}

// All iterates the entries in insertion order.
func (m *Mapping) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if m == nil {
			return
		}
		for _, key := range m.keys {
			if !yield(key, m.values[key]) {
				return
			}
		}
	}
}

// Clone returns a deep copy of m.
func (m *Mapping) Clone() *Mapping {
	out := &Mapping{values: make(map[string]Value, m.Len())}
	if m == nil {
		return out
	}
	out.keys = slices.Clone(m.keys)
	for key, v := range m.values {
		out.values[key] = v.Clone()
	}
	return out
}

// IsList reports whether m is non-empty and its keys are exactly "0".."n-1"
// in order.
func (m *Mapping) IsList() bool {
	if m.Len() == 0 {
		return false
	}
	for i, key := range m.keys {
		if key != indexKey(i) {
			return false
		}
	}
	return true
}

func (m *Mapping) Equal(other *Mapping) bool {
	if m.Len() != other.Len() {
		return false
	}
	for i, key := range m.Keys() {
		if other.keys[i] != key {
			return false
		}
		if !Equal(m.values[key], other.values[key]) {
			return false
		}
	}
	return true
}

func indexKey(i int) string {
	return strconv.Itoa(i)
}
