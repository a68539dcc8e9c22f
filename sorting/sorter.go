// Package sorting orders record sets by a value extracted from each record.
package sorting

import (
	"slices"

	"github.com/tailored-agentic-units/dotstore/value"
)

// KeySorter compares records by the value found after descending through a
// fixed sequence of keys. A record lacking any of the keys, or holding a
// non-mapping along the way, compares as null.
type KeySorter struct {
	keys []string
}

// NewKeySorter creates a sorter that extracts by keys. With no keys the
// records themselves are compared.
func NewKeySorter(keys ...string) *KeySorter {
	return &KeySorter{keys: slices.Clone(keys)}
}

// Keys returns the extraction keys.
func (s *KeySorter) Keys() []string {
	return slices.Clone(s.keys)
}

// Compare is the three-way comparison of the extracted values of a and b.
func (s *KeySorter) Compare(a, b value.Value) int {
	return value.Compare(s.extract(a), s.extract(b))
}

// SortDescending returns a new mapping holding the same key/record pairs,
// greatest extracted value first. Records that compare equal keep their
// input order. The input is not modified.
func (s *KeySorter) SortDescending(records *value.Mapping) *value.Mapping {
	keys := records.Keys()
	slices.SortStableFunc(keys, func(a, b string) int {
		va, _ := records.Get(a)
		vb, _ := records.Get(b)
		return s.Compare(vb, va)
	})

	out := value.NewMapping()
	for _, key := range keys {
		v, _ := records.Get(key)
		out.Set(key, v.Clone())
	}
	return out
}

// SortSliceDescending returns a sorted copy of records, greatest first.
func (s *KeySorter) SortSliceDescending(records []value.Value) []value.Value {
	out := make([]value.Value, len(records))
	for i, v := range records {
		out[i] = v.Clone()
	}
	slices.SortStableFunc(out, func(a, b value.Value) int {
		return s.Compare(b, a)
	})
	return out
}

func (s *KeySorter) extract(record value.Value) value.Value {
	current := record
	for _, key := range s.keys {
		m, ok := current.AsMapping()
		if !ok {
			return value.Null()
		}
		next, ok := m.Get(key)
		if !ok {
			return value.Null()
		}
		current = next
	}
	return current
}
