// Package value defines the document model shared by the accessor, the stores
// and the RPC service. A Value is a tagged union of null, bool, number, string
// and ordered mapping. There is no list variant: list-like data is a mapping
// keyed "0".."n-1", and encoders render such mappings as arrays.
package value

import "fmt"

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindMapping
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindMapping:
		return "mapping"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Value is a document value. The zero Value is Null.
//
// Mapping values hold a pointer to their Mapping, so copying a Value does not
// copy the tree beneath it. Use Clone when an independent copy is required.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	m    *Mapping
}

// Null returns the null value.
func Null() Value {
	return Value{}
}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number wraps a float64.
func Number(n float64) Value {
	return Value{kind: KindNumber, n: n}
}

// Int wraps an integer as a Number.
func Int(n int) Value {
	return Value{kind: KindNumber, n: float64(n)}
}

// String wraps a string.
func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Map wraps m as a mapping value. A nil m produces an empty mapping.
func Map(m *Mapping) Value {
	if m == nil {
		m = NewMapping()
	}
	return Value{kind: KindMapping, m: m}
}

// EmptyMap returns a new, empty mapping value.
func EmptyMap() Value {
	return Map(NewMapping())
}

// List builds a list-like mapping keyed "0".."n-1".
func List(items ...Value) Value {
	m := NewMapping()
	for i, item := range items {
		m.Set(indexKey(i), item)
	}
	return Map(m)
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) IsMapping() bool {
	return v.kind == KindMapping
}

// AsBool returns the boolean and true when v is a Bool.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

// AsNumber returns the number and true when v is a Number.
func (v Value) AsNumber() (float64, bool) {
	return v.n, v.kind == KindNumber
}

// AsString returns the string and true when v is a String.
func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsMapping returns the underlying mapping and true when v is a Mapping.
// The returned pointer aliases v; mutations through it are visible to every
// holder of v.
func (v Value) AsMapping() (*Mapping, bool) {
	if v.kind != KindMapping {
		return nil, false
	}
	return v.m, true
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	if v.kind != KindMapping {
		return v
	}
	return Value{kind: KindMapping, m: v.m.Clone()}
}

// String renders v as compact JSON, for diagnostics.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(data)
}

// Equal reports whether a and b hold the same data. Mapping key order is
// significant.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindMapping:
		return a.m.Equal(b.m)
	}
	return false
}
